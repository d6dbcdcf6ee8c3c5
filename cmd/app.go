package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/pdfseal/internal/config"
	"github.com/illarion/pdfseal/internal/core"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/keyring"
	"github.com/illarion/pdfseal/internal/keystore"
	"github.com/illarion/pdfseal/internal/logger"
	"github.com/illarion/pdfseal/internal/storage"
	"github.com/illarion/pdfseal/internal/ui"
)

// App holds everything a command needs, built from configuration
type App struct {
	Config *config.Config
	Log    *logger.Logger
	Keys   *keystore.Store
	Sealer *core.Sealer

	db *storage.Storage // set only for the bolt backend
}

// NewApp loads configuration and opens the configured key backend
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig builds an App from cfg
func NewAppWithConfig(cfg *config.Config) (*App, error) {
	if cfg.NoColor {
		ui.DisableColor()
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var log *logger.Logger
	if cfg.LogFormat == config.LogFormatJSON {
		log = logger.NewLogger("cli", level, os.Stderr)
	} else {
		log = logger.NewConsoleLogger("cli", level, os.Stderr, ui.NoColor())
	}

	app := &App{Config: cfg, Log: log}

	var backend keystore.Backend
	switch cfg.KeyBackend {
	case config.BackendBolt:
		db, err := storage.Open(cfg.KeyDBPath)
		if err != nil {
			return nil, err
		}
		app.db = db
		backend = db
	case config.BackendKeyring:
		backend = keyring.New(cfg.KeyringService)
	case config.BackendMemory:
		backend = keystore.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.KeyBackend)
	}

	log.Debug().Str("backend", cfg.KeyBackend).Msg("key store opened")

	app.Keys = keystore.New(backend, log.GetChildLogger())
	app.Sealer = core.New(app.Keys, crypto.NewEngine(cfg.ChunkSize), log.GetChildLogger())
	return app, nil
}

// Close releases the key backend
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// openApp is NewApp that exits on error
func openApp() *App {
	app, err := NewApp()
	if err != nil {
		HandleError(err)
	}
	return app
}
