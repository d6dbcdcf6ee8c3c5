package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/pdfseal/internal/config"
	"github.com/illarion/pdfseal/internal/ui"
)

// Compact rewrites the bbolt key database to reclaim space left by deleted keys
func Compact() {
	app := openApp()
	defer app.Close()

	if app.db == nil {
		fmt.Fprintf(os.Stderr, "Nothing to compact: key backend is %s, not %s\n", app.Config.KeyBackend, config.BackendBolt)
		return
	}

	before, after, err := compactDB(app)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("%s Compacted: %s -> %s\n", ui.Success.Sprint("✓"), formatSize(before), formatSize(after))
}

func compactDB(app *App) (int64, int64, error) {
	path := app.db.Path()

	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	before := info.Size()

	if err := app.db.Compact(); err != nil {
		return 0, 0, err
	}

	info, err = os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	return before, info.Size(), nil
}
