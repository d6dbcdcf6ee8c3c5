package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/pdfseal/internal/core"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/security"
	"github.com/illarion/pdfseal/internal/ui"
)

// DecryptOptions are the flags of the decrypt command
type DecryptOptions struct {
	KeyID       string
	UsePassword bool
	OutDir      string // default: current directory
	Out         string // file name inside OutDir; default: original name
	Force       bool   // overwrite an existing file
}

// Decrypt restores the original file from a bundle
func Decrypt(ctx context.Context, path string, opts DecryptOptions) {
	app := openApp()
	defer app.Close()

	creds, err := credentials(opts.KeyID, opts.UsePassword, false)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(creds.Password)

	progress := ui.NewProgress(os.Stderr, "Decrypting "+filepath.Base(path))
	progress.Start()

	out, err := decryptFile(ctx, app, path, opts, creds, progress.Update)
	if err != nil {
		progress.Stop(failedMessage("Decryption", progress))
		HandleError(err)
	}
	progress.Stop(fmt.Sprintf("%s Decrypted to %s", ui.Success.Sprint("✓"), ui.Path.Sprint(out)))

	fmt.Println(out)
}

func decryptFile(ctx context.Context, app *App, path string, opts DecryptOptions, creds core.Credentials, progress crypto.ProgressFunc) (string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	// The clear metadata names the output, so a collision is caught before
	// any decryption work
	info, err := app.Sealer.Inspect(blob)
	if err != nil {
		return "", err
	}
	name, err := outputName(path, info.Metadata.FileName, opts.Out)
	if err != nil {
		return "", err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	validator, err := security.New(outDir)
	if err != nil {
		return "", err
	}
	defer validator.Close()

	if !opts.Force {
		if _, err := validator.StatInRoot(name); err == nil {
			return "", fmt.Errorf("%s: %w", validator.Join(name), os.ErrExist)
		}
	}

	opened, err := app.Sealer.Open(ctx, blob, creds, progress)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(opened.Plaintext)

	if err := validator.WriteFileInRoot(name, opened.Plaintext, security.FilePermSecure, opts.Force); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%s: %w", validator.Join(name), os.ErrExist)
		}
		return "", err
	}

	app.Log.Info().
		Str("bundle", path).
		Str("dir", validator.Dir()).
		Int("size", len(opened.Plaintext)).
		Msg("file decrypted")
	return validator.Join(name), nil
}

// outputName picks the restored file name: an explicit override, then the
// name recorded in the bundle, then the bundle name without its suffix.
// Recorded names are not authenticated and are reduced to a bare file name.
func outputName(bundlePath, recorded, override string) (string, error) {
	if override != "" {
		return security.SafeFileName(override)
	}
	if recorded != "" {
		return security.SafeFileName(recorded)
	}
	base := filepath.Base(bundlePath)
	if trimmed := strings.TrimSuffix(base, core.BundleSuffix); trimmed != base {
		base = trimmed
	} else {
		base += ".decrypted"
	}
	return security.SafeFileName(base)
}
