package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/pdfseal/internal/core"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/ui"
)

// EncryptOptions are the flags of the encrypt command
type EncryptOptions struct {
	KeyID       string
	UsePassword bool
	Out         string // default: input path + .pdfseal
	MimeType    string // default: guessed from the extension
	Force       bool   // overwrite an existing output file
}

// Encrypt seals the file at path into a bundle
func Encrypt(ctx context.Context, path string, opts EncryptOptions) {
	app := openApp()
	defer app.Close()

	creds, err := credentials(opts.KeyID, opts.UsePassword, true)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(creds.Password)

	progress := ui.NewProgress(os.Stderr, "Encrypting "+filepath.Base(path))
	progress.Start()

	out, size, err := encryptFile(ctx, app, path, opts, creds, progress.Update)
	if err != nil {
		progress.Stop(failedMessage("Encryption", progress))
		HandleError(err)
	}
	progress.Stop(fmt.Sprintf("%s Encrypted %s %s", ui.Success.Sprint("✓"), ui.Path.Sprint(path), ui.Muted.Sprint(formatSize(size))))

	fmt.Println(out)
}

func encryptFile(ctx context.Context, app *App, path string, opts EncryptOptions, creds core.Credentials, progress crypto.ProgressFunc) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("%s is a directory", path)
	}

	out := opts.Out
	if out == "" {
		out = path + core.BundleSuffix
	}
	if !opts.Force {
		if _, err := os.Stat(out); err == nil {
			return "", 0, fmt.Errorf("%s: %w", out, os.ErrExist)
		}
	}

	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = guessMimeType(path)
	}

	name := recordedName(path)
	if name != filepath.Base(path) {
		app.Log.Warn().Str("name", name).Msg("file name is not valid UTF-8, recording a sanitized name")
	}

	blob, err := app.Sealer.Seal(ctx, core.Source{
		Name:     name,
		MimeType: mimeType,
		Size:     info.Size(),
		Reader:   f,
	}, creds, progress)
	if err != nil {
		return "", 0, err
	}

	if err := os.WriteFile(out, blob, 0600); err != nil {
		return "", 0, fmt.Errorf("failed to write bundle: %w", err)
	}

	app.Log.Info().Str("bundle", out).Int64("size", info.Size()).Msg("file encrypted")
	return out, info.Size(), nil
}

// recordedName is the base name stored in the bundle. Bundle metadata is
// UTF-8 text, so invalid byte sequences become "_".
func recordedName(path string) string {
	return strings.ToValidUTF8(filepath.Base(path), "_")
}

func guessMimeType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "application/pdf"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return core.DefaultMimeType
}
