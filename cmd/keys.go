package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/illarion/pdfseal/internal/config"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/keystore"
	"github.com/illarion/pdfseal/internal/ui"
)

// Keygen generates a key, persists it and prints its id
func Keygen(id string) {
	app := openApp()
	defer app.Close()

	id, err := generateKey(app, id)
	if err != nil {
		HandleError(err)
	}

	fmt.Fprintf(os.Stderr, "%s Generated key %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(id))
	if app.Config.KeyBackend == config.BackendMemory {
		fmt.Fprintf(os.Stderr, "%s memory backend: the key is lost when pdfseal exits; export it now\n", ui.Warning.Sprint("⚠"))
	}
	fmt.Fprintf(os.Stderr, "%s Back it up with %s\n", ui.Info.Sprint("→"), ui.Command.Sprint("pdfseal export --key "+id))
	fmt.Println(id)
}

func generateKey(app *App, id string) (string, error) {
	if id == "" {
		id = app.Keys.GenerateID()
	} else if err := ensureFree(app, id); err != nil {
		return "", err
	}

	key, err := app.Keys.GenerateKey()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	if err := app.Keys.Persist(id, key); err != nil {
		return "", err
	}
	return id, nil
}

func ensureFree(app *App, id string) error {
	existing, found, err := app.Keys.Retrieve(id)
	if err != nil {
		return err
	}
	if found {
		existing.Destroy()
		return fmt.Errorf("%w: %s", errKeyExists, id)
	}
	return nil
}

// Keys lists persisted key ids
func Keys() {
	app := openApp()
	defer app.Close()

	ids, err := app.Keys.List()
	if err != nil {
		HandleError(err)
	}

	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "No keys stored")
		fmt.Fprintf(os.Stderr, "%s Run %s to create one\n", ui.Info.Sprint("→"), ui.Command.Sprint("pdfseal keygen"))
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}

	if footer := storeFooter(app); footer != "" {
		fmt.Fprintln(os.Stderr, ui.Muted.Sprint(footer))
	}
}

// storeFooter describes the bolt key database, or returns "" for other backends
func storeFooter(app *App) string {
	if app.db == nil {
		return ""
	}
	modified, err := app.db.GetModified()
	if err != nil {
		app.Log.Debug().Err(err).Msg("modified time unavailable")
		return app.db.Path()
	}
	return fmt.Sprintf("%s (modified %s)", app.db.Path(), modified.Local().Format(time.DateTime))
}

// Export prints the JSON Web Key for id, or writes it to outPath
func Export(id, outPath string) {
	app := openApp()
	defer app.Close()

	text, err := exportKey(app, id)
	if err != nil {
		HandleError(err)
	}

	if outPath == "" || outPath == "-" {
		fmt.Println(text)
		return
	}

	if err := os.WriteFile(outPath, []byte(text+"\n"), 0600); err != nil {
		HandleError(err)
	}
	fmt.Fprintf(os.Stderr, "%s Key %s written to %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(id), ui.Path.Sprint(outPath))
	fmt.Fprintf(os.Stderr, "%s Anyone with this file can decrypt your bundles\n", ui.Warning.Sprint("⚠"))
}

func exportKey(app *App, id string) (string, error) {
	if id == "" {
		return "", keystore.ErrEmptyID
	}
	key, err := app.Keys.Get(id)
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	return app.Keys.ExportKey(key)
}

// Import reads a JSON Web Key from path ("-" for stdin) and persists it.
// The id is taken from --id, then the key's own kid, then generated.
func Import(id, path string) {
	app := openApp()
	defer app.Close()

	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			HandleError(err)
		}
		defer f.Close()
		in = f
	}

	id, err := importKey(app, id, in)
	if err != nil {
		HandleError(err)
	}

	fmt.Fprintf(os.Stderr, "%s Imported key %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(id))
	fmt.Println(id)
}

// maxKeyText bounds how much input import reads
const maxKeyText = 64 * 1024

func importKey(app *App, id string, in io.Reader) (string, error) {
	text, err := io.ReadAll(io.LimitReader(in, maxKeyText))
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	defer crypto.ClearBytes(text)

	key, err := app.Keys.ImportKey(string(text))
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	if id == "" {
		id = key.ID
	}
	if id == "" {
		id = app.Keys.GenerateID()
	}

	if err := ensureFree(app, id); err != nil {
		return "", err
	}
	if err := app.Keys.Persist(id, key); err != nil {
		return "", err
	}
	return id, nil
}

// Delete destroys a key after confirmation
func Delete(id string, force bool) {
	app := openApp()
	defer app.Close()

	if !force {
		fmt.Fprintf(os.Stderr, "%s Deleting key %s is irreversible.\n", ui.Warning.Sprint("⚠"), ui.Highlight.Sprint(id))
		fmt.Fprintln(os.Stderr, "  Bundles encrypted only under this key can never be decrypted again.")
		if !confirm(os.Stdin, "Delete this key?") {
			fmt.Fprintln(os.Stderr, "Aborted")
			return
		}
	}

	if err := app.Keys.Delete(id); err != nil {
		HandleError(err)
	}

	fmt.Fprintf(os.Stderr, "%s Deleted key %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(id))
	if app.Config.KeyBackend == config.BackendBolt {
		fmt.Fprintf(os.Stderr, "%s Run %s to purge freed pages from the key database\n", ui.Info.Sprint("→"), ui.Command.Sprint("pdfseal compact"))
	}
}
