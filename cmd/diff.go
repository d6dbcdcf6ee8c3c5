package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/pdfseal/internal/crypto"
)

// Diff compares the decrypted content of a bundle with a local file
func Diff(ctx context.Context, bundlePath, localPath, keyID string, usePassword bool) {
	app := openApp()
	defer app.Close()

	blob, err := os.ReadFile(bundlePath)
	if err != nil {
		HandleError(err)
	}
	localData, err := os.ReadFile(localPath)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(localData)

	creds, err := credentials(keyID, usePassword, false)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(creds.Password)

	cmp, err := app.Sealer.DiffBundle(ctx, blob, creds, localData)
	if err != nil {
		HandleError(err)
	}

	if cmp.Identical {
		fmt.Println("No differences")
		return
	}
	fmt.Print(cmp)
}
