package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/illarion/pdfseal/internal/bundle"
	"github.com/illarion/pdfseal/internal/core"
)

// Inspect prints the clear metadata of a bundle. No key is needed.
func Inspect(path string) {
	blob, err := os.ReadFile(path)
	if err != nil {
		HandleError(err)
	}

	info, err := core.New(nil, nil, nil).Inspect(blob)
	if err != nil {
		HandleError(err)
	}

	printInfo(os.Stdout, path, info)
}

func printInfo(w io.Writer, path string, info *core.Info) {
	version := fmt.Sprintf("%d", info.Version)
	if info.Version == bundle.VersionLegacy {
		version = "legacy (no header)"
	}

	fmt.Fprintf(w, "Bundle:      %s\n", path)
	fmt.Fprintf(w, "Format:      %s\n", version)
	fmt.Fprintf(w, "File name:   %s\n", info.Metadata.FileName)
	fmt.Fprintf(w, "Type:        %s\n", info.Metadata.MimeType)
	fmt.Fprintf(w, "Size:        %s\n", formatSize(info.Metadata.Size))
	fmt.Fprintf(w, "Encryption:  %s\n", info.Metadata.Method)
	fmt.Fprintf(w, "Ciphertext:  %s\n", formatSize(int64(info.CiphertextSize)))
}
