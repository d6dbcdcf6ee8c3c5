package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/illarion/pdfseal/internal/bundle"
	"github.com/illarion/pdfseal/internal/config"
	"github.com/illarion/pdfseal/internal/core"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/keystore"
	"github.com/illarion/pdfseal/internal/security"
	"github.com/illarion/pdfseal/internal/ui"
)

var errKeyExists = errors.New("key already exists")

// GetPassword retrieves the password from PDFSEAL_PASSWORD or prompts for it.
// The caller is responsible for calling crypto.ClearBytes on the result.
func GetPassword(prompt string) ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return core.ReadPassword(prompt)
}

// GetNewPassword is GetPassword with confirmation for passwords that
// protect new bundles
func GetNewPassword() ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm()
}

// credentials builds core.Credentials from command flags, prompting for the
// password when usePassword is set
func credentials(keyID string, usePassword, confirm bool) (core.Credentials, error) {
	if keyID != "" && usePassword {
		return core.Credentials{}, core.ErrAmbiguousCreds
	}
	if keyID != "" {
		return core.Credentials{KeyID: keyID}, nil
	}
	if !usePassword {
		return core.Credentials{}, core.ErrKeyIDRequired
	}

	var (
		password []byte
		err      error
	)
	if confirm {
		password, err = GetNewPassword()
	} else {
		password, err = GetPassword("Enter password: ")
	}
	if err != nil {
		return core.Credentials{}, err
	}
	return core.Credentials{Password: password}, nil
}

// confirm asks a yes/no question on stderr, reading the answer from in
func confirm(in io.Reader, question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// failedMessage reports where a long operation stopped
func failedMessage(op string, p *ui.Progress) string {
	msg := ui.Error.Sprint("✗") + " " + op + " failed"
	if last := p.Last(); last > 0 {
		msg += fmt.Sprintf(" at %d%%", last)
	}
	return msg
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

// errorMessage maps an error to the message and optional hint shown to the user.
// Wrong keys, wrong passwords and tampering share one message.
func errorMessage(err error) (string, string) {
	switch {
	case errors.Is(err, crypto.ErrAuthFailed):
		return "incorrect key or password, or the file is corrupted", ""
	case errors.Is(err, keystore.ErrKeyNotFound):
		return err.Error(), "Run 'pdfseal keys' to list keys, or 'pdfseal keygen' / 'pdfseal import' to add one"
	case errors.Is(err, crypto.ErrMalformedKey):
		return "this is not a valid pdfseal key", "Keys are JSON Web Keys produced by 'pdfseal export'"
	case errors.Is(err, bundle.ErrMalformedBundle):
		return "this file cannot be decrypted: it is not a pdfseal bundle", ""
	case errors.Is(err, crypto.ErrRandomUnavailable):
		return "the system random number generator is unavailable; aborting", ""
	case errors.Is(err, core.ErrPasswordTooShort):
		return err.Error(), ""
	case errors.Is(err, core.ErrKeyIDRequired):
		return "no key selected", "Use --key ID or --password"
	case errors.Is(err, core.ErrAmbiguousCreds):
		return err.Error(), ""
	case errors.Is(err, errKeyExists):
		return err.Error(), "Choose another --id or delete the existing key first"
	case errors.Is(err, config.ErrInvalidBackend):
		return err.Error(), "Set PDFSEAL_KEY_BACKEND to bolt, keyring or memory"
	case errors.Is(err, security.ErrUnsafeName), errors.Is(err, security.ErrPathEscapes):
		return err.Error(), "Use --out to choose the output file name"
	case errors.Is(err, os.ErrExist):
		return err.Error(), "Use --force to overwrite"
	default:
		return err.Error(), ""
	}
}

// HandleError prints err for the user and exits with status 1
func HandleError(err error) {
	msg, hint := errorMessage(err)
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.Error.Sprint("Error:"), msg)
	if hint != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.Info.Sprint("→"), hint)
	}
	os.Exit(1)
}
