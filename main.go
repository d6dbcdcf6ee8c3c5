package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/pdfseal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		runKeygen(ctx, os.Args[2:])
	case "keys":
		runKeys(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "import":
		runImport(ctx, os.Args[2:])
	case "delete":
		runDelete(ctx, os.Args[2:])
	case "encrypt":
		runEncrypt(ctx, os.Args[2:])
	case "decrypt":
		runDecrypt(ctx, os.Args[2:])
	case "inspect":
		runInspect(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func parse(fs *flag.FlagSet, args []string) {
	fs.Usage = func() { printCommandHelp(fs.Name()) }
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func requireArgs(fs *flag.FlagSet, n int) {
	if fs.NArg() != n {
		printCommandHelp(fs.Name())
		os.Exit(1)
	}
}

func runKeygen(_ context.Context, args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	id := fs.String("id", "", "Key id (default: generated)")
	parse(fs, args)
	requireArgs(fs, 0)

	cmd.Keygen(*id)
}

func runKeys(_ context.Context, args []string) {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	parse(fs, args)
	requireArgs(fs, 0)

	cmd.Keys()
}

func runExport(_ context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	key := fs.String("key", "", "Key id")
	out := fs.String("out", "", "Write to file instead of stdout")
	parse(fs, args)
	requireArgs(fs, 0)

	cmd.Export(*key, *out)
}

func runImport(_ context.Context, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	id := fs.String("id", "", "Key id (default: the key's kid, or generated)")
	parse(fs, args)
	requireArgs(fs, 1)

	cmd.Import(*id, fs.Arg(0))
}

func runDelete(_ context.Context, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	key := fs.String("key", "", "Key id")
	force := fs.Bool("force", false, "Delete without confirmation")
	parse(fs, args)
	requireArgs(fs, 0)

	cmd.Delete(*key, *force)
}

func runEncrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	key := fs.String("key", "", "Encrypt with the stored key ID")
	password := fs.Bool("password", false, "Encrypt with a password")
	out := fs.String("out", "", "Output bundle path (default: FILE.pdfseal)")
	mimeType := fs.String("type", "", "MIME type to record (default: guessed)")
	force := fs.Bool("force", false, "Overwrite an existing bundle")
	parse(fs, args)
	requireArgs(fs, 1)

	cmd.Encrypt(ctx, fs.Arg(0), cmd.EncryptOptions{
		KeyID:       *key,
		UsePassword: *password,
		Out:         *out,
		MimeType:    *mimeType,
		Force:       *force,
	})
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	key := fs.String("key", "", "Decrypt with the stored key ID")
	password := fs.Bool("password", false, "Decrypt with a password")
	outDir := fs.String("out-dir", "", "Directory for the restored file (default: .)")
	out := fs.String("out", "", "File name for the restored file (default: original name)")
	force := fs.Bool("force", false, "Overwrite an existing file")
	parse(fs, args)
	requireArgs(fs, 1)

	cmd.Decrypt(ctx, fs.Arg(0), cmd.DecryptOptions{
		KeyID:       *key,
		UsePassword: *password,
		OutDir:      *outDir,
		Out:         *out,
		Force:       *force,
	})
}

func runInspect(_ context.Context, args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	parse(fs, args)
	requireArgs(fs, 1)

	cmd.Inspect(fs.Arg(0))
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	key := fs.String("key", "", "Decrypt with the stored key ID")
	password := fs.Bool("password", false, "Decrypt with a password")
	parse(fs, args)
	requireArgs(fs, 2)

	cmd.Diff(ctx, fs.Arg(0), fs.Arg(1), *key, *password)
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parse(fs, args)
	requireArgs(fs, 0)

	cmd.Compact()
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pdfseal completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("pdfseal - encrypt files on this device with a stored key or a password")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pdfseal <command> [arguments]")
	fmt.Println()
	fmt.Println("Key commands:")
	fmt.Println("  keygen      Generate and store a new key")
	fmt.Println("  keys        List stored key ids")
	fmt.Println("  export      Print a key as a JSON Web Key backup")
	fmt.Println("  import      Import a JSON Web Key backup")
	fmt.Println("  delete      Destroy a stored key (irreversible)")
	fmt.Println("  compact     Compact the key database")
	fmt.Println()
	fmt.Println("File commands:")
	fmt.Println("  encrypt     Encrypt a file into a .pdfseal bundle")
	fmt.Println("  decrypt     Decrypt a .pdfseal bundle")
	fmt.Println("  inspect     Show bundle metadata without decrypting")
	fmt.Println("  diff        Compare bundle content with a local file")
	fmt.Println()
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pdfseal keygen --id work               # Create key 'work'")
	fmt.Println("  pdfseal encrypt --key work report.pdf  # Writes report.pdf.pdfseal")
	fmt.Println("  pdfseal encrypt --password report.pdf  # Password-protected bundle")
	fmt.Println("  pdfseal decrypt --password report.pdf.pdfseal")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  PDFSEAL_KEY_BACKEND  bolt (default), keyring or memory")
	fmt.Println("  PDFSEAL_KEY_DB       key database path (default ~/.pdfseal/keys.db)")
	fmt.Println("  PDFSEAL_PASSWORD     password for --password, instead of prompting")
	fmt.Println("  PDFSEAL_CONFIG       JSON configuration file")
	fmt.Println("  PDFSEAL_LOG_LEVEL    debug, info, warn (default) or error")
	fmt.Println()
	fmt.Println("Use 'pdfseal help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "keygen":
		fmt.Println("pdfseal keygen [--id ID]")
		fmt.Println()
		fmt.Println("Generates a random 256-bit AES-GCM key and stores it locally.")
		fmt.Println("Prints the key id. Export a backup right away: a lost key cannot be recovered.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --id ID    Key id (default: a generated UUID)")
	case "keys":
		fmt.Println("pdfseal keys")
		fmt.Println()
		fmt.Println("Lists the ids of all stored keys.")
	case "export":
		fmt.Println("pdfseal export --key ID [--out FILE]")
		fmt.Println()
		fmt.Println("Prints the key as a JSON Web Key, suitable as a backup.")
		fmt.Println("Anyone holding this text can decrypt bundles made with the key.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --key ID     Key to export")
		fmt.Println("  --out FILE   Write to FILE (mode 0600) instead of stdout")
	case "import":
		fmt.Println("pdfseal import [--id ID] FILE|-")
		fmt.Println()
		fmt.Println("Reads a JSON Web Key produced by 'pdfseal export' and stores it.")
		fmt.Println("Use - to read from stdin.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --id ID    Key id (default: the key's kid, or a generated UUID)")
	case "delete":
		fmt.Println("pdfseal delete --key ID [--force]")
		fmt.Println()
		fmt.Println("Destroys a stored key. This is irreversible: bundles encrypted")
		fmt.Println("only under this key can never be decrypted again.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --key ID   Key to delete")
		fmt.Println("  --force    Do not ask for confirmation")
	case "encrypt":
		fmt.Println("pdfseal encrypt (--key ID | --password) [--out FILE] [--type MIME] [--force] FILE")
		fmt.Println()
		fmt.Println("Encrypts FILE with AES-256-GCM into a self-contained bundle.")
		fmt.Println("With --password the key is derived from a password you must remember.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --key ID      Use a stored key")
		fmt.Println("  --password    Use a password (at least 6 characters)")
		fmt.Println("  --out FILE    Bundle path (default: FILE.pdfseal)")
		fmt.Println("  --type MIME   MIME type to record (default: guessed from extension)")
		fmt.Println("  --force       Overwrite an existing bundle")
	case "decrypt":
		fmt.Println("pdfseal decrypt (--key ID | --password) [--out-dir DIR] [--out NAME] [--force] BUNDLE")
		fmt.Println()
		fmt.Println("Authenticates and decrypts BUNDLE, restoring the original file name.")
		fmt.Println("A wrong key, a wrong password and a corrupted bundle report the same error.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --key ID        Use a stored key")
		fmt.Println("  --password      Use a password")
		fmt.Println("  --out-dir DIR   Directory for the restored file (default: .)")
		fmt.Println("  --out NAME      File name to use instead of the recorded one")
		fmt.Println("  --force         Overwrite an existing file")
	case "inspect":
		fmt.Println("pdfseal inspect BUNDLE")
		fmt.Println()
		fmt.Println("Shows the metadata stored in clear in a bundle. No key is needed.")
	case "diff":
		fmt.Println("pdfseal diff (--key ID | --password) BUNDLE LOCAL")
		fmt.Println()
		fmt.Println("Decrypts BUNDLE in memory and shows a unified diff against LOCAL.")
		fmt.Println("Binary content is only reported as changed.")
	case "compact":
		fmt.Println("pdfseal compact")
		fmt.Println()
		fmt.Println("Rewrites the key database so deleted keys do not linger in free pages.")
	case "completion":
		fmt.Println("pdfseal completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  source <(pdfseal completion bash)")
		fmt.Println("  pdfseal completion fish > ~/.config/fish/completions/pdfseal.fish")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		os.Exit(1)
	}
}
