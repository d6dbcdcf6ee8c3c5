package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	script, ok := completionScript(shell)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
	fmt.Print(script)
}

func completionScript(shell string) (string, bool) {
	switch shell {
	case "bash":
		return bashCompletion, true
	case "zsh":
		return zshCompletion, true
	case "fish":
		return fishCompletion, true
	}
	return "", false
}

const bashCompletion = `_pdfseal() {
    local cur prev words cword
    _init_completion || return

    local commands="keygen keys export import delete encrypt decrypt inspect diff compact completion help"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    if [[ "$prev" == "--key" ]]; then
        COMPREPLY=($(compgen -W "$(pdfseal keys 2>/dev/null)" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        keygen)
            COMPREPLY=($(compgen -W "--id" -- "$cur"))
            ;;
        export)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--key --out" -- "$cur"))
            else
                _filedir
            fi
            ;;
        import)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--id" -- "$cur"))
            else
                _filedir
            fi
            ;;
        delete)
            COMPREPLY=($(compgen -W "--key --force" -- "$cur"))
            ;;
        encrypt)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--key --password --out --type --force" -- "$cur"))
            else
                _filedir
            fi
            ;;
        decrypt)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--key --password --out-dir --out --force" -- "$cur"))
            else
                _filedir pdfseal
            fi
            ;;
        inspect)
            _filedir pdfseal
            ;;
        diff)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--key --password" -- "$cur"))
            else
                _filedir
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _pdfseal pdfseal
`

const zshCompletion = `#compdef pdfseal

_pdfseal() {
    local -a commands
    commands=(
        'keygen:Generate and store a new key'
        'keys:List stored key ids'
        'export:Print a key as a JSON Web Key backup'
        'import:Import a JSON Web Key backup'
        'delete:Destroy a stored key'
        'encrypt:Encrypt a file into a .pdfseal bundle'
        'decrypt:Decrypt a .pdfseal bundle'
        'inspect:Show bundle metadata'
        'diff:Compare bundle content with a local file'
        'compact:Compact the key database'
        'completion:Generate shell completions'
        'help:Show help for a command'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'pdfseal commands' commands
            ;;
        args)
            case "${words[2]}" in
                keygen)
                    _arguments '--id[Key id]:id:'
                    ;;
                export)
                    _arguments \
                        '--key[Key id]:key:_pdfseal_keys' \
                        '--out[Output file]:file:_files'
                    ;;
                import)
                    _arguments \
                        '--id[Key id]:id:' \
                        '*:key file:_files'
                    ;;
                delete)
                    _arguments \
                        '--key[Key id]:key:_pdfseal_keys' \
                        '--force[Delete without confirmation]'
                    ;;
                encrypt)
                    _arguments \
                        '--key[Key id]:key:_pdfseal_keys' \
                        '--password[Encrypt with a password]' \
                        '--out[Output bundle]:file:_files' \
                        '--type[MIME type]:type:' \
                        '--force[Overwrite output]' \
                        '*:file:_files'
                    ;;
                decrypt)
                    _arguments \
                        '--key[Key id]:key:_pdfseal_keys' \
                        '--password[Decrypt with a password]' \
                        '--out-dir[Output directory]:dir:_files -/' \
                        '--out[Output file name]:name:' \
                        '--force[Overwrite output]' \
                        '*:bundle:_files -g "*.pdfseal"'
                    ;;
                inspect)
                    _arguments '*:bundle:_files -g "*.pdfseal"'
                    ;;
                diff)
                    _arguments \
                        '--key[Key id]:key:_pdfseal_keys' \
                        '--password[Decrypt with a password]' \
                        '*:file:_files'
                    ;;
                help)
                    _describe -t commands 'pdfseal commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_pdfseal_keys() {
    local -a keys
    keys=(${(f)"$(pdfseal keys 2>/dev/null)"})
    _describe -t keys 'stored keys' keys
}

_pdfseal "$@"
`

const fishCompletion = `# pdfseal fish completions

set -l commands keygen keys export import delete encrypt decrypt inspect diff compact completion help

complete -c pdfseal -f

# Commands
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a keygen -d 'Generate and store a key'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a keys -d 'List stored keys'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a export -d 'Export a key backup'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a import -d 'Import a key backup'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a delete -d 'Destroy a key'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Encrypt a file'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt a bundle'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a inspect -d 'Show bundle metadata'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare bundle with local file'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact key database'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'
complete -c pdfseal -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'

# Key selection
complete -c pdfseal -n "__fish_seen_subcommand_from export delete encrypt decrypt diff" -l key -x -a "(pdfseal keys 2>/dev/null)" -d 'Key id'
complete -c pdfseal -n "__fish_seen_subcommand_from encrypt decrypt diff" -l password -d 'Use a password'

# encrypt / decrypt
complete -c pdfseal -n "__fish_seen_subcommand_from encrypt" -l type -x -d 'MIME type'
complete -c pdfseal -n "__fish_seen_subcommand_from encrypt decrypt" -l force -d 'Overwrite output'
complete -c pdfseal -n "__fish_seen_subcommand_from encrypt export decrypt" -l out -r -d 'Output file'
complete -c pdfseal -n "__fish_seen_subcommand_from decrypt" -l out-dir -r -a "(__fish_complete_directories)" -d 'Output directory'
complete -c pdfseal -n "__fish_seen_subcommand_from encrypt decrypt inspect diff import" -F

# keygen / import / delete
complete -c pdfseal -n "__fish_seen_subcommand_from keygen import" -l id -x -d 'Key id'
complete -c pdfseal -n "__fish_seen_subcommand_from delete" -l force -d 'Delete without confirmation'

# help completions
complete -c pdfseal -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c pdfseal -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
