// Package ui formats pdfseal terminal output and renders progress.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string
func (f Formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if NoColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

// DisableColor turns off colored output for the rest of the process
func DisableColor() {
	color.NoColor = true
}

// NoColor reports whether color output is disabled (NO_COLOR or no terminal)
func NoColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Path formats file paths
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Command formats runnable commands; `backticks` without color
	Command = Formatter{color.New(color.FgYellow), "`", "`"}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats user values such as key ids; 'quoted' without color
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary text; (parenthesized) without color
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
