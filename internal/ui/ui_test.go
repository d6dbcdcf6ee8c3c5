package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestFormatterNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name      string
		formatter Formatter
		input     string
		want      string
	}{
		{"command adds backticks", Command, "pdfseal keygen", "`pdfseal keygen`"},
		{"path undecorated", Path, "report.pdf", "report.pdf"},
		{"success undecorated", Success, "✓", "✓"},
		{"highlight adds quotes", Highlight, "k-1", "'k-1'"},
		{"muted adds parentheses", Muted, "12 KB", "(12 KB)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.formatter.Sprint(tt.input))
		})
	}

	assert.Equal(t, "'id-7'", Highlight.Sprintf("id-%d", 7))
}

func TestFormatterWithColor(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })
	color.NoColor = false

	// t.Setenv registers the restore; the variable must be absent, not empty
	t.Setenv("NO_COLOR", "")
	unsetenv(t, "NO_COLOR")

	result := Command.Sprint("pdfseal keys")
	assert.NotContains(t, result, "`")
	assert.True(t, strings.Contains(result, "\x1b["), "expected ANSI codes, got %q", result)
}

func TestProgress_NonTerminal(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "progress")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	p := NewProgress(out, "Encrypting")

	p.Start()
	assert.Equal(t, -1, p.Last())
	for _, v := range []int{0, 50, 50, 99, 100} {
		p.Update(v)
	}
	assert.Equal(t, 100, p.Last())
	p.Stop("done")
}

func TestEnsureNewline(t *testing.T) {
	assert.Equal(t, "\n", EnsureNewline(""))
	assert.Equal(t, "a\n", EnsureNewline("a"))
	assert.Equal(t, "a\n", EnsureNewline("a\n"))
}

func unsetenv(t *testing.T, name string) {
	t.Helper()
	if err := os.Unsetenv(name); err != nil {
		t.Fatalf("unsetenv %s: %v", name, err)
	}
}
