package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Progress renders a spinner with a percentage on a terminal.
// It does nothing when out is not a terminal.
type Progress struct {
	s     *spinner.Spinner
	label string
	last  int
}

// NewProgress creates a stopped spinner writing to out
func NewProgress(out *os.File, label string) *Progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(out))
	s.Suffix = " " + label
	if !NoColor() {
		_ = s.Color("cyan")
	}
	return &Progress{s: s, label: label, last: -1}
}

// Start begins rendering
func (p *Progress) Start() {
	p.s.Start()
}

// Update shows percent; it matches crypto.ProgressFunc
func (p *Progress) Update(percent int) {
	if percent == p.last {
		return
	}
	p.last = percent
	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" %s %3d%%", p.label, percent)
	p.s.Unlock()
}

// Last returns the most recent percentage, or -1 before any update
func (p *Progress) Last() int {
	return p.last
}

// Stop ends rendering and prints msg (if any) in place of the spinner
func (p *Progress) Stop(msg string) {
	if msg != "" {
		p.s.FinalMSG = EnsureNewline(msg)
	}
	p.s.Stop()
}

// EnsureNewline ensures s ends with a newline
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}
