package tui

import (
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Renderer picks the markdown renderer for w: glamour on a terminal, plain
// text when output is piped.
func Renderer(w io.Writer) func(string) (string, error) {
	if IsTerminal(w) {
		return NewRenderer()
	}
	return PlainRenderer
}

// Bits colours a string of 0 and 1 for w: ones green, zeros dim. Output that
// is not a terminal is returned unchanged.
func Bits(w io.Writer, bits string) string {
	if !IsTerminal(w) {
		return bits
	}
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	var b strings.Builder
	for _, r := range bits {
		s := out.String(string(r))
		switch r {
		case '1':
			s = s.Foreground(p.Color("#22c55e")).Bold()
		case '0':
			s = s.Faint()
		}
		b.WriteString(s.String())
	}
	return b.String()
}
