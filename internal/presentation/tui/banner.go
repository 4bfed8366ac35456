package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"       _                _ _              ", "#34d399"},
	{"   ___(_)_ __ ___ _   _(_) |_ _ __ _   _ ", "#2dd4bf"},
	{"  / __| | '__/ __| | | | | __| '__| | | |", "#22d3ee"},
	{" | (__| | | | (__| |_| | | |_| |  | |_| |", "#38bdf8"},
	{"  \\___|_|_|  \\___|\\__,_|_|\\__|_|   \\__, |", "#60a5fa"},
	{"                                   |___/ ", "#818cf8"},
}

// PrintBanner writes the ASCII art banner to w, coloured for the terminal's profile.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
