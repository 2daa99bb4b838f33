package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// palette colours status words when the writer is a terminal.
type palette struct {
	ok   *color.Color
	fail *color.Color
	warn *color.Color
	dim  *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		dim:  color.New(color.Faint),
	}
	if !shouldColorize(w) {
		for _, c := range []*color.Color{p.ok, p.fail, p.warn, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
