package ui

import (
	"fmt"
	"io"

	"github.com/mattn/go-isatty"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
)

// Dim is the escape for index columns.
const Dim = dim

var (
	forceColor   bool
	disableColor bool
)

// SetColorForcing overrides terminal detection.
func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// fder is satisfied by *os.File and anything else wrapping a descriptor.
type fder interface{ Fd() uintptr }

func isTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Pen colors text bound for one writer.
type Pen struct{ on bool }

// PenFor returns a Pen that colors only when w is a terminal, unless color
// has been forced on or off.
func PenFor(w io.Writer) Pen {
	switch {
	case disableColor:
		return Pen{}
	case forceColor:
		return Pen{on: true}
	}
	return Pen{on: isTerminal(w)}
}

// C wraps s in color when the pen is on.
func (p Pen) C(color, s string) string {
	if !p.on || color == "" {
		return s
	}
	return color + s + reset
}

func OK(w io.Writer, msg string)   { fmt.Fprintln(w, PenFor(w).C(fgGreen, symCheck+" "+msg)) }
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, PenFor(w).C(fgRed, symCross+" "+msg)) }
