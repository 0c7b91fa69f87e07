// Package ui provides the terminal output surface: a pair of printers
// (stdout for results, stderr for status) with optional ANSI color.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Color mode names accepted by Options.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var errInvalidColor = errors.New("invalid color mode (expected auto|always|never)")

// Options configures a UI.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Color  string // auto|always|never; empty means auto
}

// UI bundles the output printers.
type UI struct {
	out *Printer
	err *Printer
}

// New validates the options and builds a UI. In auto mode color is enabled
// only when the writer is a terminal.
func New(o Options) (*UI, error) {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}

	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}

	mode := o.Color
	if mode == "" {
		mode = ColorAuto
	}

	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return nil, fmt.Errorf("%w: %q", errInvalidColor, o.Color)
	}

	return &UI{
		out: &Printer{w: o.Stdout, color: colorEnabled(mode, o.Stdout)},
		err: &Printer{w: o.Stderr, color: colorEnabled(mode, o.Stderr)},
	}, nil
}

// Out returns the printer for primary output (stdout).
func (u *UI) Out() *Printer { return u.out }

// Err returns the printer for status and diagnostics (stderr).
func (u *UI) Err() *Printer { return u.err }

// colorEnabled resolves the effective color setting for a writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}

	return false
}

// Printer writes formatted lines to one stream.
type Printer struct {
	w     io.Writer
	color bool
}

// Print writes its arguments verbatim.
func (p *Printer) Print(args ...any) {
	fmt.Fprint(p.w, args...)
}

// Printf writes a formatted line, appending a newline.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Errorf writes a formatted line highlighted in red when color is on.
func (p *Printer) Errorf(format string, args ...any) {
	if p.color {
		fmt.Fprintf(p.w, "\x1b[31m"+format+"\x1b[0m\n", args...)

		return
	}

	p.Printf(format, args...)
}

type ctxKey struct{}

// WithUI attaches a UI to the context.
func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the UI attached to the context, or nil.
func FromContext(ctx context.Context) *UI {
	if v := ctx.Value(ctxKey{}); v != nil {
		if u, ok := v.(*UI); ok {
			return u
		}
	}

	return nil
}
