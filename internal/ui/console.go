package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Console prints user-facing status lines. Errors and warnings go to the error writer.
type Console struct {
	out     io.Writer
	errOut  io.Writer
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	label   *color.Color
}

// NewConsole creates a Console writing to out and errOut.
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{
		out:     out,
		errOut:  errOut,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgHiMagenta),
		fail:    color.New(color.FgRed),
		label:   color.New(color.Bold),
	}
}

// DisableColors turns off color output process-wide.
func DisableColors() {
	color.NoColor = true
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (c *Console) Info(format string, args ...any) {
	c.info.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Success(format string, args ...any) {
	c.success.Fprintf(c.out, "✅ "+format+"\n", args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.warn.Fprintf(c.errOut, "⚠️  "+format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	c.fail.Fprintf(c.errOut, "❌ "+format+"\n", args...)
}

// Println prints an unstyled line.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// Field is one labeled row of a summary table.
type Field struct {
	Label string
	Value string
}

// Summary prints a titled, aligned table of fields.
func (c *Console) Summary(title string, fields []Field) {
	width := 0
	for _, f := range fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}
	c.label.Fprintln(c.out, title)
	c.label.Fprintln(c.out, strings.Repeat("─", len(title)))
	for _, f := range fields {
		value := f.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(c.out, "  %-*s  %s\n", width, f.Label, value)
	}
}
