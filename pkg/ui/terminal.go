package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Banner is printed by the non-interactive commands
const Banner = `
  ┌─┐┌─┐┬  ┬┌─┐   ┌─┐┬─┐┌─┐┌┬┐   ┬┌┐┌┌─┐┌┬┐
  └─┐├─┤└┐┌┘├┤ ───├┤ ├┬┘│ ││││───││││└─┐ │
  └─┘┴ ┴ └┘ └─┘   └  ┴└─└─┘┴ ┴   ┴┘└┘└─┘ ┴
`

// ANSI color codes
const (
	colorCyan    = "\033[36m"
	colorYellow  = "\033[33m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorMagenta = "\033[35m"
	colorDim     = "\033[2m"
	colorReset   = "\033[0m"
)

// Printer writes colored status lines. Colors are only emitted when the
// writer is a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a Printer for w
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{w: w, color: color}
}

// Stdout returns a Printer for standard output
func Stdout() *Printer {
	return NewPrinter(os.Stdout)
}

func (p *Printer) paint(code, text string) string {
	if !p.color {
		return text
	}
	return code + text + colorReset
}

func (p *Printer) Cyan(s string) string    { return p.paint(colorCyan, s) }
func (p *Printer) Yellow(s string) string  { return p.paint(colorYellow, s) }
func (p *Printer) Red(s string) string     { return p.paint(colorRed, s) }
func (p *Printer) Green(s string) string   { return p.paint(colorGreen, s) }
func (p *Printer) Magenta(s string) string { return p.paint(colorMagenta, s) }
func (p *Printer) Dim(s string) string     { return p.paint(colorDim, s) }

// Banner prints the application banner
func (p *Printer) Banner() {
	fmt.Fprint(p.w, p.Cyan(Banner))
}

// Error prints an error line, with err appended when given
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(p.w, p.Red(msg))
}

// Success prints a success line
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.Green(msg))
}

// Info prints a label/value pair
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.w, "%s: %s\n", p.Cyan(label), p.Yellow(value))
}

// Warning prints a warning line
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.w, p.Yellow(msg))
}

// Highlight prints a line in magenta
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.w, p.Magenta(msg))
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.w
}
