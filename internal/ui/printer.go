package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Printer provides methods for printing styled output to a writer.
// One-shot commands use this instead of a full Bubble Tea program.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// Field prints an aligned "label: value" line
func (p *Printer) Field(label, value string) {
	p.Println(LabelStyle.Render(fmt.Sprintf("%-12s", label+":")) + ValueStyle.Render(value))
}

// Packet prints a labelled hex dump of an encoded mesh command
func (p *Printer) Packet(label string, pkt []byte) {
	parts := make([]string, len(pkt))
	for i, b := range pkt {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	p.Field(label, HexStyle.Render(strings.Join(parts, " ")))
}

// Error prints a styled error line
func (p *Printer) Error(err error) {
	p.Println(ErrorStyle.Render("✗ " + err.Error()))
}
