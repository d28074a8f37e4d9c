package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success output
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content

	// Band colors match the direct-mode mapping: bass drives red,
	// mid drives green, treble drives blue
	BassColor   = lipgloss.Color("#FF5555")
	MidColor    = lipgloss.Color("#43BF6D")
	TrebleColor = lipgloss.Color("#5F87FF")
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Shared styles
var (
	// TitleStyle is for command titles
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// LabelStyle is for field labels (e.g., "Address:")
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// HexStyle is for packet hex dumps
	HexStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// ErrorStyle is for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// MeterLabelStyle is for band names in the levels view
	MeterLabelStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Width(8)

	// MeterValueStyle is for the numeric level readout
	MeterValueStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// StatusBarStyle is for the levels view footer
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// HeaderBorderStyle returns the border style for command output boxes
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}
