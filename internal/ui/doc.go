// Package ui implements terminal output for brsync commands.
//
// Two kinds of output live here:
//
//   - Styled one-shot output (lipgloss) for commands like "brsync color"
//     and "brsync scan" that print and exit.
//   - The live band meter TUI (Bubble Tea) behind "brsync levels", showing
//     bass/mid/treble as progress bars driven by an analysis frame channel.
//
// The meter model is a plain Bubble Tea model and can be driven in tests
// by feeding it messages directly; no terminal is required.
package ui
