// Package style provides consistent terminal styling using Lipgloss.
package style

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Success style for positive outcomes (green)
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	// Warning style for cautionary messages (yellow)
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	// Error style for failures (red)
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	// Info style for informational messages (blue)
	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	// Dim style for secondary information (gray)
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// SuccessPrefix is the checkmark prefix for success messages
	SuccessPrefix = Success.Render("✓")

	// ErrorPrefix is the cross prefix for error messages
	ErrorPrefix = Error.Render("✗")

	// ArrowPrefix for action indicators
	ArrowPrefix = Info.Render("→")
)

// PrintWarning prints a warning message with consistent formatting.
// The format and args work like fmt.Printf.
func PrintWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Printf("%s %s\n", Warning.Render("⚠ Warning:"), msg)
}

// PrintError prints an error message with consistent formatting.
func PrintError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Printf("%s %s\n", ErrorPrefix, msg)
}

// ForState returns the style used for a scheduling state name.
func ForState(state string) lipgloss.Style {
	switch state {
	case "complete":
		return Success
	case "eligible":
		return Info
	default:
		return Dim
	}
}
