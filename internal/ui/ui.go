// Package ui renders styled terminal output for the ielts CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	IconPlan   = "📅"
	IconBook   = "📚"
	IconChill  = "🍿"
	IconDone   = "✅"
	IconWarn   = "⚠️"
	IconServer = "🚀"
)

var (
	cAccent = lipgloss.Color("205")
	cTitle  = lipgloss.Color("63")
	cPass   = lipgloss.Color("42")
	cWarn   = lipgloss.Color("214")
	cFail   = lipgloss.Color("196")
	cMuted  = lipgloss.Color("244")
)

var (
	accentStyle = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(cTitle)
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(cPass)
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(cFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(cMuted)
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(cTitle)
)

// SetNoColor disables colors when off is true, or when NO_COLOR is set.
func SetNoColor(off bool) {
	if off || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}

func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }

// Heading renders a section title with an optional icon.
func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return titleStyle.Render(icon + title)
}

// LabelValue renders "label: value" with a bold label.
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", keyStyle.Render(label+":"), value)
}

// ProgressBar renders a ten-cell bar for a 0-100 percentage.
func ProgressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 10
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)

	style := warnStyle
	switch {
	case percent >= 100:
		style = passStyle
	case percent == 0:
		style = mutedStyle
	}
	return fmt.Sprintf("%s %3d%%", style.Render(bar), percent)
}
