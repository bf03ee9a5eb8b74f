package ux

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))
)

// PassLine renders a green verdict line for a passing scan
func PassLine(message string, noColor bool) string {
	if noColor {
		return "PASS: " + message
	}
	return passStyle.Render("✅ " + message)
}

// FailLine renders a red verdict line for a failing scan
func FailLine(message string, noColor bool) string {
	if noColor {
		return "FAIL: " + message
	}
	return failStyle.Render("❌ " + message)
}

// WarnLine renders a yellow advisory line
func WarnLine(message string, noColor bool) string {
	if noColor {
		return "WARN: " + message
	}
	return warnStyle.Render("⚠ " + message)
}
