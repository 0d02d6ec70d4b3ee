// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import "github.com/charmbracelet/lipgloss"

const (
	colorSubtle    = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("81")
	colorSpecial   = lipgloss.Color("208")
	colorError     = lipgloss.Color("196")
	colorSuccess   = lipgloss.Color("40")
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	questionStyle = lipgloss.NewStyle().Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	specialStyle  = lipgloss.NewStyle().Foreground(colorSpecial)
	selectedStyle = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
)

// Title renders a step heading.
func Title(s string) string { return titleStyle.Render(s) }

// Success renders a confirmation.
func Success(s string) string { return successStyle.Render(s) }

// Warning renders something the operator should look at.
func Warning(s string) string { return specialStyle.Render(s) }

// Error renders a recoverable error.
func Error(s string) string { return errorStyle.Render(s) }
