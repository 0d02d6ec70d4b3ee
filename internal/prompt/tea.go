// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/vaultsetup/internal/i18n"
)

// secretModel reads one masked line.
type secretModel struct {
	question string
	input    textinput.Model
	done     bool
	canceled bool
}

func newSecretModel(question string) secretModel {
	ti := textinput.New()
	ti.Prompt = questionStyle.Render(question) + " "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	// room for pasted private keys
	ti.CharLimit = 16384
	ti.Focus()
	return secretModel{question: question, input: ti}
}

func (m secretModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m secretModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			m.done = true
			m.input.Blur()
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.canceled = true
			m.input.Blur()
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m secretModel) View() string {
	if m.done || m.canceled {
		return questionStyle.Render(m.question) + "\n"
	}
	return m.input.View()
}

// value returns the entered text, trimmed.
func (m secretModel) value() string {
	return strings.TrimSpace(m.input.Value())
}

// menuModel is a cursor-driven numbered menu.
type menuModel struct {
	question string
	options  []string
	cursor   int
	chosen   int
	canceled bool
}

func newMenuModel(question string, options []string) menuModel {
	return menuModel{question: question, options: options, chosen: -1}
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "tab":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.canceled = true
		return m, tea.Quit
	default:
		// digits jump straight to an entry
		if n, err := strconv.Atoi(key.String()); err == nil && n >= 1 && n <= len(m.options) {
			m.cursor = n - 1
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m menuModel) View() string {
	if m.chosen >= 0 {
		return questionStyle.Render(m.question) + " " + selectedStyle.Render(m.options[m.chosen]) + "\n"
	}
	if m.canceled {
		return questionStyle.Render(m.question) + "\n"
	}
	lines := []string{questionStyle.Render(m.question)}
	for i, o := range m.options {
		num := optionStyle.Render(strconv.Itoa(i+1) + ")")
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> ")+num+" "+selectedStyle.Render(o))
			continue
		}
		lines = append(lines, "  "+num+" "+o)
	}
	lines = append(lines, optionStyle.Render(i18n.T("prompt.menu_help", len(m.options))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}
