// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSecretModel_MasksAndSubmits(t *testing.T) {
	var m tea.Model = newSecretModel("Passphrase:")

	m, _ = m.Update(runes(" s3cret "))
	assert.NotContains(t, m.View(), "s3cret", "input must be masked")
	assert.Contains(t, m.View(), "•")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, isQuit(t, cmd))
	sm := m.(secretModel)
	assert.True(t, sm.done)
	assert.False(t, sm.canceled)
	assert.Equal(t, "s3cret", sm.value())
	assert.NotContains(t, sm.View(), "s3cret")
}

func TestSecretModel_Cancel(t *testing.T) {
	var m tea.Model = newSecretModel("Passphrase:")
	m, _ = m.Update(runes("abc"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, isQuit(t, cmd))
	assert.True(t, m.(secretModel).canceled)
}

func TestMenuModel_NavigateAndChoose(t *testing.T) {
	var m tea.Model = newMenuModel("What now?", []string{"Update", "Remove", "Skip"})
	assert.Contains(t, m.View(), "1)")
	assert.Contains(t, m.View(), "Skip")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.(menuModel).cursor, "cursor stays on the first entry")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.(menuModel).cursor, "cursor stops on the last entry")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, isQuit(t, cmd))
	assert.Equal(t, 1, m.(menuModel).chosen)
	assert.Contains(t, m.View(), "Remove")
}

func TestMenuModel_DigitSelectsDirectly(t *testing.T) {
	var m tea.Model = newMenuModel("What now?", []string{"Update", "Remove", "Skip"})

	m, cmd := m.Update(runes("7"))
	assert.False(t, isQuit(t, cmd), "out of range digits are ignored")
	assert.Equal(t, -1, m.(menuModel).chosen)

	m, cmd = m.Update(runes("3"))
	require.True(t, isQuit(t, cmd))
	assert.Equal(t, 2, m.(menuModel).chosen)
}

func TestMenuModel_Cancel(t *testing.T) {
	var m tea.Model = newMenuModel("What now?", []string{"Update"})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, isQuit(t, cmd))
	mm := m.(menuModel)
	assert.True(t, mm.canceled)
	assert.Equal(t, -1, mm.chosen)
}
