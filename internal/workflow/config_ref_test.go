// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigReferences(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ansible.cfg")
	pass := filepath.Join(dir, ".vault_pass")

	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"absolute", "[defaults]\nvault_password_file = " + pass + "\n", true},
		{"relative to config", "[defaults]\nvault_password_file=.vault_pass\n", true},
		{"quoted", "[defaults]\nvault_password_file = \"" + pass + "\"\n", true},
		{"yaml style separator", "vault_password_file: " + pass + "\n", true},
		{"commented out", "[defaults]\n# vault_password_file = " + pass + "\n; vault_password_file = " + pass + "\n", false},
		{"other file", "[defaults]\nvault_password_file = /tmp/other\n", false},
		{"no setting", "[defaults]\ninventory = hosts\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(cfg, []byte(tc.content), 0o644))
			got, err := ConfigReferences(cfg, pass)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConfigReferencesMissingFile(t *testing.T) {
	got, err := ConfigReferences(filepath.Join(t.TempDir(), "ansible.cfg"), ".vault_pass")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestConfigReferencesRelativePassphrasePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("ansible.cfg", []byte("[defaults]\nvault_password_file = ./.vault_pass\n"), 0o644))
	got, err := ConfigReferences("ansible.cfg", ".vault_pass")
	require.NoError(t, err)
	assert.True(t, got)
}
