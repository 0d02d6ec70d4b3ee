// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import "time"

// Backend names accepted in vault.backend and keygen.backend.
const (
	BackendNative       = "native"
	BackendAnsibleVault = "ansible-vault"
	BackendSSHKeygen    = "ssh-keygen"
)

// Config is the resolved vaultsetup configuration.
type Config struct {
	Language    string `mapstructure:"language" yaml:"language" validate:"required"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
	Placeholder string `mapstructure:"placeholder" yaml:"placeholder" validate:"required"`
	Clipboard   bool   `mapstructure:"clipboard" yaml:"clipboard"`

	Paths struct {
		Secrets       string `mapstructure:"secrets" yaml:"secrets" validate:"required"`
		Inventory     string `mapstructure:"inventory" yaml:"inventory" validate:"required"`
		Passphrase    string `mapstructure:"passphrase" yaml:"passphrase" validate:"required"`
		AnsibleConfig string `mapstructure:"ansible_config" yaml:"ansible_config" validate:"required"`
	} `mapstructure:"paths" yaml:"paths"`

	Vault struct {
		Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=native ansible-vault"`
		ID      string `mapstructure:"id" yaml:"id" validate:"omitempty,excludesall=;@"`
		Binary  string `mapstructure:"binary" yaml:"binary"`
	} `mapstructure:"vault" yaml:"vault"`

	Keygen struct {
		Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=native ssh-keygen"`
		Path    string `mapstructure:"path" yaml:"path" validate:"required"`
		Comment string `mapstructure:"comment" yaml:"comment"`
		Binary  string `mapstructure:"binary" yaml:"binary"`
	} `mapstructure:"keygen" yaml:"keygen"`

	Validator struct {
		BaseURL string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
		Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	} `mapstructure:"validator" yaml:"validator"`

	Store struct {
		Backup bool `mapstructure:"backup" yaml:"backup"`
	} `mapstructure:"store" yaml:"store"`
}

// Defaults are the values used when neither a file nor the environment
// sets a key.
func Defaults() map[string]any {
	return map[string]any{
		"language":             "en",
		"debug":                false,
		"placeholder":          "CHANGE_ME_VIA_VAULTSETUP",
		"clipboard":            true,
		"paths.secrets":        "group_vars/all/vault.yml",
		"paths.inventory":      "inventory/digitalocean.yml",
		"paths.passphrase":     ".vault_pass",
		"paths.ansible_config": "ansible.cfg",
		"vault.backend":        BackendAnsibleVault,
		"vault.id":             "",
		"vault.binary":         "ansible-vault",
		"keygen.backend":       BackendSSHKeygen,
		"keygen.path":          "~/.ssh/vaultsetup_ed25519",
		"keygen.comment":       "vaultsetup-deploy",
		"keygen.binary":        "ssh-keygen",
		"validator.base_url":   "https://api.digitalocean.com",
		"validator.timeout":    "5s",
		"store.backup":         false,
	}
}
