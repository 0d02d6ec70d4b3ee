// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package credential

import "github.com/toeirei/vaultsetup/internal/vault"

// Store keys read by the provisioning roles.
const (
	KeyAPIToken      = "do_api_token"
	KeyOAuthToken    = "oauth_token"
	KeySSHPrivateKey = "ssh_private_key"
	KeySSHPublicKey  = "ssh_public_key"
)

// Options locates the documents and tunes the default fields.
type Options struct {
	SecretsPath   string
	InventoryPath string
	Placeholder   string
	VaultID       string
}

// Fields are the secrets managed by the setup workflow.
type Fields struct {
	Token      *Field
	PrivateKey *Field
	PublicKey  *Field
}

// DefaultFields binds the token to the secrets and inventory documents and
// the key pair to the secrets document.
func DefaultFields(opts Options, docs Documents, cipher vault.Cipher) Fields {
	fields := Fields{
		Token: New("token", docs, cipher,
			Location{Path: opts.SecretsPath, Key: KeyAPIToken},
			Location{Path: opts.InventoryPath, Key: KeyOAuthToken}),
		PrivateKey: New("ssh_private_key", docs, cipher,
			Location{Path: opts.SecretsPath, Key: KeySSHPrivateKey}),
		PublicKey: New("ssh_public_key", docs, cipher,
			Location{Path: opts.SecretsPath, Key: KeySSHPublicKey}),
	}
	for _, f := range []*Field{fields.Token, fields.PrivateKey, fields.PublicKey} {
		if opts.Placeholder != "" {
			f.Placeholder = opts.Placeholder
		}
		f.VaultID = opts.VaultID
	}
	return fields
}
