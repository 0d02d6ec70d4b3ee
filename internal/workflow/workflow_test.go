// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toeirei/vaultsetup/internal/credential"
	"github.com/toeirei/vaultsetup/internal/crypto/ssh"
	"github.com/toeirei/vaultsetup/internal/keysource"
	"github.com/toeirei/vaultsetup/internal/mock"
	"github.com/toeirei/vaultsetup/internal/prompt"
	"github.com/toeirei/vaultsetup/internal/security"
	"github.com/toeirei/vaultsetup/internal/store"
	"github.com/toeirei/vaultsetup/internal/testutil"
	"github.com/toeirei/vaultsetup/internal/validator"
	"github.com/toeirei/vaultsetup/internal/vault"
	"go.uber.org/mock/gomock"
)

const (
	secretsPath   = "group_vars/all/vault.yml"
	inventoryPath = "inventory/digitalocean.yml"
)

type harness struct {
	dir       string
	docs      *testutil.Documents
	cipher    *testutil.Cipher
	fields    credential.Fields
	validator *mock.MockTokenValidator
	prompter  *testutil.Prompter
	pass      vault.PassphraseFile
	opts      Options
}

// newHarness prepares a project whose passphrase file exists and is
// referenced by ansible.cfg, so the vault step passes without input.
func newHarness(t *testing.T, answers ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		dir:       dir,
		docs:      testutil.NewDocuments(),
		cipher:    &testutil.Cipher{},
		validator: mock.NewMockTokenValidator(gomock.NewController(t)),
		prompter:  testutil.NewPrompter(answers...),
		pass:      vault.PassphraseFile{Path: filepath.Join(dir, ".vault_pass")},
		opts: Options{
			AnsibleConfigPath: filepath.Join(dir, "ansible.cfg"),
			KeyPath:           filepath.Join(dir, "keys", "deploy_ed25519"),
		},
	}
	h.fields = credential.DefaultFields(credential.Options{SecretsPath: secretsPath, InventoryPath: inventoryPath}, h.docs, h.cipher)
	require.NoError(t, h.pass.Create(security.FromString("pw")))
	h.writeConfig(t)
	return h
}

func (h *harness) writeConfig(t *testing.T) {
	t.Helper()
	cfg := "[defaults]\ninventory = inventory/digitalocean.yml\nvault_password_file = " + h.pass.Path + "\n"
	require.NoError(t, os.WriteFile(h.opts.AnsibleConfigPath, []byte(cfg), 0o644))
}

func (h *harness) workflow() *Workflow {
	return New(h.opts, h.pass, h.fields, h.validator, keysource.Native{Comment: "test"}, h.prompter)
}

func (h *harness) decrypt(t *testing.T, path, key string) string {
	t.Helper()
	v, err := h.docs.Read(path, key)
	require.NoError(t, err)
	require.True(t, v.IsArmored(), "%s:%s should be encrypted", path, key)
	plain, err := h.cipher.Decrypt(t.Context(), v.Text)
	require.NoError(t, err)
	return plain.Reveal()
}

func TestFreshStoreStoresValidatedToken(t *testing.T) {
	h := newHarness(t, "", "badtoken", "abc123", "Cancel")
	gomock.InOrder(
		h.validator.EXPECT().Validate(gomock.Any(), security.FromString("badtoken")).Return(validator.Invalid),
		h.validator.EXPECT().Validate(gomock.Any(), security.FromString("abc123")).Return(validator.Valid),
	)

	w := h.workflow()
	require.NoError(t, w.Run(t.Context()))
	assert.Equal(t, StepDone, w.Session().Step)
	assert.NotEmpty(t, w.Session().ID)

	assert.True(t, strings.HasPrefix(h.docs.Text(secretsPath), "do_api_token: !vault |"))
	assert.True(t, strings.HasPrefix(h.docs.Text(inventoryPath), "oauth_token: !vault |"))
	assert.Equal(t, "abc123", h.decrypt(t, secretsPath, credential.KeyAPIToken))
	assert.Equal(t, "abc123", h.decrypt(t, inventoryPath, credential.KeyOAuthToken))

	out := h.prompter.Out.String()
	assert.Contains(t, out, "must not be empty")
	assert.Contains(t, out, "rejected the token")
	assert.Contains(t, out, "Setup complete")
	assert.NotContains(t, out, "abc123")
	assert.Zero(t, h.prompter.Remaining())
}

func TestNetworkErrorReprompts(t *testing.T) {
	h := newHarness(t, "abc123", "abc123", "Cancel")
	gomock.InOrder(
		h.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validator.NetworkError),
		h.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validator.Valid),
	)
	require.NoError(t, h.workflow().Run(t.Context()))
	assert.Contains(t, h.prompter.Out.String(), "Could not verify the token")
	assert.Equal(t, "abc123", h.decrypt(t, secretsPath, credential.KeyAPIToken))
}

func TestRemoveTokenWritesPlaceholderWithoutCipher(t *testing.T) {
	h := newHarness(t, "Remove", "Cancel")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	encrypts := h.cipher.Encrypts

	require.NoError(t, h.workflow().Run(t.Context()))

	assert.Equal(t, encrypts, h.cipher.Encrypts)
	for _, loc := range h.fields.Token.Locations {
		v, err := h.docs.Read(loc.Path, loc.Key)
		require.NoError(t, err)
		assert.Equal(t, store.Plain(credential.DefaultPlaceholder), v)
	}
	snap, err := h.fields.Token.State(t.Context())
	require.NoError(t, err)
	assert.Equal(t, credential.Placeholder, snap.State)
}

func TestPlaceholderTokenGoesStraightToUpdate(t *testing.T) {
	h := newHarness(t, "abc123", "Cancel")
	require.NoError(t, h.fields.Token.Clear(t.Context()))
	h.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validator.Valid)

	require.NoError(t, h.workflow().Run(t.Context()))
	assert.NotContains(t, h.prompter.Asked, "A token is already stored. What do you want to do?")
	assert.Equal(t, "abc123", h.decrypt(t, inventoryPath, credential.KeyOAuthToken))
}

func TestRerunWithSkipChangesNothing(t *testing.T) {
	h := newHarness(t, "Skip", "Skip")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	require.NoError(t, credential.SetPair(t.Context(), h.fields.PrivateKey, h.fields.PublicKey,
		security.FromString("old-private"), security.FromString("old-public")))
	before := h.docs.Text(secretsPath)
	writes := len(h.docs.Writes)

	require.NoError(t, h.workflow().Run(t.Context()))
	assert.Equal(t, before, h.docs.Text(secretsPath))
	assert.Len(t, h.docs.Writes, writes)
}

func TestGenerateDeclinedKeepsFilesAndFields(t *testing.T) {
	h := newHarness(t, "Skip", "Update", "Generate a new key pair", "", "n", "Cancel")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	require.NoError(t, credential.SetPair(t.Context(), h.fields.PrivateKey, h.fields.PublicKey,
		security.FromString("old-private"), security.FromString("old-public")))

	pub, priv, err := ssh.GenerateAndMarshalEd25519Key("existing", "")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(h.opts.KeyPath), 0o700))
	require.NoError(t, os.WriteFile(h.opts.KeyPath, []byte(priv), 0o600))
	require.NoError(t, os.WriteFile(h.opts.KeyPath+".pub", []byte(pub+"\n"), 0o644))
	before := h.docs.Text(secretsPath)

	require.NoError(t, h.workflow().Run(t.Context()))

	gotPriv, _ := os.ReadFile(h.opts.KeyPath)
	gotPub, _ := os.ReadFile(h.opts.KeyPath + ".pub")
	assert.Equal(t, priv, string(gotPriv))
	assert.Equal(t, pub+"\n", string(gotPub))
	assert.Equal(t, before, h.docs.Text(secretsPath))
	assert.Contains(t, h.prompter.Out.String(), "Existing key kept")
	assert.Equal(t, "old-private", h.decrypt(t, secretsPath, credential.KeySSHPrivateKey))
}

func TestGenerateStoresPairAndCopiesPublicKey(t *testing.T) {
	h := newHarness(t, "Skip", "2", "")
	h.opts.Clipboard = true
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))

	var copied string
	old := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	defer func() { copyToClipboard = old }()

	require.NoError(t, h.workflow().Run(t.Context()))

	storedPub := h.decrypt(t, secretsPath, credential.KeySSHPublicKey)
	storedPriv := h.decrypt(t, secretsPath, credential.KeySSHPrivateKey)
	assert.True(t, strings.HasPrefix(storedPub, "ssh-ed25519 "))
	assert.Contains(t, storedPriv, "OPENSSH PRIVATE KEY")
	assert.Equal(t, storedPub, copied)
	assert.Contains(t, h.prompter.Out.String(), storedPub)
	assert.NotContains(t, h.prompter.Out.String(), storedPriv)

	onDisk, err := os.ReadFile(h.opts.KeyPath + ".pub")
	require.NoError(t, err)
	assert.Equal(t, storedPub, strings.TrimSpace(string(onDisk)))
}

func TestProvideFilesRecoversFromMissingFile(t *testing.T) {
	pub, priv, err := ssh.GenerateAndMarshalEd25519Key("files", "")
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(privPath, []byte(priv), 0o600))
	require.NoError(t, os.WriteFile(privPath+".pub", []byte(pub+"\n"), 0o644))

	h := newHarness(t, "Skip",
		"Use existing key files", filepath.Join(dir, "missing"), "",
		"Use existing key files", privPath, "")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))

	require.NoError(t, h.workflow().Run(t.Context()))
	assert.Contains(t, h.prompter.Out.String(), "Could not read the key file")
	assert.Equal(t, pub, h.decrypt(t, secretsPath, credential.KeySSHPublicKey))
	assert.Equal(t, priv, h.decrypt(t, secretsPath, credential.KeySSHPrivateKey))
}

func TestProvideFilesMismatchWritesNothing(t *testing.T) {
	_, privA, err := ssh.GenerateAndMarshalEd25519Key("a", "")
	require.NoError(t, err)
	pubB, _, err := ssh.GenerateAndMarshalEd25519Key("b", "")
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(privPath, []byte(privA), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pub"), []byte(pubB), 0o644))

	h := newHarness(t, "Skip", "1", privPath, filepath.Join(dir, "b.pub"), "3")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	writes := len(h.docs.Writes)

	require.NoError(t, h.workflow().Run(t.Context()))
	assert.Contains(t, h.prompter.Out.String(), "does not belong")
	assert.Len(t, h.docs.Writes, writes)
}

func TestRemoveKeysClearsBothFields(t *testing.T) {
	h := newHarness(t, "Skip", "Remove")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	require.NoError(t, credential.SetPair(t.Context(), h.fields.PrivateKey, h.fields.PublicKey,
		security.FromString("old-private"), security.FromString("old-public")))

	require.NoError(t, h.workflow().Run(t.Context()))
	for _, f := range []*credential.Field{h.fields.PrivateKey, h.fields.PublicKey} {
		snap, err := f.State(t.Context())
		require.NoError(t, err)
		assert.Equal(t, credential.Placeholder, snap.State, f.Name)
	}
}

func TestBootstrapCreatesPassphraseAndWaitsForConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.Remove(h.pass.Path))
	require.NoError(t, os.WriteFile(h.opts.AnsibleConfigPath, []byte("[defaults]\n# vault_password_file = "+h.pass.Path+"\n"), 0o644))

	h.prompter.Answers = []string{"", "pw1", "pw2", "s3cret", "s3cret", "", "abc123", "Cancel"}
	h.prompter.BeforeAnswer = func(q string) {
		if strings.HasPrefix(q, "Press Enter") {
			h.writeConfig(t)
		}
	}
	h.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validator.Valid)

	require.NoError(t, h.workflow().Run(t.Context()))

	got, err := h.pass.Passphrase()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got.Reveal())
	info, err := os.Stat(h.pass.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out := h.prompter.Out.String()
	assert.Contains(t, out, "must not be empty")
	assert.Contains(t, out, "do not match")
	assert.Contains(t, out, "does not reference the passphrase file")
	assert.Contains(t, out, "vault_password_file = "+h.pass.Path)
}

func TestBootstrapTightensPassphrasePermissions(t *testing.T) {
	h := newHarness(t, "Skip", "Skip")
	require.NoError(t, os.Chmod(h.pass.Path, 0o644))
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	require.NoError(t, credential.SetPair(t.Context(), h.fields.PrivateKey, h.fields.PublicKey,
		security.FromString("p"), security.FromString("q")))

	require.NoError(t, h.workflow().Run(t.Context()))
	info, err := os.Stat(h.pass.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Contains(t, h.prompter.Out.String(), "restricted to 0600")
}

func TestDriftIsReported(t *testing.T) {
	h := newHarness(t, "Skip", "Cancel")
	require.NoError(t, h.fields.Token.Set(t.Context(), security.FromString("abc123")))
	require.NoError(t, h.docs.Upsert(inventoryPath, credential.KeyOAuthToken, store.Plain(credential.DefaultPlaceholder)))

	require.NoError(t, h.workflow().Run(t.Context()))
	assert.Contains(t, h.prompter.Out.String(), "disagree")
}

func TestCorruptBlockIsFatal(t *testing.T) {
	h := newHarness(t, "Update")
	require.NoError(t, h.docs.Seed(secretsPath, "do_api_token: !vault |\n  $ANSIBLE_VAULT;1.1;AES256\n  zz\n"))

	err := h.workflow().Run(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, vault.ErrCipher)
	assert.Empty(t, h.docs.Writes)
	assert.Equal(t, 1, h.prompter.Remaining(), "no menu shown")
}

func TestCorruptDocumentIsFatal(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "vault.yml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\na: 2\n"), 0o600))
	fs := store.NewFileStore(false)
	h.fields = credential.DefaultFields(credential.Options{SecretsPath: path, InventoryPath: filepath.Join(h.dir, "inv.yml")}, fs, h.cipher)

	err := h.workflow().Run(t.Context())
	assert.ErrorIs(t, err, store.ErrDocumentCorrupt)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "a: 1\na: 2\n", string(data))
}

func TestPartialWriteIsFatal(t *testing.T) {
	h := newHarness(t, "abc123")
	h.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validator.Valid)
	h.docs.FailUpsert = testutil.FailOn(inventoryPath, credential.KeyOAuthToken, errors.New("disk full"))

	err := h.workflow().Run(t.Context())
	var pw *credential.PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.True(t, strings.HasPrefix(err.Error(), "token step:"), err.Error())
}

func TestClosedInputIsFatal(t *testing.T) {
	h := newHarness(t)
	err := h.workflow().Run(t.Context())
	assert.ErrorIs(t, err, prompt.ErrClosed)
}

func TestFieldMenu(t *testing.T) {
	assert.Equal(t, []Action{ActionUpdate, ActionRemove, ActionSkip}, fieldMenu(credential.Present))
	assert.Nil(t, fieldMenu(credential.Absent))
	assert.Nil(t, fieldMenu(credential.Placeholder))
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "vault", StepVault.String())
	assert.Equal(t, "done", StepDone.String())
}
