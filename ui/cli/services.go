// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/toeirei/vaultsetup/internal/config"
	"github.com/toeirei/vaultsetup/internal/credential"
	"github.com/toeirei/vaultsetup/internal/i18n"
	"github.com/toeirei/vaultsetup/internal/keysource"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/prereq"
	"github.com/toeirei/vaultsetup/internal/prompt"
	"github.com/toeirei/vaultsetup/internal/store"
	"github.com/toeirei/vaultsetup/internal/validator"
	"github.com/toeirei/vaultsetup/internal/vault"
	"github.com/toeirei/vaultsetup/internal/workflow"
)

func run(cmd *cobra.Command) error {
	cfg, err := setupDefaultServices(cmd)
	if err != nil {
		return err
	}
	wf, err := buildWorkflow(cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return wf.Run(cmd.Context())
}

// setupDefaultServices loads the configuration and initializes logging and
// i18n from it. On first run the resolved configuration is written to the
// user config path so later runs have a file to inspect.
func setupDefaultServices(cmd *cobra.Command) (config.Config, error) {
	cfg, used, err := config.LoadConfig[config.Config](cmd, config.Defaults(), nil)
	if err != nil {
		return cfg, fmt.Errorf("error loading config: %w", err)
	}

	logging.SetDebug(cfg.Debug || logging.DebugFromEnv())
	if err := i18n.Init(cfg.Language); err != nil {
		return cfg, err
	}
	logging.Debugf("language %s, vault backend %s, keygen backend %s", i18n.Lang(), cfg.Vault.Backend, cfg.Keygen.Backend)

	if used == "" {
		path, err := config.WriteConfigFile(&cfg, false)
		if err != nil {
			// the run can go on with defaults
			logging.Warnf("could not write default config file: %v", err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.config_written", path))
		}
	} else {
		logging.Debugf("using config %s", used)
	}
	return cfg, nil
}

// newCipher returns the vault backend selected by cfg.
func newCipher(cfg config.Config, pass vault.PassphraseFile) vault.Cipher {
	if cfg.Vault.Backend == config.BackendAnsibleVault {
		return vault.NewExec(cfg.Vault.Binary, pass.Path)
	}
	return vault.NewNative(pass)
}

// newGenerator returns the key generator selected by cfg.
func newGenerator(cfg config.Config) keysource.Generator {
	if cfg.Keygen.Backend == config.BackendSSHKeygen {
		return keysource.SSHKeygen{Binary: cfg.Keygen.Binary, Comment: cfg.Keygen.Comment}
	}
	return keysource.Native{Comment: cfg.Keygen.Comment}
}

// buildWorkflow wires the collaborators of a setup session. External tools
// are checked before anything on disk is touched.
func buildWorkflow(cfg config.Config, in io.Reader, out io.Writer) (*workflow.Workflow, error) {
	pass := vault.PassphraseFile{Path: cfg.Paths.Passphrase}
	cipher := newCipher(cfg, pass)
	gen := newGenerator(cfg)

	tools := append(cipher.Requires(), gen.Requires()...)
	if err := prereq.Check(tools...); err != nil {
		return nil, err
	}

	docs := store.NewFileStore(cfg.Store.Backup)
	fields := credential.DefaultFields(credential.Options{
		SecretsPath:   cfg.Paths.Secrets,
		InventoryPath: cfg.Paths.Inventory,
		Placeholder:   cfg.Placeholder,
		VaultID:       cfg.Vault.ID,
	}, docs, cipher)

	return workflow.New(workflow.Options{
		AnsibleConfigPath: cfg.Paths.AnsibleConfig,
		KeyPath:           cfg.Keygen.Path,
		Clipboard:         cfg.Clipboard,
	},
		pass,
		fields,
		validator.NewDigitalOcean(cfg.Validator.BaseURL, cfg.Validator.Timeout),
		gen,
		prompt.NewTerminal(in, out),
	), nil
}

// PrintError writes the one-line report for a fatal error, plus a hint when
// external tools are missing.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, prompt.Error(i18n.T("cli.fatal", err)))
	if errors.Is(err, prereq.ErrMissing) {
		fmt.Fprintln(w, i18n.T("cli.prereq_missing"))
	}
}
