// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the vaultsetup command using Cobra. It loads the
// configuration, builds the stores, ciphers and prompters the configuration
// selects and hands them to the setup workflow. CLI code should remain thin
// and delegate the actual work to the internal packages.
package cli
