// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for vaultsetup.
//
// Usage:
//
//	go run .
//	./vaultsetup [--version]
//
// This launches the interactive secrets setup in the current directory.
package main

import (
	"os"

	"github.com/toeirei/vaultsetup/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
