// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package prereq checks that external tools are installed before anything
// is changed on disk.
package prereq

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrMissing is matched by every *MissingError.
var ErrMissing = errors.New("required tool missing")

// MissingError lists the tools that could not be found.
type MissingError struct {
	Tools []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required tool(s) not found on PATH: %s", strings.Join(e.Tools, ", "))
}

func (e *MissingError) Is(target error) bool { return target == ErrMissing }

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Check looks every tool up on PATH. Duplicates and empty names are
// ignored.
func Check(tools ...string) error {
	seen := make(map[string]bool)
	var missing []string
	for _, t := range tools {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if _, err := lookPath(t); err != nil {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Tools: missing}
	}
	return nil
}
