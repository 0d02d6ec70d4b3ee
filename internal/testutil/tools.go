// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeAnsibleVault mimics "ansible-vault encrypt|decrypt ... --output - FILE"
// with base64 standing in for the real cipher.
const fakeAnsibleVault = `#!/bin/sh
op="$1"
for a in "$@"; do last="$a"; done
case "$op" in
encrypt) printf '$ANSIBLE_VAULT;1.1;AES256\n'; base64 < "$last" ;;
decrypt) tail -n +2 "$last" | base64 -d ;;
*) echo "unknown op" >&2; exit 2 ;;
esac
`

// fakeSSHKeygen only satisfies the PATH lookup; sessions that generate keys
// use the native generator in tests.
const fakeSSHKeygen = `#!/bin/sh
echo "ssh-keygen stand-in: generation is not scripted" >&2
exit 1
`

// InstallFakeTools puts stand-ins for ansible-vault and ssh-keygen in front
// of PATH for the rest of the test. The tools are skipped on platforms
// without a POSIX shell.
func InstallFakeTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes")
	}
	if _, err := exec.LookPath("base64"); err != nil {
		t.Skip("base64 not available")
	}
	dir := t.TempDir()
	for name, script := range map[string]string{
		"ansible-vault": fakeAnsibleVault,
		"ssh-keygen":    fakeSSHKeygen,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write fake %s: %v", name, err)
		}
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
