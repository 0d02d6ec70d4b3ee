// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !windows

package cleanup

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExit replaces the process exit with a channel receiving the code.
func stubExit(t *testing.T) <-chan int {
	t.Helper()
	codes := make(chan int, 1)
	prev := exit
	exit = func(code int) { codes <- code }
	t.Cleanup(func() { exit = prev })
	return codes
}

func waitExit(t *testing.T, codes <-chan int) int {
	t.Helper()
	select {
	case code := <-codes:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler did not exit")
		return 0
	}
}

// TestInterruptRemovesStagedFiles sends a real SIGINT to the test process and
// checks that staged files are gone and the interrupt hooks ran first.
func TestInterruptRemovesStagedFiles(t *testing.T) {
	codes := stubExit(t)

	signalHandlerMutex.Lock()
	signalHandlerInstalled = false
	signalHandlerMutex.Unlock()
	InstallSignalHandler()

	f, release, err := CreateTemp(t.TempDir(), "plaintext-*")
	require.NoError(t, err)
	defer release()
	_, err = f.WriteString("abc123")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	hookSawFile := make(chan bool, 1)
	remove := OnInterrupt(func() {
		_, err := os.Stat(f.Name())
		hookSawFile <- err == nil
	})
	defer remove()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	assert.Equal(t, 130, waitExit(t, codes))
	assert.True(t, <-hookSawFile, "hooks run before files are removed")
	assert.NoFileExists(t, f.Name())
	assert.Empty(t, Pending())
}

func TestTerminateExitCode(t *testing.T) {
	codes := stubExit(t)
	dir := t.TempDir()
	f, _, err := CreateTemp(dir, "blob-*")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	go handleSignal(syscall.SIGTERM)

	assert.Equal(t, 143, waitExit(t, codes))
	assert.NoFileExists(t, f.Name())
}

func TestRemovedHookDoesNotRun(t *testing.T) {
	codes := stubExit(t)
	ran := false
	remove := OnInterrupt(func() { ran = true })
	remove()

	go handleSignal(syscall.SIGINT)

	assert.Equal(t, 130, waitExit(t, codes))
	assert.False(t, ran)
}
