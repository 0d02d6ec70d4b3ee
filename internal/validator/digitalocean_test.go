// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/security"
)

func TestDigitalOceanOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Outcome
		log    string
	}{
		{"ok", http.StatusOK, `{"account":{"email":"ops@example.com","status":"active"}}`, Valid, "ops@example.com"},
		{"unauthorized", http.StatusUnauthorized, `{"id":"unauthorized"}`, Invalid, "token rejected"},
		{"forbidden", http.StatusForbidden, ``, Invalid, "token rejected"},
		{"rate limited", http.StatusTooManyRequests, ``, NetworkError, "unavailable"},
		{"server error", http.StatusBadGateway, ``, NetworkError, "unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotAuth, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			var logs bytes.Buffer
			restore := logging.SetOutput(&logs)
			defer restore()

			got := NewDigitalOcean(srv.URL, time.Second).Validate(t.Context(), security.FromString("dop_v1_secret"))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, "Bearer dop_v1_secret", gotAuth)
			assert.Equal(t, "/v2/account", gotPath)
			assert.Contains(t, logs.String(), tc.log)
			assert.NotContains(t, logs.String(), "dop_v1_secret")
		})
	}
}

func TestDigitalOceanTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	got := NewDigitalOcean(srv.URL, 50*time.Millisecond).Validate(t.Context(), security.FromString("tok"))
	assert.Equal(t, NetworkError, got)
}

func TestDigitalOceanUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := NewDigitalOcean(url, time.Second).Validate(t.Context(), security.FromString("tok"))
	assert.Equal(t, NetworkError, got)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "network error", NetworkError.String())
}
