// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package validator

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/security"
)

const (
	// DefaultBaseURL is the public DigitalOcean API.
	DefaultBaseURL = "https://api.digitalocean.com"
	// DefaultTimeout bounds a single check.
	DefaultTimeout = 5 * time.Second

	accountPath = "/v2/account"
)

type accountResponse struct {
	Account struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	} `json:"account"`
}

// DigitalOcean validates tokens with GET /v2/account.
type DigitalOcean struct {
	client *resty.Client
}

// NewDigitalOcean returns a validator for baseURL. A zero timeout uses
// DefaultTimeout.
func NewDigitalOcean(baseURL string, timeout time.Duration) *DigitalOcean {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{}).
		SetHeader("Accept", "application/json")
	return &DigitalOcean{client: client}
}

func (d *DigitalOcean) Validate(ctx context.Context, token security.Secret) Outcome {
	var body accountResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetAuthToken(token.Reveal()).
		SetResult(&body).
		Get(accountPath)
	if err != nil {
		logging.Warnf("token check could not reach %s: %v", d.client.BaseURL, err)
		return NetworkError
	}

	code := resp.StatusCode()
	switch {
	case resp.IsSuccess():
		if body.Account.Email != "" {
			logging.Infof("token accepted for account %s", body.Account.Email)
		} else {
			logging.Infof("token accepted")
		}
		return Valid
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		logging.Warnf("token check unavailable: provider answered %d", code)
		return NetworkError
	default:
		logging.Warnf("token rejected: provider answered %d", code)
		return Invalid
	}
}

// restyLogger routes resty's own diagnostics through the shared logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { logging.Errorf(format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { logging.Warnf(format, v...) }
func (restyLogger) Debugf(format string, v ...any) { logging.Debugf(format, v...) }
