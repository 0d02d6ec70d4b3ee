// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package validator checks a DigitalOcean API token against the account
// endpoint before it is stored.
package validator

//go:generate mockgen -source=validator.go -destination=../mock/validator_mock.go -package=mock

import (
	"context"
	"fmt"

	"github.com/toeirei/vaultsetup/internal/security"
)

// Outcome is the result of a token check.
type Outcome int

const (
	Valid Outcome = iota
	// Invalid means the provider rejected the token.
	Invalid
	// NetworkError means the provider could not give an answer.
	NetworkError
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case NetworkError:
		return "network error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// TokenValidator checks a candidate API token.
type TokenValidator interface {
	Validate(ctx context.Context, token security.Secret) Outcome
}
