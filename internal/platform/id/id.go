// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are random UUIDv4 bytes encoded as base32 (RFC 4648) with no
// padding. The resulting strings are 26 characters long, lowercase, and safe
// for use in message text, URLs, and file paths.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New generates a 26-character lowercase identifier.
func New() (string, error) {
	raw, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(raw[:])), nil
}
