package token

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a stored token fails local inspection.
var ErrMalformed = errors.New("malformed bearer token")

const maxTokenLen = 64 * 1024

// Info is the subset of claims extracted during unverified parsing. Zero
// timestamps mean the claim was absent.
type Info struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect parses tokenStr as a JWT without signature verification and
// returns its registered claims. Structure errors — wrong segment count,
// bad base64, bad JSON — return [ErrMalformed].
func Inspect(tokenStr string) (*Info, error) {
	if err := InspectLoose(tokenStr); err != nil {
		return nil, err
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	info := &Info{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}

// InspectLoose checks only that tokenStr is a plausible opaque credential:
// non-empty, bounded, no whitespace or control characters. Used when the
// backend issues non-JWT tokens.
func InspectLoose(tokenStr string) error {
	if tokenStr == "" || len(tokenStr) > maxTokenLen {
		return ErrMalformed
	}
	if strings.IndexFunc(tokenStr, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return ErrMalformed
	}
	return nil
}

// Expired reports whether info carries an exp claim in the past. Tokens
// without an exp claim never expire locally; the backend decides.
func Expired(info *Info, now time.Time) bool {
	if info == nil || info.ExpiresAt.IsZero() {
		return false
	}
	return info.ExpiresAt.Before(now)
}
