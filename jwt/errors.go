package jwt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per error kind. Callers distinguish failure modes
// with errors.Is, never by inspecting error strings.
var (
	ErrInvalidArgument      = errors.New("jwt: invalid argument")
	ErrMalformedToken       = errors.New("jwt: malformed token")
	ErrInvalidSignature     = errors.New("jwt: invalid signature")
	ErrSignatureKeyNotFound = errors.New("jwt: signature verification key not found")
	ErrEncryptionFailed     = errors.New("jwt: encryption failed")
	ErrInvalidLifetime      = errors.New("jwt: invalid lifetime")
	ErrInvalidAudience      = errors.New("jwt: invalid audience")
	ErrInvalidIssuer        = errors.New("jwt: invalid issuer")
	ErrInvalidSigningKey    = errors.New("jwt: invalid signing key")
	ErrTokenReplayDetected  = errors.New("jwt: token replay detected")
	ErrNotSupported         = errors.New("jwt: not supported")
)

// keyAttempt records the outcome of trying a single candidate key during
// signature verification, so the aggregate failure report can name every
// key that was tried and every error it produced.
type keyAttempt struct {
	keyID string
	err   error
}

// signatureTrialReport accumulates the per-key attempts for Phase 1 of
// Validate. It never aborts the trial loop; failures are recorded and the
// loop continues to the next candidate so every configured key gets a
// chance before the whole verification is declared a failure.
type signatureTrialReport struct {
	attempts []keyAttempt
	kidMatch bool
}

func (r *signatureTrialReport) record(keyID string, err error) {
	r.attempts = append(r.attempts, keyAttempt{keyID: keyID, err: err})
}

func (r *signatureTrialReport) err(kid string) error {
	if len(r.attempts) == 0 {
		return fmt.Errorf("%w: no keys configured", ErrInvalidSignature)
	}

	if kid != "" && !r.kidMatch {
		return fmt.Errorf("%w: kid %q matched no configured key", ErrSignatureKeyNotFound, kid)
	}

	var sb strings.Builder
	for i, a := range r.attempts {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "key %q: %s", a.keyID, a.err)
	}

	return fmt.Errorf("%w: %s", ErrInvalidSignature, sb.String())
}
