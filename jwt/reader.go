package jwt

import (
	"fmt"
	"strings"

	"github.com/halimath/jwtguard/internal/encoding"
	"github.com/halimath/jwtguard/jws"
)

// TokenReader parses a compact JWS or JWE string into a CompactToken.
// ValidationParameters.TokenReader lets a caller substitute its own reader
// (for instance one backed by a different header cache or a test double);
// Validate falls back to DefaultTokenReader when none is supplied.
type TokenReader interface {
	CanRead(s string) bool
	Read(s string) (*CompactToken, error)
}

// DefaultTokenReader is the built-in TokenReader, stateless and safe for
// concurrent use.
var DefaultTokenReader TokenReader = defaultTokenReader{}

type defaultTokenReader struct{}

// CanRead reports whether s is structurally a 3-segment JWS or 5-segment
// JWE without decoding it. The size check intentionally doubles len(s) —
// see maximumTokenSizeInBytes's doc comment.
func (defaultTokenReader) CanRead(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	if len(s)*2 > maximumTokenSizeInBytes {
		return false
	}

	segments := strings.SplitN(s, ".", 6)
	switch len(segments) {
	case 3:
		return jwsSegmentPattern.MatchString(s)
	case 5:
		return jweSegmentPattern.MatchString(s)
	default:
		return false
	}
}

// Read parses s into a CompactToken. For a JWS it also decodes the payload
// into claims; for a JWE only the header is decoded, since the payload is
// unavailable until the caller decrypts it.
func (defaultTokenReader) Read(s string) (*CompactToken, error) {
	if len(s) > maximumTokenSizeInBytes {
		return nil, fmt.Errorf("%w: token exceeds maximum size of %d bytes", ErrInvalidArgument, maximumTokenSizeInBytes)
	}
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}

	segments := strings.SplitN(s, ".", 6)

	switch len(segments) {
	case 3:
		return readJWS(s, segments)
	case 5:
		return readJWE(s, segments)
	default:
		return nil, fmt.Errorf("%w: expected 3 or 5 segments, got %d", ErrMalformedToken, len(segments))
	}
}

func decodeHeader(raw string) (*jws.Header, error) {
	h, err := jws.DecodeHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedToken, err)
	}
	return h, nil
}

func protectedHeaderFrom(h *jws.Header) ProtectedHeader {
	return ProtectedHeader{
		Algorithm: h.Algorithm,
		Enc:       h.Enc,
		KeyID:     h.KeyID,
		X5T:       h.X5T,
		Type:      h.Type,
	}
}

func readJWS(raw string, segments []string) (*CompactToken, error) {
	if !jwsSegmentPattern.MatchString(raw) {
		return nil, fmt.Errorf("%w: malformed JWS segments", ErrMalformedToken)
	}

	h, err := decodeHeader(segments[0])
	if err != nil {
		return nil, err
	}

	var claims Claims
	if len(segments[1]) > 0 {
		payload, err := encoding.Decode(segments[1])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid payload encoding: %s", ErrMalformedToken, err)
		}
		claims, err = UnmarshalClaims(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid payload JSON: %s", ErrMalformedToken, err)
		}
	} else {
		claims = Claims{}
	}

	return &CompactToken{
		raw:          raw,
		header:       protectedHeaderFrom(h),
		isJWE:        false,
		claims:       claims,
		rawHeader:    segments[0],
		rawPayload:   segments[1],
		rawSignature: segments[2],
	}, nil
}

func readJWE(raw string, segments []string) (*CompactToken, error) {
	if !jweSegmentPattern.MatchString(raw) {
		return nil, fmt.Errorf("%w: malformed JWE segments", ErrMalformedToken)
	}

	h, err := decodeHeader(segments[0])
	if err != nil {
		return nil, err
	}

	return &CompactToken{
		raw:             raw,
		header:          protectedHeaderFrom(h),
		isJWE:           true,
		rawHeader:       segments[0],
		rawEncryptedKey: segments[1],
		rawIV:           segments[2],
		rawCiphertext:   segments[3],
		rawTag:          segments[4],
	}, nil
}
