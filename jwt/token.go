package jwt

import (
	"regexp"

	"github.com/halimath/jwtguard/jws"
)

// maximumTokenSizeInBytes bounds Read and Validate. canRead applies the
// bound to len(s)*2 to account for the UTF-16 worst-case counting inherited
// from the system this handler was modeled on; Read itself compares against
// len(s). This asymmetry is deliberate, not a bug — see DESIGN.md.
const maximumTokenSizeInBytes = 1 << 20 // 1 MiB

var (
	jwsSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)
	jweSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)
)

// ProtectedHeader exposes the subset of JOSE header parameters the core
// cares about. It is decoded once by the Token Reader and is immutable
// thereafter.
type ProtectedHeader struct {
	Algorithm jws.SignatureAlgorithm
	Enc       string
	KeyID     string
	X5T       string
	Type      string
}

// CompactToken is the parsed, but not yet validated, representation of a
// JWS or JWE compact string. It owns its raw string and decoded header;
// the header and raw segments are immutable once constructed by the Token
// Reader, while the claims of a JWE and the signing key are filled in
// later by the Validator.
type CompactToken struct {
	raw    string
	header ProtectedHeader
	isJWE  bool
	claims Claims

	// JWS segments
	rawHeader    string
	rawPayload   string
	rawSignature string

	// JWE segments (only rawHeader above plus these four)
	rawEncryptedKey string
	rawIV           string
	rawCiphertext   string
	rawTag          string

	// signingKey, when non-empty, names the key identifier that successfully
	// verified this token's signature. It is populated by the Validator,
	// never by the Reader.
	signingKey string
}

// Header returns the token's decoded protected header.
func (t *CompactToken) Header() ProtectedHeader {
	return t.header
}

// IsJWE reports whether the token was parsed as a five-segment JWE.
func (t *CompactToken) IsJWE() bool {
	return t.isJWE
}

// Raw returns the original compact string the token was parsed from.
func (t *CompactToken) Raw() string {
	return t.raw
}

// Claims returns the token's claims. For a JWS this is available
// immediately after Read; for a JWE it is empty until the caller decrypts
// the token and calls SetClaims.
func (t *CompactToken) Claims() Claims {
	return t.claims
}

// SetClaims installs claims decoded after decrypting a JWE token's
// ciphertext. It is a no-op for callers that never decrypt.
func (t *CompactToken) SetClaims(claims Claims) {
	t.claims = claims
}

// SigningKey returns the identifier of the key that verified this token's
// signature, or the empty string if the token is unsigned, not yet
// validated, or was verified by a key that exposes no ID (such as a raw
// []byte or *rsa.PublicKey).
func (t *CompactToken) SigningKey() string {
	return t.signingKey
}
