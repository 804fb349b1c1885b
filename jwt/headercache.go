package jwt

import (
	"strconv"
	"sync"

	"github.com/halimath/jwtguard/jws"
)

// HeaderCache is a process-wide concurrent mapping from signing-credential
// fingerprint to a precomputed, base64url-encoded header string. It exists
// to avoid repeated JSON serialization on hot signing paths.
//
// Entries never expire; the cache is bounded only by process memory. That
// is an explicit, not accidental, property: distinct fingerprints are few
// in any one process, and sync.Map already gives lock-free reads for the
// common case of a handful of signing credentials reused across many
// Build calls.
type HeaderCache struct {
	entries sync.Map // fingerprint string -> encoded header string
}

// NewHeaderCache returns an empty HeaderCache. Tests that need isolation
// from other callers should construct their own instance rather than use
// DefaultHeaderCache.
func NewHeaderCache() *HeaderCache {
	return &HeaderCache{}
}

// DefaultHeaderCache is the shared instance used by Build when no explicit
// cache is supplied, offered for ergonomics.
var DefaultHeaderCache = NewHeaderCache()

// GetOrEncode returns the cached encoded header for fingerprint, computing
// it via encode and storing the result if absent. Multiple goroutines may
// race to compute the same fingerprint's header; because identical signing
// credentials always produce byte-identical header JSON, this is harmless —
// the first successful LoadOrStore wins and the other computations are
// simply discarded. At-most-one computation per fingerprint is not
// guaranteed, only at-most-one stored result.
func (c *HeaderCache) GetOrEncode(fingerprint string, encode func() string) string {
	if v, ok := c.entries.Load(fingerprint); ok {
		return v.(string)
	}

	computed := encode()
	actual, _ := c.entries.LoadOrStore(fingerprint, computed)
	return actual.(string)
}

// Fingerprint derives a deterministic identifier for sc sufficient to cache
// its encoded header: keyId || algorithm || a cheap identity of the key
// material itself ("oct:" plus the length for a []byte key, the constant
// "ptr" for every other key type), without hashing key material into a
// process-wide map.
func Fingerprint(sc *SigningCredentials) string {
	kid, _ := keyID(sc.Key)
	return kid + "|" + string(sc.Algorithm) + "|" + keyIdentity(sc.Key)
}

func keyID(key any) (string, bool) {
	type hasKeyID interface{ ID() string }
	if k, ok := key.(hasKeyID); ok {
		return k.ID(), true
	}
	return "", false
}

func keyIdentity(key any) string {
	switch k := key.(type) {
	case []byte:
		return "oct:" + strconv.Itoa(len(k))
	default:
		return "ptr"
	}
}

// encodeHeader builds and base64url-encodes the JOSE header for a signing
// (or signing+encrypting) operation, consulting cache when non-nil.
func encodeHeader(cache *HeaderCache, sc *SigningCredentials, enc string) string {
	if cache == nil {
		cache = DefaultHeaderCache
	}

	fingerprint := Fingerprint(sc)
	if enc != "" {
		fingerprint += "|enc:" + enc
	}

	return cache.GetOrEncode(fingerprint, func() string {
		kid, _ := keyID(sc.Key)
		h := jws.Header{
			Algorithm: sc.Algorithm,
			Type:      "JWT",
			KeyID:     kid,
			Enc:       enc,
		}
		return h.Encode()
	})
}

// EncryptionFingerprint derives a deterministic identifier for ec sufficient
// to cache its JWE protected header, mirroring Fingerprint's scheme for
// signing credentials.
func EncryptionFingerprint(ec *EncryptingCredentials) string {
	kid, _ := keyID(ec.Key)
	return kid + "|" + string(ec.Alg) + "|" + string(ec.Enc) + "|" + keyIdentity(ec.Key)
}

// encodeJWEHeader builds and base64url-encodes the outer JWE protected
// header naming ec's key-management ("alg") and content-encryption ("enc")
// algorithms, consulting cache when non-nil. This is independent of any
// inner JWS header: the JWE "alg" (e.g. "dir", "A128KW") and the JWS
// signing "alg" (e.g. "HS256", "RS256") are different namespaces and are
// never the same header value.
func encodeJWEHeader(cache *HeaderCache, ec *EncryptingCredentials) string {
	if cache == nil {
		cache = DefaultHeaderCache
	}

	fingerprint := "jwe|" + EncryptionFingerprint(ec)

	return cache.GetOrEncode(fingerprint, func() string {
		kid, _ := keyID(ec.Key)
		h := jws.Header{
			Algorithm: jws.SignatureAlgorithm(ec.Alg),
			Type:      "JWT",
			KeyID:     kid,
			Enc:       string(ec.Enc),
		}
		return h.Encode()
	})
}
