package jwk

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"fmt"

	"github.com/halimath/jwtguard/internal/encoding"
)

// KeyTypeX509 identifies a Key backed by an X.509 certificate. RFC 7518
// does not define this as a "kty" value; it exists here so the signing-key
// resolver can carry a certificate alongside its thumbprint without forcing
// callers to extract the raw RSA/EC public key themselves.
const KeyTypeX509 KeyType = "X509"

// X509Key wraps an X.509 certificate so it can participate as a Key in a
// Set and be matched against a JWS "x5t" header parameter.
type X509Key struct {
	KeyDescription
	Certificate *x509.Certificate
}

func (k *X509Key) Type() KeyType {
	return KeyTypeX509
}

// Thumbprint returns the base64url-encoded SHA-1 digest of the certificate's
// DER encoding, matching the "x5t" header parameter as defined in
// RFC 7515 section 4.1.7.
func (k *X509Key) Thumbprint() string {
	sum := sha1.Sum(k.Certificate.Raw)
	return encoding.Encode(sum[:])
}

// PublicKey returns the certificate's public key as a verification key
// usable by the RSA or ECDSA signature providers.
func (k *X509Key) PublicKey() (any, error) {
	switch pub := k.Certificate.PublicKey.(type) {
	case *rsa.PublicKey:
		return pub, nil
	default:
		return pub, nil
	}
}

func (k *X509Key) MarshalJSON() ([]byte, error) {
	return nil, fmt.Errorf("jwk: X509Key does not support JWK JSON serialization")
}
