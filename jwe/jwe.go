// Package jwe implements the content-encryption and key-management
// primitives needed to produce JWE Compact Serialization as defined in
// RFC 7516 (https://datatracker.ietf.org/doc/html/rfc7516), using the
// AES-CBC-HMAC authenticated encryption and AES Key Wrap algorithms from
// RFC 7518 sections 5.2 and 4.4
// (https://www.rfc-editor.org/rfc/rfc7518.html#section-5.2,
// https://www.rfc-editor.org/rfc/rfc7518.html#section-4.4).
//
// Like the signature primitives in the sibling jws package, this package
// owns only the capability of encrypting/decrypting and wrapping/unwrapping
// key material for a single resolved key. Composing the five-segment JWE
// compact string, choosing direct vs. key-wrapped mode and generating the
// content-encryption key is the github.com/halimath/jwtguard/jwt package's
// Token Builder, which treats the types here as the concrete crypto
// providers behind provider.CryptoProviderFactory.
package jwe

import "errors"

// ContentEncryptionAlgorithm names a JWE "enc" header value.
type ContentEncryptionAlgorithm string

const (
	A128CBC_HS256 ContentEncryptionAlgorithm = "A128CBC-HS256"
	A192CBC_HS384 ContentEncryptionAlgorithm = "A192CBC-HS384"
	A256CBC_HS512 ContentEncryptionAlgorithm = "A256CBC-HS512"
)

// KeyManagementAlgorithm names a JWE "alg" header value.
type KeyManagementAlgorithm string

const (
	// AlgDirect selects direct-key mode: the EncryptingCredentials key is
	// itself the content-encryption key and no key wrapping occurs.
	AlgDirect KeyManagementAlgorithm = "dir"

	AlgA128KW KeyManagementAlgorithm = "A128KW"
	AlgA192KW KeyManagementAlgorithm = "A192KW"
	AlgA256KW KeyManagementAlgorithm = "A256KW"
)

// ErrUnsupportedContentEncryption is returned when a CEK is requested for an
// enc value outside {A128CBC-HS256, A192CBC-HS384, A256CBC-HS512}.
var ErrUnsupportedContentEncryption = errors.New("jwe: unsupported content encryption algorithm")

// CEKBitSize returns the content-encryption key size, in bits, required by
// enc: 256 for A128CBC-HS256, 384 for A192CBC-HS384, 512 for A256CBC-HS512.
// The CBC-HMAC constructions use a key twice the width of the AES key
// because half of it authenticates and half encrypts (RFC 7518 §5.2.2.1).
func CEKBitSize(enc ContentEncryptionAlgorithm) (int, error) {
	switch enc {
	case A128CBC_HS256:
		return 256, nil
	case A192CBC_HS384:
		return 384, nil
	case A256CBC_HS512:
		return 512, nil
	default:
		return 0, ErrUnsupportedContentEncryption
	}
}

// KeyWrapBitSize returns the AES key-wrap key size, in bits, for alg.
func KeyWrapBitSize(alg KeyManagementAlgorithm) (int, error) {
	switch alg {
	case AlgA128KW:
		return 128, nil
	case AlgA192KW:
		return 192, nil
	case AlgA256KW:
		return 256, nil
	default:
		return 0, errors.New("jwe: unsupported key management algorithm: " + string(alg))
	}
}
