package jwt

import (
	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/jws"
	"github.com/halimath/jwtguard/provider"
)

// SigningCredentials bundles the key material and algorithm used to sign a
// token. It is supplied by the caller and borrowed, never mutated; it is
// expected to outlive any single Build call.
type SigningCredentials struct {
	Key       any
	Algorithm jws.SignatureAlgorithm

	// CryptoProviderFactory, when set, overrides the package-level default
	// factory for this signing operation.
	CryptoProviderFactory provider.CryptoProviderFactory
}

// EncryptingCredentials bundles the key material and algorithms used to
// produce a JWE. Enc must be one of jwe.A128CBC_HS256, jwe.A192CBC_HS384 or
// jwe.A256CBC_HS512 whenever Alg is not jwe.AlgDirect; in direct mode Key
// itself directly serves as the content-encryption key.
type EncryptingCredentials struct {
	Key any
	Alg jwe.KeyManagementAlgorithm
	Enc jwe.ContentEncryptionAlgorithm

	CryptoProviderFactory provider.CryptoProviderFactory
}

func (sc *SigningCredentials) factory() provider.CryptoProviderFactory {
	if sc.CryptoProviderFactory != nil {
		return sc.CryptoProviderFactory
	}
	return provider.Default
}

func (ec *EncryptingCredentials) factory() provider.CryptoProviderFactory {
	if ec.CryptoProviderFactory != nil {
		return ec.CryptoProviderFactory
	}
	return provider.Default
}
