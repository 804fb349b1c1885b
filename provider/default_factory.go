package provider

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/jwk"
	"github.com/halimath/jwtguard/jws"
)

// Default is the package-level CryptoProviderFactory used whenever a caller
// does not supply its own. It covers the algorithms the sibling jws and jwe
// packages implement, resolving jwk.Key wrappers to the raw crypto material
// those packages expect.
var Default CryptoProviderFactory = &DefaultCryptoProviderFactory{}

// DefaultCryptoProviderFactory wires the stdlib-backed signature, AEAD and
// key-wrap implementations in jws and jwe behind the facade interfaces. It
// keeps no per-call state, so Release is a no-op; a factory backed by a
// remote KMS would override it to return pooled connections.
type DefaultCryptoProviderFactory struct{}

func rawKey(key any) any {
	switch k := key.(type) {
	case *jwk.RSAPublicKey:
		return k.PublicKey
	case *jwk.ECDSAPublicKey:
		return k.PublicKey
	case *jwk.SymmetricKey:
		return k.Bytes
	case *jwk.X509Key:
		if pub, err := k.PublicKey(); err == nil {
			return pub
		}
		return key
	default:
		return key
	}
}

func (f *DefaultCryptoProviderFactory) IsSupportedAlgorithm(alg string, key any) bool {
	switch rawKey(key).(type) {
	case []byte:
		switch jws.SignatureAlgorithm(alg) {
		case jws.ALG_HS256, jws.ALG_HS384, jws.ALG_HS512, jws.ALG_NONE:
			return true
		}
		switch jwe.ContentEncryptionAlgorithm(alg) {
		case jwe.A128CBC_HS256, jwe.A192CBC_HS384, jwe.A256CBC_HS512:
			return true
		}
		switch jwe.KeyManagementAlgorithm(alg) {
		case jwe.AlgDirect, jwe.AlgA128KW, jwe.AlgA192KW, jwe.AlgA256KW:
			return true
		}
	case *rsa.PrivateKey, *rsa.PublicKey:
		switch jws.SignatureAlgorithm(alg) {
		case jws.ALG_RS256, jws.ALG_RS384, jws.ALG_RS512:
			return true
		}
	case *ecdsa.PrivateKey, *ecdsa.PublicKey:
		switch jws.SignatureAlgorithm(alg) {
		case jws.ALG_ES256, jws.ALG_ES384, jws.ALG_ES512:
			return true
		}
	}
	return false
}

type signatureProviderAdapter struct {
	signer   jws.Signer
	verifier jws.Verifier
	alg      jws.SignatureAlgorithm
}

func (a *signatureProviderAdapter) Sign(data []byte) ([]byte, error) {
	if a.signer == nil {
		return nil, fmt.Errorf("%w: no signer configured", ErrUnsupportedAlgorithm)
	}
	return a.signer.Sign(data)
}

func (a *signatureProviderAdapter) Verify(data, signature []byte) error {
	if a.verifier == nil {
		return fmt.Errorf("%w: no verifier configured", ErrUnsupportedAlgorithm)
	}
	return a.verifier.Verify(a.alg, data, signature)
}

// VerifyContext runs the verification synchronously. The stdlib crypto
// primitives behind this factory never block on I/O, so there is nothing to
// suspend; a KMS-backed factory would check ctx before its network call.
func (a *signatureProviderAdapter) VerifyContext(ctx context.Context, data, signature []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return a.Verify(data, signature)
}

func (f *DefaultCryptoProviderFactory) SigningProviderFor(key any, alg string) (SignatureProvider, error) {
	a := jws.SignatureAlgorithm(alg)
	raw := rawKey(key)

	switch k := raw.(type) {
	case []byte:
		sv, err := jws.HSSignerVerifier(a, k)
		if err != nil {
			return nil, err
		}
		return &signatureProviderAdapter{signer: sv, alg: a}, nil

	case *rsa.PrivateKey:
		var signer jws.Signer
		switch a {
		case jws.ALG_RS256:
			signer = jws.RS256Signer(k)
		case jws.ALG_RS384:
			signer = jws.RS384Signer(k)
		case jws.ALG_RS512:
			signer = jws.RS512Signer(k)
		default:
			return nil, fmt.Errorf("%w: %s for RSA key", ErrUnsupportedAlgorithm, alg)
		}
		return &signatureProviderAdapter{signer: signer, alg: a}, nil

	case *ecdsa.PrivateKey:
		var signer jws.Signer
		var err error
		switch a {
		case jws.ALG_ES256:
			signer, err = jws.ES256Signer(k)
		case jws.ALG_ES384:
			signer, err = jws.ES384Signer(k)
		case jws.ALG_ES512:
			signer, err = jws.ES512Signer(k)
		default:
			return nil, fmt.Errorf("%w: %s for ECDSA key", ErrUnsupportedAlgorithm, alg)
		}
		if err != nil {
			return nil, err
		}
		return &signatureProviderAdapter{signer: signer, alg: a}, nil

	default:
		if a == jws.ALG_NONE {
			return &signatureProviderAdapter{signer: jws.None(), alg: a}, nil
		}
		return nil, fmt.Errorf("%w: key type %T does not support %s", ErrUnsupportedAlgorithm, key, alg)
	}
}

func (f *DefaultCryptoProviderFactory) VerifyingProviderFor(key any, alg string) (SignatureProvider, error) {
	a := jws.SignatureAlgorithm(alg)
	raw := rawKey(key)

	switch k := raw.(type) {
	case []byte:
		sv, err := jws.HSSignerVerifier(a, k)
		if err != nil {
			return nil, err
		}
		return &signatureProviderAdapter{verifier: sv, alg: a}, nil

	case *rsa.PublicKey:
		v, err := jws.RSVerifier(a, k)
		if err != nil {
			return nil, err
		}
		return &signatureProviderAdapter{verifier: v, alg: a}, nil

	case *rsa.PrivateKey:
		v, err := jws.RSVerifier(a, &k.PublicKey)
		if err != nil {
			return nil, err
		}
		return &signatureProviderAdapter{verifier: v, alg: a}, nil

	case *ecdsa.PublicKey:
		var v jws.Verifier
		var err error
		switch a {
		case jws.ALG_ES256:
			v, err = jws.ES256Verifier(k)
		case jws.ALG_ES384:
			v, err = jws.ES384Verifier(k)
		case jws.ALG_ES512:
			v, err = jws.ES512Verifier(k)
		default:
			return nil, fmt.Errorf("%w: %s for ECDSA key", ErrUnsupportedAlgorithm, alg)
		}
		if err != nil {
			return nil, err
		}
		return &signatureProviderAdapter{verifier: v, alg: a}, nil

	case *ecdsa.PrivateKey:
		return f.VerifyingProviderFor(&k.PublicKey, alg)

	default:
		if a == jws.ALG_NONE {
			return &signatureProviderAdapter{verifier: jws.None(), alg: a}, nil
		}
		return nil, fmt.Errorf("%w: key type %T does not support %s", ErrUnsupportedAlgorithm, key, alg)
	}
}

func (f *DefaultCryptoProviderFactory) EncryptionProviderFor(key any, enc string) (AuthenticatedEncryptionProvider, error) {
	cek, ok := rawKey(key).([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: content encryption requires a symmetric key, got %T", ErrUnsupportedAlgorithm, key)
	}
	return jwe.NewAEADProvider(jwe.ContentEncryptionAlgorithm(enc), cek)
}

func (f *DefaultCryptoProviderFactory) KeyWrapProviderFor(key any, alg string) (KeyWrapProvider, error) {
	kek, ok := rawKey(key).([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: key wrapping requires a symmetric key, got %T", ErrUnsupportedAlgorithm, key)
	}
	return jwe.NewKeyWrapProvider(jwe.KeyManagementAlgorithm(alg), kek)
}

// Release is a no-op: the stdlib-backed providers hold no external
// resources to return.
func (f *DefaultCryptoProviderFactory) Release(p any) {}
