package jwt

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/halimath/jwtguard/internal/encoding"
	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/provider"
)

// BuildOption customizes a single Build/BuildContext call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	cache        *HeaderCache
	presetHeader *string
}

// WithHeaderCache routes header encoding through cache instead of
// DefaultHeaderCache. Tests that need isolation from other callers should
// use this with a freshly constructed cache.
func WithHeaderCache(cache *HeaderCache) BuildOption {
	return func(o *buildOptions) { o.cache = cache }
}

// WithEncodedHeader injects an already base64url-encoded header, skipping
// header construction and the cache entirely. The provided string is used
// verbatim, including as the JWE AAD when encrypting is requested. This
// exists for test fixtures that need to pin an exact header byte sequence.
func WithEncodedHeader(encodedHeader string) BuildOption {
	return func(o *buildOptions) { o.presetHeader = &encodedHeader }
}

const emptyHeaderJSON = "{}"

// Build composes payload, optionally signed with sc and optionally
// encrypted with ec, into a JWS or JWE compact string.
func Build(payload Claims, sc *SigningCredentials, ec *EncryptingCredentials, opts ...BuildOption) (string, error) {
	return BuildContext(context.Background(), payload, sc, ec, opts...)
}

// BuildContext is the suspension-capable flavor of Build. It checks ctx
// before producing the signature and, when encrypting, before the content
// encryption.
func BuildContext(ctx context.Context, payload Claims, sc *SigningCredentials, ec *EncryptingCredentials, opts ...BuildOption) (string, error) {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	encodedHeader, err := buildHeader(o, sc)
	if err != nil {
		return "", err
	}

	if payload == nil {
		payload = Claims{}
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	encodedPayload := encoding.Encode(payloadBytes)

	signature, err := signJWS(ctx, encodedHeader, encodedPayload, sc)
	if err != nil {
		return "", err
	}

	token := encodedHeader + "." + encodedPayload + "." + signature

	if ec == nil {
		return token, nil
	}

	return wrapJWE(ctx, o, ec, []byte(token))
}

// buildHeader constructs the inner JWS header. It never carries JWE
// parameters: the outer JWE protected header is a distinct value built by
// buildJWEHeader from ec, not this one.
func buildHeader(o buildOptions, sc *SigningCredentials) (string, error) {
	if o.presetHeader != nil {
		return *o.presetHeader, nil
	}

	if sc == nil {
		return encoding.Encode([]byte(emptyHeaderJSON)), nil
	}

	return encodeHeader(o.cache, sc, ""), nil
}

func signJWS(ctx context.Context, encodedHeader, encodedPayload string, sc *SigningCredentials) (string, error) {
	if sc == nil {
		return "", nil
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	factory := sc.factory()
	signingInput := []byte(encodedHeader + "." + encodedPayload)

	p, err := factory.SigningProviderFor(sc.Key, string(sc.Algorithm))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSigningKey, err)
	}
	defer safeRelease(factory, p)

	sig, err := p.Sign(signingInput)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return encoding.Encode(sig), nil
}

// buildJWEHeader constructs the outer JWE protected header, naming ec's
// key-management ("alg") and content-encryption ("enc") algorithms. This is
// a distinct header from the inner JWS one built by buildHeader: the two
// carry unrelated algorithm namespaces ("dir"/"A128KW" vs "HS256"/"RS256")
// and must never be collapsed into the same value.
func buildJWEHeader(o buildOptions, ec *EncryptingCredentials) string {
	if o.presetHeader != nil {
		return *o.presetHeader
	}
	return encodeJWEHeader(o.cache, ec)
}

// wrapJWE implements direct and key-wrap JWE construction: direct mode uses
// ec.Key as the CEK directly, key-wrap mode generates a fresh random CEK
// and wraps it under ec.Key.
func wrapJWE(ctx context.Context, o buildOptions, ec *EncryptingCredentials, plaintext []byte) (string, error) {
	factory := ec.factory()
	encodedHeader := buildJWEHeader(o, ec)
	aad := []byte(encodedHeader)

	if ec.Alg == jwe.AlgDirect {
		if !factory.IsSupportedAlgorithm(string(ec.Enc), ec.Key) {
			return "", fmt.Errorf("%w: %s not supported for direct-mode key", ErrEncryptionFailed, ec.Enc)
		}

		iv, ciphertext, tag, err := encryptWith(ctx, factory, ec.Key, string(ec.Enc), plaintext, aad)
		if err != nil {
			return "", err
		}

		return encodedHeader + "." +
			"." +
			encoding.Encode(iv) + "." +
			encoding.Encode(ciphertext) + "." +
			encoding.Encode(tag), nil
	}

	if !factory.IsSupportedAlgorithm(string(ec.Alg), ec.Key) {
		return "", fmt.Errorf("%w: %s not supported for configured key", ErrEncryptionFailed, ec.Alg)
	}

	bits, err := jwe.CEKBitSize(ec.Enc)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrEncryptionFailed, err)
	}

	cek := make([]byte, bits/8)
	if _, err := rand.Read(cek); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEncryptionFailed, err)
	}

	kw, err := factory.KeyWrapProviderFor(ec.Key, string(ec.Alg))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrEncryptionFailed, err)
	}
	defer safeRelease(factory, kw)

	wrappedKey, err := kw.WrapKey(cek)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrEncryptionFailed, err)
	}

	iv, ciphertext, tag, err := encryptWith(ctx, factory, cek, string(ec.Enc), plaintext, aad)
	if err != nil {
		return "", err
	}

	return encodedHeader + "." +
		encoding.Encode(wrappedKey) + "." +
		encoding.Encode(iv) + "." +
		encoding.Encode(ciphertext) + "." +
		encoding.Encode(tag), nil
}

func encryptWith(ctx context.Context, factory provider.CryptoProviderFactory, key any, enc string, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	select {
	case <-ctx.Done():
		return nil, nil, nil, ctx.Err()
	default:
	}

	p, err := factory.EncryptionProviderFor(key, enc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrEncryptionFailed, err)
	}
	defer safeRelease(factory, p)

	iv, ciphertext, tag, err = p.Encrypt(plaintext, aad)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrEncryptionFailed, err)
	}
	return iv, ciphertext, tag, nil
}

// safeRelease returns p to factory, tolerating a releaser that panics so a
// single misbehaving provider cannot unwind past Build/Validate.
func safeRelease(factory provider.CryptoProviderFactory, p any) {
	defer func() {
		if r := recover(); r != nil {
			logProviderReleaseFailure(r)
		}
	}()
	factory.Release(p)
}
