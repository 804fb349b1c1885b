package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/halimath/jwtguard/internal/encoding"
	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/provider"
)

// defaultMaxActorDepth bounds recursive actor-chain validation, guarding
// against pathological or self-referential "act" chains exhausting the
// stack.
const defaultMaxActorDepth = 10

// SignatureValidator lets a caller entirely replace Phase 1 (signature
// validation). When set on ValidationParameters, it is invoked instead of
// the built-in reader + multi-key trial; its result must be a token whose
// shape the rest of the pipeline can consume, or a non-nil error.
type SignatureValidator interface {
	Validate(raw string, params *ValidationParameters) (*CompactToken, error)
}

// ValidationParameters configures a single Validate/ValidateContext call.
// Every override field, when set, is tried before the corresponding
// built-in behavior.
type ValidationParameters struct {
	IssuerSigningKey          any
	IssuerSigningKeys         []any
	IssuerSigningKeyResolver  SigningKeyResolver
	SignatureValidator        SignatureValidator
	TokenReader               TokenReader
	RequireSignedTokens       bool
	ValidateActor             bool
	ActorValidationParameters *ValidationParameters
	CryptoProviderFactory     provider.CryptoProviderFactory
	ValidIssuers              []string
	ValidAudiences            []string
	ClockSkew                 time.Duration
	TokenReplayCache          TokenReplayCache

	// MaxActorDepth bounds recursive actor-chain validation. Zero selects
	// defaultMaxActorDepth; NewValidationParameters sets it explicitly.
	MaxActorDepth int
}

// NewValidationParameters returns ValidationParameters with conservative
// defaults: signed tokens are required and actor validation is off.
func NewValidationParameters() *ValidationParameters {
	return &ValidationParameters{
		RequireSignedTokens: true,
		MaxActorDepth:       defaultMaxActorDepth,
	}
}

func (p *ValidationParameters) factory() provider.CryptoProviderFactory {
	if p.CryptoProviderFactory != nil {
		return p.CryptoProviderFactory
	}
	return provider.Default
}

func (p *ValidationParameters) reader() TokenReader {
	if p.TokenReader != nil {
		return p.TokenReader
	}
	return DefaultTokenReader
}

func (p *ValidationParameters) resolver() SigningKeyResolver {
	if p.IssuerSigningKeyResolver != nil {
		return p.IssuerSigningKeyResolver
	}
	return DefaultSigningKeyResolver
}

func (p *ValidationParameters) maxActorDepth() int {
	if p.MaxActorDepth > 0 {
		return p.MaxActorDepth
	}
	return defaultMaxActorDepth
}

// ValidationResult is the outcome of a Validate call. IsValid is true iff
// Err is nil. SecurityToken is populated whenever parsing got far enough to
// produce one, even on failure, so callers can inspect header fields of a
// rejected token for diagnostics.
type ValidationResult struct {
	SecurityToken *CompactToken
	IsValid       bool
	Err           error
}

// Validate parses and validates raw per params, running both the signature
// and semantic-claim phases described in this package's validator.
func Validate(raw string, params *ValidationParameters) *ValidationResult {
	return ValidateContext(context.Background(), raw, params)
}

// ValidateContext is the suspension-capable flavor of Validate. It may
// suspend at signature/decryption provider calls and at recursive actor
// token validation; ctx cancellation is observed at each such point.
func ValidateContext(ctx context.Context, raw string, params *ValidationParameters) *ValidationResult {
	return validateDepth(ctx, raw, params, 0)
}

func validateDepth(ctx context.Context, raw string, params *ValidationParameters, depth int) *ValidationResult {
	if params == nil {
		return &ValidationResult{Err: fmt.Errorf("%w: nil validation parameters", ErrInvalidArgument)}
	}
	if len(raw) == 0 {
		return &ValidationResult{Err: fmt.Errorf("%w: empty token", ErrInvalidArgument)}
	}
	if len(raw) > maximumTokenSizeInBytes {
		return &ValidationResult{Err: fmt.Errorf("%w: token exceeds maximum size of %d bytes", ErrInvalidArgument, maximumTokenSizeInBytes)}
	}

	token, err := validateSignature(ctx, raw, params)
	if err != nil {
		return &ValidationResult{SecurityToken: token, Err: err}
	}

	if err := validatePayload(ctx, token, params, depth); err != nil {
		return &ValidationResult{SecurityToken: token, Err: err}
	}

	return &ValidationResult{SecurityToken: token, IsValid: true}
}

// validateSignature implements Phase 1 of §4.6: it produces a CompactToken
// with a verified signature (or an accepted-unsigned token), decrypting a
// JWE's inner JWS first when necessary.
func validateSignature(ctx context.Context, raw string, params *ValidationParameters) (*CompactToken, error) {
	if params.SignatureValidator != nil {
		token, err := params.SignatureValidator.Validate(raw, params)
		if err != nil {
			return token, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
		}
		if token == nil {
			return nil, fmt.Errorf("%w: signature validator returned no token", ErrInvalidSignature)
		}
		return token, nil
	}

	token, err := params.reader().Read(raw)
	if err != nil {
		return nil, err
	}

	if !token.IsJWE() {
		if err := verifyJWSSignature(ctx, token, params); err != nil {
			return token, err
		}
		return token, nil
	}

	innerRaw, err := decryptJWE(ctx, token, params)
	if err != nil {
		return token, err
	}

	innerToken, err := params.reader().Read(innerRaw)
	if err != nil {
		return token, fmt.Errorf("%w: decrypted payload is not a valid JWS: %s", ErrMalformedToken, err)
	}

	if err := verifyJWSSignature(ctx, innerToken, params); err != nil {
		return token, err
	}

	token.SetClaims(innerToken.Claims())
	token.signingKey = innerToken.signingKey

	return token, nil
}

// verifyJWSSignature runs the unsigned-token policy check and, for a
// signed token, the multi-key trial, recording the winning key on token.
func verifyJWSSignature(ctx context.Context, token *CompactToken, params *ValidationParameters) error {
	if token.rawSignature == "" {
		if params.RequireSignedTokens {
			return fmt.Errorf("%w: token is not signed", ErrInvalidSignature)
		}
		return nil
	}

	sigBytes, err := encoding.Decode(token.rawSignature)
	if err != nil {
		return fmt.Errorf("%w: invalid signature encoding: %s", ErrInvalidSignature, err)
	}

	signedBytes := []byte(token.rawHeader + "." + token.rawPayload)

	var keys []any
	if resolved := params.resolver().Resolve(token, params); resolved != nil {
		keys = []any{resolved}
	} else {
		keys = candidateKeys(params)
	}

	factory := params.factory()
	alg := string(token.Header().Algorithm)
	kid := token.Header().KeyID

	report := &signatureTrialReport{}

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		candidateID, _ := keyID(key)

		p, err := factory.VerifyingProviderFor(key, alg)
		if err != nil {
			report.record(candidateID, err)
			logKeyAttempt(candidateID, alg, err)
			continue
		}

		verifyErr := p.VerifyContext(ctx, signedBytes, sigBytes)
		safeRelease(factory, p)

		if kid != "" && candidateID == kid {
			report.kidMatch = true
		}

		if verifyErr == nil {
			logKeyAttempt(candidateID, alg, nil)
			token.signingKey = candidateID
			return nil
		}

		report.record(candidateID, verifyErr)
		logKeyAttempt(candidateID, alg, verifyErr)
	}

	return report.err(kid)
}

// decryptJWE tries every configured key as a JWE decryption candidate,
// unwrapping the CEK first when the header names a key-wrap algorithm,
// and returns the decrypted inner JWS compact string.
func decryptJWE(ctx context.Context, token *CompactToken, params *ValidationParameters) (string, error) {
	keys := candidateKeys(params)
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: no decryption keys configured", ErrEncryptionFailed)
	}

	iv, err := encoding.Decode(token.rawIV)
	if err != nil {
		return "", fmt.Errorf("%w: invalid IV encoding: %s", ErrMalformedToken, err)
	}
	ciphertext, err := encoding.Decode(token.rawCiphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext encoding: %s", ErrMalformedToken, err)
	}
	tag, err := encoding.Decode(token.rawTag)
	if err != nil {
		return "", fmt.Errorf("%w: invalid tag encoding: %s", ErrMalformedToken, err)
	}
	aad := []byte(token.rawHeader)

	header := token.Header()
	algStr := string(header.Algorithm)
	encStr := header.Enc

	factory := params.factory()

	var lastErr error
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var aeadKey any = key

		if algStr != string(jwe.AlgDirect) {
			if token.rawEncryptedKey == "" {
				lastErr = fmt.Errorf("key-wrap mode requires a non-empty encrypted-key segment")
				continue
			}
			wrappedKey, err := encoding.Decode(token.rawEncryptedKey)
			if err != nil {
				return "", fmt.Errorf("%w: invalid encrypted-key encoding: %s", ErrMalformedToken, err)
			}

			kw, err := factory.KeyWrapProviderFor(key, algStr)
			if err != nil {
				lastErr = err
				continue
			}
			cek, err := kw.UnwrapKey(wrappedKey)
			safeRelease(factory, kw)
			if err != nil {
				lastErr = err
				continue
			}
			aeadKey = cek
		}

		aead, err := factory.EncryptionProviderFor(aeadKey, encStr)
		if err != nil {
			lastErr = err
			continue
		}
		plaintext, err := aead.Decrypt(iv, ciphertext, tag, aad)
		safeRelease(factory, aead)
		if err != nil {
			lastErr = err
			continue
		}

		return string(plaintext), nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %s", ErrEncryptionFailed, lastErr)
	}
	return "", fmt.Errorf("%w: no configured key could decrypt token", ErrEncryptionFailed)
}

// validatePayload implements Phase 2 of §4.6.
func validatePayload(ctx context.Context, token *CompactToken, params *ValidationParameters, depth int) error {
	claims := token.Claims()

	if err := validateLifetime(claims, params); err != nil {
		return err
	}
	if err := validateAudience(claims, params); err != nil {
		return err
	}
	if _, err := validateIssuer(claims, params); err != nil {
		return err
	}
	if err := validateTokenReplay(token, claims, params); err != nil {
		return err
	}

	if params.ValidateActor {
		actorRaw, err := claims.Actor()
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
		}
		if actorRaw != "" {
			if err := validateActorChain(ctx, actorRaw, params, depth); err != nil {
				return err
			}
		}
	}

	return validateIssuerSecurityKey(token.SigningKey(), token, params)
}

func validateActorChain(ctx context.Context, actorRaw string, params *ValidationParameters, depth int) error {
	if depth+1 >= params.maxActorDepth() {
		return fmt.Errorf("%w: actor chain exceeds maximum depth of %d", ErrInvalidArgument, params.maxActorDepth())
	}

	actorParams := params
	if params.ActorValidationParameters != nil {
		actorParams = params.ActorValidationParameters
	}

	result := validateDepth(ctx, actorRaw, actorParams, depth+1)
	if !result.IsValid {
		return fmt.Errorf("invalid actor token: %w", result.Err)
	}
	return nil
}

func validateLifetime(claims Claims, params *ValidationParameters) error {
	expires, err := claims.GetTime(ClaimExpirationTime)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLifetime, err)
	}
	notBefore, err := claims.GetTime(ClaimNotBefore)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLifetime, err)
	}

	now := time.Now()

	if !expires.IsZero() && now.After(expires.Add(params.ClockSkew)) {
		return fmt.Errorf("%w: token expired at %s", ErrInvalidLifetime, expires)
	}
	if !notBefore.IsZero() && now.Before(notBefore.Add(-params.ClockSkew)) {
		return fmt.Errorf("%w: token not valid before %s", ErrInvalidLifetime, notBefore)
	}

	return nil
}

func validateAudience(claims Claims, params *ValidationParameters) error {
	if len(params.ValidAudiences) == 0 {
		return nil
	}

	aud, err := claims.GetStringSlice(ClaimAudience)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAudience, err)
	}

	for _, a := range aud {
		for _, valid := range params.ValidAudiences {
			if a == valid {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: audience %v not in configured valid audiences", ErrInvalidAudience, aud)
}

func validateIssuer(claims Claims, params *ValidationParameters) (string, error) {
	iss, err := claims.GetString(ClaimIssuer)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidIssuer, err)
	}

	if len(params.ValidIssuers) == 0 {
		return iss, nil
	}

	for _, valid := range params.ValidIssuers {
		if valid == iss {
			return iss, nil
		}
	}

	return "", fmt.Errorf("%w: issuer %q not in configured valid issuers", ErrInvalidIssuer, iss)
}

func validateTokenReplay(token *CompactToken, claims Claims, params *ValidationParameters) error {
	if params.TokenReplayCache == nil {
		return nil
	}

	expires, _ := claims.GetTime(ClaimExpirationTime)
	if params.TokenReplayCache.CheckAndRemember(token.Raw(), expires) {
		logReplayDetected(token.Header().KeyID)
		return fmt.Errorf("%w", ErrTokenReplayDetected)
	}

	return nil
}

// validateIssuerSecurityKey is the issuer-to-signing-key step of Phase 2.
// It performs no check and returns nil for every signingKey, empty or not;
// an empty signingKey (as left by a caller-supplied SignatureValidator that
// bypasses the built-in trial) therefore passes as well.
func validateIssuerSecurityKey(signingKey string, token *CompactToken, params *ValidationParameters) error {
	if signingKey == "" {
		return nil
	}
	return nil
}
