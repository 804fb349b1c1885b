package jwt

import (
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/jws"
)

func signedToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	sc := &SigningCredentials{Key: key, Algorithm: jws.ALG_HS256}
	token, err := Build(claims, sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestValidate_ExpiredTokenRejected(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{
		ClaimExpirationTime: time.Now().Add(-time.Minute).Unix(),
	}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key

	result := Validate(token, params)
	if result.IsValid {
		t.Fatal("expected an expired token to be rejected")
	}
	if !errors.Is(result.Err, ErrInvalidLifetime) {
		t.Errorf("expected ErrInvalidLifetime, got %v", result.Err)
	}
}

func TestValidate_NotYetValidTokenRejected(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{
		ClaimNotBefore: time.Now().Add(time.Hour).Unix(),
	}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key

	result := Validate(token, params)
	if !errors.Is(result.Err, ErrInvalidLifetime) {
		t.Errorf("expected ErrInvalidLifetime, got %v", result.Err)
	}
}

func TestValidate_ClockSkewToleratesSmallOverrun(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{
		ClaimExpirationTime: time.Now().Add(-10 * time.Second).Unix(),
	}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ClockSkew = time.Minute

	result := Validate(token, params)
	if result.Err != nil {
		t.Fatalf("expected clock skew to tolerate a recently expired token, got %v", result.Err)
	}
}

func TestValidate_AudienceMustMatch(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{ClaimAudience: "service-a"}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ValidAudiences = []string{"service-b"}

	result := Validate(token, params)
	if !errors.Is(result.Err, ErrInvalidAudience) {
		t.Errorf("expected ErrInvalidAudience, got %v", result.Err)
	}
}

func TestValidate_AudienceAcceptsMatchingEntry(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{ClaimAudience: []any{"service-a", "service-b"}}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ValidAudiences = []string{"service-b"}

	result := Validate(token, params)
	if result.Err != nil {
		t.Fatalf("expected audience match to pass, got %v", result.Err)
	}
}

func TestValidate_IssuerMustMatch(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{ClaimIssuer: "untrusted"}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ValidIssuers = []string{"trusted"}

	result := Validate(token, params)
	if !errors.Is(result.Err, ErrInvalidIssuer) {
		t.Errorf("expected ErrInvalidIssuer, got %v", result.Err)
	}
}

func TestValidate_TokenReplayDetected(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{
		ClaimExpirationTime: time.Now().Add(time.Hour).Unix(),
	}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.TokenReplayCache = NewInMemoryReplayCache()

	first := Validate(token, params)
	if first.Err != nil {
		t.Fatalf("expected first validation to pass, got %v", first.Err)
	}

	second := Validate(token, params)
	if !errors.Is(second.Err, ErrTokenReplayDetected) {
		t.Errorf("expected ErrTokenReplayDetected on second validation, got %v", second.Err)
	}
}

func TestValidate_ActorChainValidatedRecursively(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	actorToken := signedToken(t, Claims{ClaimSubject: "delegate"}, key)
	mainToken := signedToken(t, Claims{ClaimSubject: "principal", ClaimActor: actorToken}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ValidateActor = true

	result := Validate(mainToken, params)
	if result.Err != nil {
		t.Fatalf("expected actor chain to validate, got %v", result.Err)
	}
}

func TestValidate_ActorChainPropagatesInnerFailure(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	otherKey := []byte("a-different-secret-altogether-00")
	actorToken := signedToken(t, Claims{ClaimSubject: "delegate"}, otherKey)
	mainToken := signedToken(t, Claims{ClaimSubject: "principal", ClaimActor: actorToken}, key)

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ValidateActor = true

	result := Validate(mainToken, params)
	if result.Err == nil {
		t.Fatal("expected actor chain validation to fail when the actor token uses an unknown key")
	}
}

func TestValidate_ActorChainDepthCapEnforced(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")

	// Build a chain deeper than MaxActorDepth by nesting "act" claims.
	inner := signedToken(t, Claims{ClaimSubject: "leaf"}, key)
	for i := 0; i < defaultMaxActorDepth+2; i++ {
		inner = signedToken(t, Claims{ClaimSubject: "mid", ClaimActor: inner}, key)
	}

	params := NewValidationParameters()
	params.IssuerSigningKey = key
	params.ValidateActor = true

	result := Validate(inner, params)
	if !errors.Is(result.Err, ErrInvalidArgument) {
		t.Errorf("expected actor chain depth cap to surface ErrInvalidArgument, got %v", result.Err)
	}
}

func TestValidate_NilParametersRejected(t *testing.T) {
	result := Validate("anything", nil)
	if !errors.Is(result.Err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nil parameters, got %v", result.Err)
	}
}

func TestValidate_EmptyTokenRejected(t *testing.T) {
	result := Validate("", NewValidationParameters())
	if !errors.Is(result.Err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty token, got %v", result.Err)
	}
}

func TestValidate_CustomSignatureValidatorIsUsed(t *testing.T) {
	key := []byte("validator-test-secret-0123456789")
	token := signedToken(t, Claims{ClaimSubject: "x"}, key)

	called := false
	params := NewValidationParameters()
	params.SignatureValidator = signatureValidatorFunc(func(raw string, p *ValidationParameters) (*CompactToken, error) {
		called = true
		return DefaultTokenReader.Read(raw)
	})

	result := Validate(token, params)
	if !called {
		t.Error("expected the custom SignatureValidator to be invoked")
	}
	if result.Err != nil {
		t.Fatalf("expected validation to succeed, got %v", result.Err)
	}
}

type signatureValidatorFunc func(raw string, params *ValidationParameters) (*CompactToken, error)

func (f signatureValidatorFunc) Validate(raw string, params *ValidationParameters) (*CompactToken, error) {
	return f(raw, params)
}

func TestValidate_SignThenEncryptDirectModeRoundTrips(t *testing.T) {
	signingKey := []byte("validator-test-signing-secret-00")
	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		t.Fatal(err)
	}

	sc := &SigningCredentials{Key: signingKey, Algorithm: jws.ALG_HS256}
	ec := &EncryptingCredentials{Key: cek, Alg: jwe.AlgDirect, Enc: jwe.A128CBC_HS256}

	token, err := Build(Claims{ClaimSubject: "x"}, sc, ec)
	if err != nil {
		t.Fatal(err)
	}

	params := NewValidationParameters()
	params.IssuerSigningKeys = []any{signingKey, cek}

	result := Validate(token, params)
	if result.Err != nil {
		t.Fatalf("expected a signed-then-encrypted direct-mode token to validate, got %v", result.Err)
	}
	sub, _ := result.SecurityToken.Claims().GetString(ClaimSubject)
	if sub != "x" {
		t.Errorf("expected subject x, got %q", sub)
	}
}

func TestValidate_SignThenEncryptKeyWrapModeRoundTrips(t *testing.T) {
	signingKey := []byte("validator-test-signing-secret-00")
	kek := make([]byte, 16)
	if _, err := rand.Read(kek); err != nil {
		t.Fatal(err)
	}

	sc := &SigningCredentials{Key: signingKey, Algorithm: jws.ALG_HS256}
	ec := &EncryptingCredentials{Key: kek, Alg: jwe.AlgA128KW, Enc: jwe.A128CBC_HS256}

	token, err := Build(Claims{ClaimSubject: "x"}, sc, ec)
	if err != nil {
		t.Fatal(err)
	}

	params := NewValidationParameters()
	params.IssuerSigningKeys = []any{signingKey, kek}

	result := Validate(token, params)
	if result.Err != nil {
		t.Fatalf("expected a signed-then-encrypted key-wrap token to validate, got %v", result.Err)
	}
	sub, _ := result.SecurityToken.Claims().GetString(ClaimSubject)
	if sub != "x" {
		t.Errorf("expected subject x, got %q", sub)
	}
}
