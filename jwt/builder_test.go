package jwt

import (
	"context"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/halimath/jwtguard/internal/encoding"
	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/jws"
)

func TestBuild_UnsignedTokenUsesEmptyHeader(t *testing.T) {
	token, err := Build(Claims{ClaimSubject: "x"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[2] != "" {
		t.Error("expected empty signature segment for an unsigned token")
	}

	want := encoding.Encode([]byte(emptyHeaderJSON))
	if segments[0] != want {
		t.Errorf("expected header %q, got %q", want, segments[0])
	}
}

func TestBuild_NilPayloadProducesEmptyObject(t *testing.T) {
	token, err := Build(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	segments := strings.Split(token, ".")

	wantPayload := encoding.Encode([]byte("{}"))
	if segments[1] != wantPayload {
		t.Errorf("expected empty-object payload %q, got %q", wantPayload, segments[1])
	}
}

func TestBuild_LiteralSingleClaimPayload(t *testing.T) {
	token, err := Build(Claims{ClaimSubject: "a"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	segments := strings.Split(token, ".")

	wantHeader := encoding.Encode([]byte(emptyHeaderJSON))
	wantPayload := encoding.Encode([]byte(`{"sub":"a"}`))
	if segments[0] != wantHeader {
		t.Errorf("expected header %q, got %q", wantHeader, segments[0])
	}
	if segments[1] != wantPayload {
		t.Errorf("expected payload %q, got %q", wantPayload, segments[1])
	}
	if segments[2] != "" {
		t.Errorf("expected empty signature, got %q", segments[2])
	}
}

func TestBuild_SignedHeaderCarriesAlgorithmAndType(t *testing.T) {
	sc := &SigningCredentials{Key: []byte("builder-test-secret-0123456789"), Algorithm: jws.ALG_HS256}
	token, err := Build(Claims{ClaimSubject: "x"}, sc, nil)
	if err != nil {
		t.Fatal(err)
	}

	segments := strings.Split(token, ".")
	h, err := jws.DecodeHeader(segments[0])
	if err != nil {
		t.Fatal(err)
	}
	if h.Algorithm != jws.ALG_HS256 {
		t.Errorf("expected alg HS256, got %s", h.Algorithm)
	}
	if h.Type != "JWT" {
		t.Errorf("expected typ JWT, got %s", h.Type)
	}
}

func TestBuild_WithHeaderCacheReusesEncodedHeader(t *testing.T) {
	cache := NewHeaderCache()
	sc := &SigningCredentials{Key: []byte("builder-test-secret-0123456789"), Algorithm: jws.ALG_HS256}

	tokenOne, err := Build(Claims{ClaimSubject: "x"}, sc, nil, WithHeaderCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	tokenTwo, err := Build(Claims{ClaimSubject: "y"}, sc, nil, WithHeaderCache(cache))
	if err != nil {
		t.Fatal(err)
	}

	headerOne := strings.Split(tokenOne, ".")[0]
	headerTwo := strings.Split(tokenTwo, ".")[0]
	if headerOne != headerTwo {
		t.Errorf("expected identical encoded headers from the same cache, got %q vs %q", headerOne, headerTwo)
	}
}

func TestBuild_WithEncodedHeaderOverridesConstruction(t *testing.T) {
	preset := encoding.Encode([]byte(`{"alg":"none","typ":"JWT","custom":true}`))

	token, err := Build(Claims{ClaimSubject: "x"}, nil, nil, WithEncodedHeader(preset))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(token, preset+".") {
		t.Error("expected the preset header to be used verbatim")
	}
}

func TestBuild_DirectJWEUsesKeyAsCEK(t *testing.T) {
	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		t.Fatal(err)
	}
	ec := &EncryptingCredentials{Key: cek, Alg: jwe.AlgDirect, Enc: jwe.A128CBC_HS256}

	token, err := Build(Claims{ClaimSubject: "x"}, nil, ec)
	if err != nil {
		t.Fatal(err)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 5 {
		t.Fatalf("expected 5 segments for a JWE, got %d", len(segments))
	}
	if segments[1] != "" {
		t.Error("expected empty encrypted-key segment in direct mode")
	}
}

func TestBuild_KeyWrapJWEProducesWrappedKeySegment(t *testing.T) {
	kek := make([]byte, 24)
	if _, err := rand.Read(kek); err != nil {
		t.Fatal(err)
	}
	ec := &EncryptingCredentials{Key: kek, Alg: jwe.AlgA192KW, Enc: jwe.A192CBC_HS384}

	token, err := Build(Claims{ClaimSubject: "x"}, nil, ec)
	if err != nil {
		t.Fatal(err)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 5 {
		t.Fatalf("expected 5 segments for a JWE, got %d", len(segments))
	}
	if segments[1] == "" {
		t.Error("expected a non-empty wrapped-key segment in key-wrap mode")
	}
}

func TestBuild_DirectModeWrongLengthCEKRejected(t *testing.T) {
	ec := &EncryptingCredentials{Key: []byte("too-short"), Alg: jwe.AlgDirect, Enc: jwe.A128CBC_HS256}
	if _, err := Build(Claims{ClaimSubject: "x"}, nil, ec); err == nil {
		t.Error("expected error for a CEK of the wrong length in direct mode")
	}
}

func TestBuildContext_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := &SigningCredentials{Key: []byte("builder-test-secret-0123456789"), Algorithm: jws.ALG_HS256}
	_, err := BuildContext(ctx, Claims{ClaimSubject: "x"}, sc, nil)
	if err == nil {
		t.Error("expected BuildContext to observe an already-cancelled context")
	}
}

func TestBuild_ClaimsRoundTripThroughValidate(t *testing.T) {
	sc := &SigningCredentials{Key: []byte("builder-test-secret-0123456789"), Algorithm: jws.ALG_HS256}
	now := time.Now()
	token, err := Build(Claims{
		ClaimSubject:        "round-trip",
		ClaimIssuedAt:       now.Unix(),
		ClaimExpirationTime: now.Add(time.Hour).Unix(),
	}, sc, nil)
	if err != nil {
		t.Fatal(err)
	}

	params := NewValidationParameters()
	params.IssuerSigningKey = sc.Key
	result := Validate(token, params)
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	sub, _ := result.SecurityToken.Claims().GetString(ClaimSubject)
	if sub != "round-trip" {
		t.Errorf("expected subject %q, got %q", "round-trip", sub)
	}
}
