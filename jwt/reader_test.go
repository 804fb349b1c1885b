package jwt

import (
	"strings"
	"testing"
)

func buildTestJWS(t *testing.T) string {
	t.Helper()
	sc := &SigningCredentials{Key: []byte("reader-test-secret-0123456789"), Algorithm: "HS256"}
	token, err := Build(Claims{ClaimSubject: "reader"}, sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestDefaultTokenReader_CanReadValidJWS(t *testing.T) {
	token := buildTestJWS(t)
	if !DefaultTokenReader.CanRead(token) {
		t.Error("expected CanRead to accept a well-formed JWS")
	}
}

func TestDefaultTokenReader_CanReadRejectsEmpty(t *testing.T) {
	if DefaultTokenReader.CanRead("") {
		t.Error("expected CanRead to reject empty string")
	}
	if DefaultTokenReader.CanRead("   ") {
		t.Error("expected CanRead to reject whitespace-only string")
	}
}

func TestDefaultTokenReader_CanReadRejectsWrongSegmentCount(t *testing.T) {
	if DefaultTokenReader.CanRead("a.b") {
		t.Error("expected CanRead to reject a 2-segment string")
	}
	if DefaultTokenReader.CanRead("a.b.c.d") {
		t.Error("expected CanRead to reject a 4-segment string")
	}
}

func TestDefaultTokenReader_ReadJWSDecodesClaims(t *testing.T) {
	token := buildTestJWS(t)

	parsed, err := DefaultTokenReader.Read(token)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.IsJWE() {
		t.Error("expected a 3-segment token to not be recognized as JWE")
	}

	sub, err := parsed.Claims().GetString(ClaimSubject)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "reader" {
		t.Errorf("expected sub claim %q, got %q", "reader", sub)
	}
}

func TestDefaultTokenReader_ReadRejectsMalformedSegments(t *testing.T) {
	if _, err := DefaultTokenReader.Read("not-base64url!.also-not.either"); err == nil {
		t.Error("expected error decoding a malformed header segment")
	}
}

func TestDefaultTokenReader_ReadRejectsOversizeToken(t *testing.T) {
	huge := strings.Repeat("a", maximumTokenSizeInBytes+1)
	if _, err := DefaultTokenReader.Read(huge); err == nil {
		t.Error("expected error for a token exceeding the maximum size")
	}
}

func TestDefaultTokenReader_ReadJWEStopsAtHeader(t *testing.T) {
	sc := &SigningCredentials{Key: []byte("reader-jwe-test-secret-0123456789"), Algorithm: "HS256"}
	ec := &EncryptingCredentials{Key: make([]byte, 32), Alg: "dir", Enc: "A128CBC-HS256"}

	token, err := Build(Claims{ClaimSubject: "reader"}, sc, ec)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := DefaultTokenReader.Read(token)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.IsJWE() {
		t.Error("expected a 5-segment token to be recognized as JWE")
	}
	if parsed.Claims() != nil {
		t.Error("expected claims to be nil until the ciphertext is decrypted")
	}
}
