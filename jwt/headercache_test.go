package jwt

import (
	"sync"
	"testing"

	"github.com/halimath/jwtguard/jwe"
	"github.com/halimath/jwtguard/jws"
)

func TestHeaderCache_GetOrEncodeCachesResult(t *testing.T) {
	c := NewHeaderCache()
	calls := 0
	encode := func() string {
		calls++
		return "encoded-value"
	}

	first := c.GetOrEncode("fp", encode)
	second := c.GetOrEncode("fp", encode)

	if first != "encoded-value" || second != "encoded-value" {
		t.Fatalf("unexpected encoded values: %q, %q", first, second)
	}
	if calls != 1 {
		t.Errorf("expected encode to run once, ran %d times", calls)
	}
}

func TestHeaderCache_DistinctFingerprintsDoNotCollide(t *testing.T) {
	c := NewHeaderCache()

	a := c.GetOrEncode("a", func() string { return "header-a" })
	b := c.GetOrEncode("b", func() string { return "header-b" })

	if a != "header-a" || b != "header-b" {
		t.Errorf("fingerprints collided: a=%q b=%q", a, b)
	}
}

func TestHeaderCache_ConcurrentRaceComputesSameValue(t *testing.T) {
	c := NewHeaderCache()
	var wg sync.WaitGroup
	results := make([]string, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = c.GetOrEncode("race", func() string { return "winner" })
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != "winner" {
			t.Errorf("goroutine %d saw %q, want %q", i, r, "winner")
		}
	}
}

func TestFingerprint_DistinguishesKeyLengthsWithSameKID(t *testing.T) {
	scA := &SigningCredentials{Key: []byte("short"), Algorithm: jws.ALG_HS256}
	scB := &SigningCredentials{Key: []byte("a much longer secret value"), Algorithm: jws.ALG_HS256}

	if Fingerprint(scA) == Fingerprint(scB) {
		t.Error("expected different-length keys to produce different fingerprints")
	}
}

func TestFingerprint_DistinguishesAlgorithm(t *testing.T) {
	key := []byte("shared-secret-material")
	scA := &SigningCredentials{Key: key, Algorithm: jws.ALG_HS256}
	scB := &SigningCredentials{Key: key, Algorithm: jws.ALG_HS384}

	if Fingerprint(scA) == Fingerprint(scB) {
		t.Error("expected different algorithms to produce different fingerprints")
	}
}

func TestEncodeHeader_AppendsEncWhenEncrypting(t *testing.T) {
	cache := NewHeaderCache()
	sc := &SigningCredentials{Key: []byte("secret-material-for-header-test"), Algorithm: jws.ALG_HS256}

	plain := encodeHeader(cache, sc, "")
	withEnc := encodeHeader(cache, sc, "A128CBC-HS256")

	if plain == withEnc {
		t.Error("expected distinct encoded headers for signing-only vs signing+encrypting")
	}

	h, err := jws.DecodeHeader(withEnc)
	if err != nil {
		t.Fatal(err)
	}
	if h.Enc != "A128CBC-HS256" {
		t.Errorf("expected enc parameter to round-trip, got %q", h.Enc)
	}
}

func TestEncodeJWEHeader_IndependentOfJWSHeader(t *testing.T) {
	cache := NewHeaderCache()

	// sc.Algorithm ("HS256") is a signing algorithm and ec.Alg ("A128KW") a
	// key-management algorithm; sharing one cache, the two headers must
	// never be conflated.
	sc := &SigningCredentials{Key: []byte("secret-material-for-header-test"), Algorithm: jws.ALG_HS256}
	ec := &EncryptingCredentials{Key: []byte("a-shared-secret-of-some-length!"), Alg: jwe.AlgA128KW, Enc: jwe.A128CBC_HS256}

	jwsHeader := encodeHeader(cache, sc, "")
	jweHeader := encodeJWEHeader(cache, ec)

	if jwsHeader == jweHeader {
		t.Fatal("expected the JWS header and the JWE header to be distinct values")
	}

	decodedJWE, err := jws.DecodeHeader(jweHeader)
	if err != nil {
		t.Fatal(err)
	}
	if decodedJWE.Algorithm != jws.SignatureAlgorithm(jwe.AlgA128KW) {
		t.Errorf("expected JWE header alg %q, got %q", jwe.AlgA128KW, decodedJWE.Algorithm)
	}
	if decodedJWE.Enc != string(jwe.A128CBC_HS256) {
		t.Errorf("expected JWE header enc %q, got %q", jwe.A128CBC_HS256, decodedJWE.Enc)
	}

	decodedJWS, err := jws.DecodeHeader(jwsHeader)
	if err != nil {
		t.Fatal(err)
	}
	if decodedJWS.Algorithm != jws.ALG_HS256 {
		t.Errorf("expected JWS header alg %q, got %q", jws.ALG_HS256, decodedJWS.Algorithm)
	}
}
