package jws

import (
	"testing"

	"github.com/go-test/deep"
)

func TestHeader(t *testing.T) {
	h := Header{
		Algorithm: "none",
		Type:      "JWT",
		KeyID:     "key-1",
		X5T:       "thumb",
	}

	encoded := h.Encode()
	decoded, err := DecodeHeader(encoded)

	if err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(h, *decoded); diff != nil {
		t.Error(diff)
	}
}

func TestHeader_invalidEncoding(t *testing.T) {
	if _, err := DecodeHeader("not base64url!"); err == nil {
		t.Fatal("expected an error")
	}

	if _, err := DecodeHeader(enc.EncodeToString([]byte("not json"))); err == nil {
		t.Fatal("expected an error")
	}
}

func TestNone(t *testing.T) {
	sm := None()

	if sm.Alg() != ALG_NONE {
		t.Error(sm.Alg())
	}

	data := []byte("hello, world")

	sig, err := sm.Sign(data)
	if err != nil {
		t.Fatal(err)
	}

	s := enc.EncodeToString(sig)
	if s != "" {
		t.Error(s)
	}

	if err := sm.Verify(ALG_NONE, data, sig); err != nil {
		t.Error(err)
	}
}
