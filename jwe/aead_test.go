package jwe

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestAEADProvider_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		enc    ContentEncryptionAlgorithm
		cekLen int
	}{
		{"A128CBC-HS256", A128CBC_HS256, 32},
		{"A192CBC-HS384", A192CBC_HS384, 48},
		{"A256CBC-HS512", A256CBC_HS512, 64},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cek := make([]byte, c.cekLen)
			if _, err := rand.Read(cek); err != nil {
				t.Fatal(err)
			}

			p, err := NewAEADProvider(c.enc, cek)
			if err != nil {
				t.Fatal(err)
			}

			plaintext := []byte("the quick brown fox jumps over the lazy dog")
			aad := []byte("eyJhbGciOiJIUzI1NiJ9")

			iv, ciphertext, tag, err := p.Encrypt(plaintext, aad)
			if err != nil {
				t.Fatal(err)
			}
			if len(iv) != 16 {
				t.Errorf("unexpected IV length: %d", len(iv))
			}

			got, err := p.Decrypt(iv, ciphertext, tag, aad)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("roundtrip mismatch: got %q, want %q", got, plaintext)
			}
		})
	}
}

func TestAEADProvider_WrongCEKLength(t *testing.T) {
	_, err := NewAEADProvider(A128CBC_HS256, make([]byte, 16))
	if err == nil {
		t.Fatal("expected error for undersized cek")
	}
}

func TestAEADProvider_TamperedTagFails(t *testing.T) {
	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		t.Fatal(err)
	}
	p, err := NewAEADProvider(A128CBC_HS256, cek)
	if err != nil {
		t.Fatal(err)
	}

	iv, ciphertext, tag, err := p.Encrypt([]byte("hello"), []byte("aad"))
	if err != nil {
		t.Fatal(err)
	}

	tag[0] ^= 0xFF

	if _, err := p.Decrypt(iv, ciphertext, tag, []byte("aad")); err != ErrAuthenticationFailed {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAEADProvider_WrongAADFails(t *testing.T) {
	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		t.Fatal(err)
	}
	p, err := NewAEADProvider(A128CBC_HS256, cek)
	if err != nil {
		t.Fatal(err)
	}

	iv, ciphertext, tag, err := p.Encrypt([]byte("hello"), []byte("aad-one"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Decrypt(iv, ciphertext, tag, []byte("aad-two")); err != ErrAuthenticationFailed {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}
