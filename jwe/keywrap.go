package jwe

import (
	"crypto/aes"
	"encoding/binary"
	"errors"
	"fmt"
)

// defaultIV is the 64-bit integrity check value specified in RFC 3394
// section 2.2.3.1 (https://www.rfc-editor.org/rfc/rfc3394#section-2.2.3.1).
var defaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// ErrUnwrapFailed is returned by Unwrap when the integrity check value does
// not match, meaning the wrapping key or wrapped data is wrong.
var ErrUnwrapFailed = errors.New("jwe: key unwrap integrity check failed")

// keyWrapProvider implements provider.KeyWrapProvider using AES Key Wrap
// (RFC 3394) with the given key-encryption key.
type keyWrapProvider struct {
	kek []byte
}

// NewKeyWrapProvider builds an AES Key Wrap provider for alg using kek as
// the key-encryption key. len(kek)*8 must equal KeyWrapBitSize(alg).
func NewKeyWrapProvider(alg KeyManagementAlgorithm, kek []byte) (*keyWrapProvider, error) {
	bits, err := KeyWrapBitSize(alg)
	if err != nil {
		return nil, err
	}
	if len(kek)*8 != bits {
		return nil, fmt.Errorf("jwe: kek for %s must be %d bits, got %d", alg, bits, len(kek)*8)
	}
	return &keyWrapProvider{kek: kek}, nil
}

// WrapKey implements the AES Key Wrap algorithm of RFC 3394 section 2.2.1.
// cek's length must be a multiple of 8 bytes and at least 16.
func (p *keyWrapProvider) WrapKey(cek []byte) ([]byte, error) {
	if len(cek) < 16 || len(cek)%8 != 0 {
		return nil, fmt.Errorf("jwe: cek length must be a multiple of 8 bytes, >= 16, got %d", len(cek))
	}

	block, err := aes.NewCipher(p.kek)
	if err != nil {
		return nil, err
	}

	n := len(cek) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], cek[i*8:(i+1)*8])
	}

	a := defaultIV

	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)
			for k := range a {
				a[k] = buf[k] ^ tb[k]
			}
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(cek))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i][:])
	}

	return out, nil
}

// UnwrapKey reverses WrapKey, per RFC 3394 section 2.2.2.
func (p *keyWrapProvider) UnwrapKey(wrapped []byte) ([]byte, error) {
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, fmt.Errorf("jwe: wrapped key length must be a multiple of 8 bytes, >= 24, got %d", len(wrapped))
	}

	block, err := aes.NewCipher(p.kek)
	if err != nil {
		return nil, err
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[:8])

	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)

			var xored [8]byte
			for k := range a {
				xored[k] = a[k] ^ tb[k]
			}

			copy(buf[:8], xored[:])
			copy(buf[8:], r[i-1][:])
			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if a != defaultIV {
		return nil, ErrUnwrapFailed
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:(i+1)*8], r[i][:])
	}

	return out, nil
}
