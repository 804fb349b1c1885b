package jwe

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
)

// ErrAuthenticationFailed is returned by Decrypt when the authentication
// tag does not match the ciphertext and additional authenticated data.
var ErrAuthenticationFailed = errors.New("jwe: authentication failed")

// aeadProvider implements provider.AuthenticatedEncryptionProvider using the
// AES-CBC-HS authenticated encryption construction of RFC 7518 section
// 5.2. cek is split into a MAC key (first half) and an AES key (second
// half), per section 5.2.2.1.
type aeadProvider struct {
	macKey []byte
	encKey []byte
	hf     func() hash.Hash
	tagLen int
}

// NewAEADProvider builds the AES-CBC-HMAC provider for enc using the given
// content-encryption key. len(cek) must equal CEKBitSize(enc)/8.
func NewAEADProvider(enc ContentEncryptionAlgorithm, cek []byte) (*aeadProvider, error) {
	bits, err := CEKBitSize(enc)
	if err != nil {
		return nil, err
	}
	if len(cek)*8 != bits {
		return nil, fmt.Errorf("jwe: cek for %s must be %d bits, got %d", enc, bits, len(cek)*8)
	}

	half := len(cek) / 2
	p := &aeadProvider{
		macKey: cek[:half],
		encKey: cek[half:],
	}

	switch enc {
	case A128CBC_HS256:
		p.hf, p.tagLen = sha256.New, 16
	case A192CBC_HS384:
		p.hf, p.tagLen = sha512.New384, 24
	case A256CBC_HS512:
		p.hf, p.tagLen = sha512.New, 32
	}

	return p, nil
}

func (p *aeadProvider) Encrypt(plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(p.encKey)
	if err != nil {
		return nil, nil, nil, err
	}

	iv = make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	tag = p.tag(aad, iv, ciphertext)

	return iv, ciphertext, tag, nil
}

func (p *aeadProvider) Decrypt(iv, ciphertext, tag, aad []byte) ([]byte, error) {
	if !hmac.Equal(tag, p.tag(aad, iv, ciphertext)) {
		return nil, ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(p.encKey)
	if err != nil {
		return nil, err
	}
	if len(ciphertext)%aes.BlockSize != 0 || len(ciphertext) == 0 {
		return nil, ErrAuthenticationFailed
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	return pkcs7Unpad(padded)
}

// tag computes AAD || IV || ciphertext || AL (AAD bit-length, big-endian
// 64-bit), runs HMAC over it and truncates the output to tagLen bytes, as
// specified in RFC 7518 section 5.2.2.1.
func (p *aeadProvider) tag(aad, iv, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8)

	mac := hmac.New(p.hf, p.macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	mac.Write(al)

	return mac.Sum(nil)[:p.tagLen]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrAuthenticationFailed
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, ErrAuthenticationFailed
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrAuthenticationFailed
		}
	}
	return data[:len(data)-padLen], nil
}
