package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

var (
	ErrCiphertextTooShort = errors.New("ciphertext shorter than nonce")
	ErrDecryption         = errors.New("decryption failed")
)

// Encryptor seals and opens small payloads such as patient contact
// details before they reach storage.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type aesGCM struct {
	aead cipher.AEAD
}

// NewAESEncryptor builds an AES-GCM Encryptor. The key must be 16, 24
// or 32 bytes.
func NewAESEncryptor(key []byte) (Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aesGCM{aead: aead}, nil
}

// Encrypt prepends the random nonce to the sealed payload so the output
// is a single self-contained blob.
func (e *aesGCM) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *aesGCM) Decrypt(ciphertext []byte) ([]byte, error) {
	size := e.aead.NonceSize()
	if len(ciphertext) < size {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, ciphertext[:size], ciphertext[size:], nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
