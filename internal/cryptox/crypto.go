// Package cryptox provides the symmetric primitives behind the record codec:
// argon2id key derivation and AES-GCM sealing with a prepended nonce.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length produced by DeriveKey.
const KeySize = 32

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey stretches a passphrase into a KeySize-byte key using argon2id
// (1 pass, 64 MiB, 4 lanes). Same inputs always yield the same key.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-GCM under key. The random nonce is
// prepended to the returned ciphertext.
//
// The key must be 16, 24 or 32 bytes long.
func Seal(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	out := make([]byte, 0, len(nonce)+len(plaintext)+aesgcm.Overhead())
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal. Tampered input or a wrong key yields an error and no
// plaintext.
func Open(sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(sealed) < ns+aesgcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	return aesgcm.Open(nil, sealed[:ns], sealed[ns:], nil)
}
