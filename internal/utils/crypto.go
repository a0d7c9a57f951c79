package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// ParseSecretKey accepts either a raw 32-byte key or a base64-encoded one.
func ParseSecretKey(key string) (*[32]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("encryption key is empty")
	}
	raw := []byte(key)
	if len(raw) != 32 {
		decoded, err := base64.URLEncoding.DecodeString(key)
		if err != nil {
			decoded, err = base64.StdEncoding.DecodeString(key)
		}
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("encryption key must be 32 bytes raw or base64-encoded")
		}
		raw = decoded
	}
	var out [32]byte
	copy(out[:], raw)
	return &out, nil
}

// EncryptSecret seals plaintext with a random nonce; output is
// base64(nonce || box).
func EncryptSecret(key *[32]byte, plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func DecryptSecret(key *[32]byte, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < 24 {
		return "", fmt.Errorf("ciphertext too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, key)
	if !ok {
		return "", fmt.Errorf("decryption failed")
	}
	return string(opened), nil
}
