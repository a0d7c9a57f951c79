package utils

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestParseSecretKey(t *testing.T) {
	raw := strings.Repeat("k", 32)

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"raw 32 bytes", raw, false},
		{"std base64", base64.StdEncoding.EncodeToString([]byte(raw)), false},
		{"url base64", base64.URLEncoding.EncodeToString([]byte(raw)), false},
		{"empty", "", true},
		{"too short", "short", true},
		{"base64 of wrong length", base64.StdEncoding.EncodeToString([]byte("short")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseSecretKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSecretKey: %v", err)
			}
			if string(key[:]) != raw {
				t.Fatal("parsed key does not match input")
			}
		})
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key, err := ParseSecretKey(strings.Repeat("a", 32))
	if err != nil {
		t.Fatalf("ParseSecretKey: %v", err)
	}

	plaintext := "sk-test-4f9c2e"
	ciphertext, err := EncryptSecret(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatal("ciphertext must not equal plaintext")
	}

	decrypted, err := DecryptSecret(key, ciphertext)
	if err != nil {
		t.Fatalf("DecryptSecret: %v", err)
	}
	if decrypted != plaintext {
		t.Fatalf("roundtrip mismatch: %q", decrypted)
	}

	// A second encryption uses a fresh nonce.
	again, err := EncryptSecret(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	if again == ciphertext {
		t.Fatal("two encryptions must not produce the same ciphertext")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	keyA, _ := ParseSecretKey(strings.Repeat("a", 32))
	keyB, _ := ParseSecretKey(strings.Repeat("b", 32))

	ciphertext, err := EncryptSecret(keyA, "secret")
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	if _, err := DecryptSecret(keyB, ciphertext); err == nil {
		t.Fatal("wrong key must not decrypt")
	}
}

func TestDecryptRejectsMalformed(t *testing.T) {
	key, _ := ParseSecretKey(strings.Repeat("a", 32))

	if _, err := DecryptSecret(key, "%%not-base64%%"); err == nil {
		t.Fatal("invalid base64 must error")
	}
	if _, err := DecryptSecret(key, base64.StdEncoding.EncodeToString([]byte("tiny"))); err == nil {
		t.Fatal("truncated ciphertext must error")
	}
}
