package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	password := "correct horse battery staple"
	salt := []byte("somesweetandsaltysalt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Error("DeriveKey with same inputs produced different results")
	}

	key3 := DeriveKey("different password", salt)
	if bytes.Equal(key1, key3) {
		t.Error("DeriveKey with different passwords produced same results")
	}

	if len(key1) != 32 {
		t.Errorf("Expected 32-byte key, got %d bytes", len(key1))
	}
}

func TestBcryptRoundTrip(t *testing.T) {
	hash, err := HashPassword("mypassword")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	ok, err := VerifyPassword("mypassword", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword failed for correct password: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrongpassword", hash)
	if err != nil || ok {
		t.Errorf("VerifyPassword succeeded for wrong password: ok=%v err=%v", ok, err)
	}
}

func TestArgon2idRoundTrip(t *testing.T) {
	hash, err := HashArgon2id("secret words")
	if err != nil {
		t.Fatalf("HashArgon2id failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword("secret words", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword failed for correct password: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("other words", hash)
	if err != nil || ok {
		t.Errorf("VerifyPassword succeeded for wrong password: ok=%v err=%v", ok, err)
	}
}

func TestVerifyPasswordBadHashes(t *testing.T) {
	cases := []struct {
		name string
		hash string
		want error
	}{
		{"empty", "", ErrUnsupportedScheme},
		{"plaintext", "hunter2", ErrUnsupportedScheme},
		{"md5crypt", "$1$abcdefgh$0123456789abcdefghijkl", ErrUnsupportedScheme},
		{"truncated bcrypt", "$2b$12$short", ErrMalformedHash},
		{"argon2id missing parts", "$argon2id$v=19$m=65536", ErrMalformedHash},
		{"argon2id bad params", "$argon2id$v=19$m=x,t=1,p=4$c2FsdA$a2V5", ErrMalformedHash},
		{"argon2id bad salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5", ErrMalformedHash},
		{"argon2id other version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$a2V5", ErrUnsupportedScheme},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := VerifyPassword("anything", tc.hash)
			if ok {
				t.Error("VerifyPassword returned true for an unusable hash")
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeriveSessionKeys(t *testing.T) {
	auth1, enc1, err := DeriveSessionKeys("test-secret")
	if err != nil {
		t.Fatalf("DeriveSessionKeys failed: %v", err)
	}
	auth2, enc2, _ := DeriveSessionKeys("test-secret")

	if len(auth1) != 32 || len(enc1) != 32 {
		t.Fatalf("expected 32-byte keys, got %d and %d", len(auth1), len(enc1))
	}
	if !bytes.Equal(auth1, auth2) || !bytes.Equal(enc1, enc2) {
		t.Error("DeriveSessionKeys is not deterministic")
	}
	if bytes.Equal(auth1, enc1) {
		t.Error("auth and encryption keys must differ")
	}

	if _, _, err := DeriveSessionKeys(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestDeriveCSRFKey(t *testing.T) {
	key, err := DeriveCSRFKey("test-secret")
	if err != nil {
		t.Fatalf("DeriveCSRFKey failed: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(key))
	}

	authKey, encKey, _ := DeriveSessionKeys("test-secret")
	if bytes.Equal(key, authKey) || bytes.Equal(key, encKey) {
		t.Error("csrf key must differ from the ticket keys")
	}

	if _, err := DeriveCSRFKey(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestRandomKey(t *testing.T) {
	k1, _ := RandomKey(32)
	k2, _ := RandomKey(32)

	if k1 == k2 {
		t.Error("RandomKey produced identical keys")
	}
	if len(k1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(k1))
	}
}
