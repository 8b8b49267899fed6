package auth_test

import (
	"testing"

	"github.com/mgoiri/geolens/internal/pkg/auth"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := auth.NewJWTManager("test-secret", "geolens")

	token, err := m.Issue("user-1", "ane@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "ane@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := auth.NewJWTManager("secret-a", "geolens").Issue("user-1", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = auth.NewJWTManager("secret-b", "geolens").Validate(token)
	if err != auth.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_Garbage(t *testing.T) {
	m := auth.NewJWTManager("test-secret", "geolens")
	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Validate(bad); err == nil {
			t.Errorf("token %q should not validate", bad)
		}
	}
}

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if !auth.CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
}

func TestPassword_LongInputTruncated(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}

	hash, err := auth.HashPassword(string(long))
	if err != nil {
		t.Fatal(err)
	}
	// Bytes past 72 do not participate in the hash.
	if !auth.CheckPassword(hash, string(long[:72])) {
		t.Error("72-byte prefix should verify")
	}
	if !auth.CheckPassword(hash, string(long)) {
		t.Error("full long password should verify")
	}
}
