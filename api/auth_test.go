package api

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/photobooth/store"
)

func newTestAuth(t *testing.T, ttl time.Duration) *AdminAuth {
	t.Helper()
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAdminAuth(db, ttl)
}

func TestBootstrap(t *testing.T) {
	a := newTestAuth(t, time.Minute)
	if err := a.Bootstrap("booth-pass"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	// a stored hash wins over later bootstrap values
	if err := a.Bootstrap("other-pass"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, _, err := a.Login("other-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := a.Login("booth-pass"); err != nil {
		t.Errorf("Login: %v", err)
	}
}

func TestBootstrap_Default(t *testing.T) {
	a := newTestAuth(t, time.Minute)
	if err := a.Bootstrap(""); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, _, err := a.Login(DefaultAdminPassword); err != nil {
		t.Errorf("Login with default: %v", err)
	}
}

func TestLogin_NoPassword(t *testing.T) {
	a := newTestAuth(t, time.Minute)
	if _, _, err := a.Login("anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	a := newTestAuth(t, time.Minute)
	if err := a.Bootstrap("pass"); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	token, expires, err := a.Login("pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !expires.Equal(now.Add(time.Minute)) {
		t.Errorf("expires = %v", expires)
	}
	if err := a.Validate(token); err != nil {
		t.Errorf("Validate: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := a.Validate(token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired err = %v, want ErrUnauthorized", err)
	}
	if err := a.Validate("unknown"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown err = %v, want ErrUnauthorized", err)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("abc"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("err = %v, want ErrWeakPassword", err)
	}
	hash, err := HashPassword("abcd")
	if err != nil || hash == "abcd" || hash == "" {
		t.Errorf("hash = %q, err %v", hash, err)
	}
}
