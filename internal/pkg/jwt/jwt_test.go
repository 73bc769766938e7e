package jwt

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func TestSignParseRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-1", "teacher", "Ms. Reed", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("uid = %q, want user-1", claims.UserID)
	}
	if claims.Role != "teacher" {
		t.Errorf("role = %q, want teacher", claims.Role)
	}
	if claims.Name != "Ms. Reed" {
		t.Errorf("name = %q, want Ms. Reed", claims.Name)
	}
}

func TestParseExpired(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-1", "parent", "", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseWrongSecret(t *testing.T) {
	SetSecret("secret-a")
	token, err := Sign("user-1", "", "", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	SetSecret("secret-b")
	defer SetSecret("secret-a")
	if _, err := Parse(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseMissingUserID(t *testing.T) {
	SetSecret("test-secret")

	// Token signed with our secret but no uid claim.
	raw := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = Parse(token)
	if err == nil {
		t.Fatal("expected error for token without uid claim")
	}
	if !strings.Contains(err.Error(), "user id") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	SetSecret("test-secret")
	if _, err := Parse("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
