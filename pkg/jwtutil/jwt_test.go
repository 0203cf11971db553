package jwtutil

import (
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := util.GenerateToken("user@example.com", 7, 3, "Example Workspace", "owner")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := util.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("expected email preserved, got %q", claims.Email)
	}
	if claims.UserID != 7 || claims.WorkspaceID != 3 {
		t.Errorf("expected user 7 in workspace 3, got %d/%d", claims.UserID, claims.WorkspaceID)
	}
	if claims.Role != "owner" {
		t.Errorf("expected owner role, got %q", claims.Role)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	other := NewJWTUtil(&JWTConfig{SigningKey: "other-key", ExpirationHours: 1})

	token, err := util.GenerateToken("user@example.com", 7, 3, "", "member")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected validation failure with a different signing key")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	if _, err := util.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
