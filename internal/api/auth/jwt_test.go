package auth

import (
	"testing"
	"time"

	"github.com/pulseworks/pulseboard/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:        "u1",
		Username:  "alice",
		Role:      models.RoleTeamLead,
		Superuser: true,
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService([]byte("test-secret-test-secret-test-1234"), time.Hour)

	token, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "alice" {
		t.Errorf("claims = %s/%s, want u1/alice", claims.UserID, claims.Username)
	}
	if claims.Role != models.RoleTeamLead {
		t.Errorf("role = %s, want team_lead", claims.Role)
	}
	if !claims.Superuser {
		t.Error("superuser flag lost")
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	signer := NewJWTService([]byte("secret-one-secret-one-secret-one"), time.Hour)
	verifier := NewJWTService([]byte("secret-two-secret-two-secret-two"), time.Hour)

	token, err := signer.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("expected validation error with a different secret")
	}
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService([]byte("test-secret-test-secret-test-1234"), -time.Minute)

	token, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected validation error for expired token")
	}
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService([]byte("test-secret-test-secret-test-1234"), time.Hour)
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("expected validation error for malformed token")
	}
}
