package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nightapi/nightapi/internal/model"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m, err := NewJWTManager("test-secret-at-least-32-characters!!", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := m.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token should have three segments: %s", token)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.Username != "alice" {
		t.Errorf("claims = (%d, %q), want (42, alice)", id, claims.Username)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	t.Parallel()

	m, _ := NewJWTManager("secret-one", time.Hour)
	other, _ := NewJWTManager("secret-two", time.Hour)

	expired, _ := NewJWTManager("secret-one", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, _ := expired.GenerateToken(1, "bob")

	foreign, _ := other.GenerateToken(1, "bob")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "bob"})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", oldToken},
		{"wrong secret", foreign},
		{"alg none", noneToken},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestUserContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if UserFromContext(ctx) != nil || UserIDFromContext(ctx) != nil {
		t.Error("anonymous context should have no user")
	}

	ctx = ContextWithUser(ctx, &model.User{ID: 9, Username: "carol"})
	if got := UserIDFromContext(ctx); got == nil || *got != 9 {
		t.Errorf("UserIDFromContext = %v, want 9", got)
	}
}
