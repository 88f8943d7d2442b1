package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const secret = "unit-test-secret"

func sign(t *testing.T, signingSecret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(signingSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifier_Verify(t *testing.T) {
	verifier := NewVerifier(secret)
	userID := uuid.New()

	tests := []struct {
		name     string
		token    string
		wantErr  bool
		wantName string
	}{
		{
			name: "valid token with name",
			token: sign(t, secret, jwt.MapClaims{
				"sub":  userID.String(),
				"name": "ada",
				"exp":  time.Now().Add(time.Hour).Unix(),
			}),
			wantName: "ada",
		},
		{
			name: "valid token without name",
			token: sign(t, secret, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name:    "malformed token",
			token:   "not-a-token",
			wantErr: true,
		},
		{
			name: "expired token",
			token: sign(t, secret, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "wrong signature",
			token: sign(t, "other-secret", jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "subject is not a uuid",
			token: sign(t, secret, jwt.MapClaims{
				"sub": "0",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "missing subject",
			token: sign(t, secret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.Verify(tt.token)

			if tt.wantErr {
				if !errors.Is(err, ErrAuthFailed) {
					t.Fatalf("Verify() error = %v, want ErrAuthFailed", err)
				}
				if claims != nil {
					t.Error("Verify() returned claims alongside error")
				}
				return
			}

			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}
			if claims.UserID != userID {
				t.Errorf("UserID = %s, want %s", claims.UserID, userID)
			}
			if claims.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", claims.Name, tt.wantName)
			}
		})
	}
}
