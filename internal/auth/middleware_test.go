package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lantern-backend/internal/gameerr"
)

func newTestMiddleware(t *testing.T, secret []byte) *Middleware {
	t.Helper()
	authorizer, err := NewAuthorizer(secret, NewDefaultPolicy(nil))
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	return NewMiddleware(authorizer)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	mw := newTestMiddleware(t, []byte("test-secret"))
	handler := mw.Require(CommandHackLantern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lantern/hack", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_PlayerForbiddenStartRound(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "user-1", "player")
	mw := newTestMiddleware(t, secret)
	handler := mw.Require(CommandStartRound, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lantern/rounds/1/start", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_PlayerAllowedHackWithIdentity(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "user-7", "player")
	mw := newTestMiddleware(t, secret)
	var seen string
	handler := mw.Require(CommandHackLantern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lantern/hack", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen != "user-7" {
		t.Fatalf("expected identity user-7, got %q", seen)
	}
}

func TestAuthorizer_IsUserAllowed(t *testing.T) {
	secret := []byte("test-secret")
	authorizer, err := NewAuthorizer(secret, NewDefaultPolicy(map[string]Role{CommandUpdateTeam: RoleAdmin}))
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}

	cases := []struct {
		name    string
		token   string
		command string
		wantErr error
	}{
		{name: "admin starts round", token: mustToken(t, secret, "admin-1", "admin"), command: CommandStartRound},
		{name: "moderator cannot update team after override", token: mustToken(t, secret, "mod-1", "moderator"), command: CommandUpdateTeam, wantErr: gameerr.ErrNotAllowed},
		{name: "unknown command", token: mustToken(t, secret, "admin-1", "admin"), command: "DropTables", wantErr: gameerr.ErrNotAllowed},
		{name: "bad signature", token: mustToken(t, []byte("other"), "admin-1", "admin"), command: CommandStartRound, wantErr: gameerr.ErrUnauthorized},
		{name: "invalid role", token: mustToken(t, secret, "user-1", "root"), command: CommandGetRound, wantErr: gameerr.ErrUnauthorized},
		{name: "empty token", token: "", command: CommandGetRound, wantErr: gameerr.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := authorizer.IsUserAllowed(tc.token, tc.command)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if identity.UserID == "" {
					t.Fatal("expected identity")
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIssueJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueJWT(secret, "user-9", RoleModerator, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-9" || claims.Role != string(RoleModerator) {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func mustToken(t *testing.T, secret []byte, userID, role string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
