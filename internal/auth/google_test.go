package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"smartdoc-backend/internal/credits"
	sharedauth "smartdoc-backend/internal/shared/auth"
)

type fakeAccounts struct {
	users []string
	err   error
}

func (f *fakeAccounts) Account(ctx context.Context, userID string) (credits.Account, error) {
	f.users = append(f.users, userID)
	if f.err != nil {
		return credits.Account{}, f.err
	}
	return credits.Account{UserID: userID, Credits: 5, SubscriptionTier: credits.TierFree}, nil
}

func TestStateIsSingleUse(t *testing.T) {
	s := newStateStore()
	s.put("abc", time.Now().Add(time.Minute))
	if !s.consume("abc") {
		t.Fatalf("expected first consume to succeed")
	}
	if s.consume("abc") {
		t.Fatalf("state must not be reusable")
	}

	s.put("old", time.Now().Add(-time.Second))
	if s.consume("old") {
		t.Fatalf("expired state accepted")
	}
}

func TestAppendTokenKeepsQuery(t *testing.T) {
	got, err := appendToken("https://app.example.com/login?next=%2Fdashboard", "tok")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(got, "next=%2Fdashboard") || !strings.Contains(got, "token=tok") {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}

func TestStartWithoutCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("", "", "", "", nil).RegisterRoutes(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/ui", nil).RegisterRoutes(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=forged&code=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProvisionOpensAccountAndToleratesFailure(t *testing.T) {
	accounts := &fakeAccounts{}
	s := NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/ui", accounts)
	s.provision(context.Background(), "google:1")

	accounts.err = errors.New("db down")
	s.provision(context.Background(), "google:2")
	if len(accounts.users) != 2 || accounts.users[0] != "google:1" || accounts.users[1] != "google:2" {
		t.Fatalf("unexpected provisioning calls %v", accounts.users)
	}

	NewGoogleService("id", "secret", "", "", nil).provision(context.Background(), "google:3")
}

func TestLoginRedirectCarriesSignedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "auth-test-secret")
	s := NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/ui?next=docs", nil)

	got, err := s.loginRedirect("google:42", googleUserInfo{Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("loginRedirect: %v", err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if u.Query().Get("next") != "docs" {
		t.Fatalf("existing query lost in %q", got)
	}
	claims, err := sharedauth.VerifyJWT(u.Query().Get("token"))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "google:42" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestStatePutDropsExpiredEntries(t *testing.T) {
	s := newStateStore()
	s.put("stale", time.Now().Add(-time.Minute))
	s.put("fresh", time.Now().Add(time.Minute))
	if _, ok := s.items["stale"]; ok {
		t.Fatalf("expected expired state to be dropped")
	}
	if len(s.items) != 1 {
		t.Fatalf("expected one live state, got %d", len(s.items))
	}
}
