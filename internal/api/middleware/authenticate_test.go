package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leavehub/approval-system/internal/core/domain"
	"github.com/leavehub/approval-system/internal/core/ports"
	"github.com/leavehub/approval-system/internal/core/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubUserRepo) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.users[user.Username] = user
	return user, nil
}

// issueExpired signs a token whose expiry already passed, under the same key
// the filter verifies with.
func issueExpired(t *testing.T, username string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return raw
}

func newFixtures(t *testing.T) (ports.TokenService, *stubUserRepo) {
	t.Helper()
	tokens, err := service.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	repo := &stubUserRepo{users: map[string]*domain.User{
		"alice": {Username: "alice", Enabled: true},
	}}
	return tokens, repo
}

func runFilter(t *testing.T, tokens ports.TokenService, repo ports.UserRepository, header string) (echo.Context, *httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reachedNext := false
	mw := Authenticate(tokens, repo, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		reachedNext = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("filter returned error: %v", err)
	}
	return c, rec, reachedNext
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tokens, repo := newFixtures(t)
	raw, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c, rec, reachedNext := runFilter(t, tokens, repo, "Bearer "+raw)
	if !reachedNext {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	principal, ok := CurrentPrincipal(c)
	if !ok {
		t.Fatalf("principal not populated")
	}
	if principal.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestAuthenticate_NoHeaderProceedsAnonymous(t *testing.T) {
	tokens, repo := newFixtures(t)

	c, _, reachedNext := runFilter(t, tokens, repo, "")
	if !reachedNext {
		t.Fatalf("next not called")
	}
	if _, ok := CurrentPrincipal(c); ok {
		t.Fatalf("expected no principal")
	}
}

func TestAuthenticate_SchemePrefixIsCaseSensitive(t *testing.T) {
	tokens, repo := newFixtures(t)
	raw, _ := tokens.Issue("alice")

	for _, header := range []string{"bearer " + raw, "BEARER " + raw, "Token " + raw, raw} {
		c, _, reachedNext := runFilter(t, tokens, repo, header)
		if !reachedNext {
			t.Fatalf("next not called for header %q", header)
		}
		if _, ok := CurrentPrincipal(c); ok {
			t.Fatalf("header %q should not authenticate", header)
		}
	}
}

func TestAuthenticate_GarbageTokenProceedsAnonymous(t *testing.T) {
	tokens, repo := newFixtures(t)

	c, _, reachedNext := runFilter(t, tokens, repo, "Bearer not-a-token")
	if !reachedNext {
		t.Fatalf("next not called")
	}
	if _, ok := CurrentPrincipal(c); ok {
		t.Fatalf("expected no principal")
	}
}

func TestAuthenticate_ExpiredTokenProceedsAnonymous(t *testing.T) {
	tokens, repo := newFixtures(t)
	raw := issueExpired(t, "alice")

	c, _, reachedNext := runFilter(t, tokens, repo, "Bearer "+raw)
	if !reachedNext {
		t.Fatalf("next not called")
	}
	if _, ok := CurrentPrincipal(c); ok {
		t.Fatalf("expected no principal for expired token")
	}
}

// Token issued for a user who has since been deleted: deliberately the same
// outcome as sending no header at all.
func TestAuthenticate_DeletedUserProceedsAnonymous(t *testing.T) {
	tokens, repo := newFixtures(t)
	raw, _ := tokens.Issue("alice")
	delete(repo.users, "alice")

	c, _, reachedNext := runFilter(t, tokens, repo, "Bearer "+raw)
	if !reachedNext {
		t.Fatalf("next not called")
	}
	if _, ok := CurrentPrincipal(c); ok {
		t.Fatalf("expected no principal after user deletion")
	}
}

func TestAuthenticate_DoesNotOverwriteExistingPrincipal(t *testing.T) {
	tokens, repo := newFixtures(t)
	repo.users["bob"] = &domain.User{Username: "bob", Enabled: true}
	raw, _ := tokens.Issue("bob")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(principalKey, domain.Principal{Username: "alice"})

	mw := Authenticate(tokens, repo, zerolog.Nop())
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := handler(c); err != nil {
		t.Fatalf("filter returned error: %v", err)
	}

	principal, _ := CurrentPrincipal(c)
	if principal.Username != "alice" {
		t.Fatalf("existing principal was overwritten: %+v", principal)
	}
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()

	// Without a principal the route is rejected.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	mw := RequireAuth()
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	// With one it passes through.
	c = e.NewContext(req, httptest.NewRecorder())
	c.Set(principalKey, domain.Principal{Username: "alice"})
	if err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
		t.Fatalf("expected passthrough, got %v", err)
	}
}
