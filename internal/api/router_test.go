package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/leavehub/approval-system/internal/api/handler"
	"github.com/leavehub/approval-system/internal/api/middleware"
	"github.com/leavehub/approval-system/internal/core/domain"
	"github.com/leavehub/approval-system/internal/core/service"
)

// memoryUserRepo lets the full pipeline run without Mongo.
type memoryUserRepo struct {
	users map[string]*domain.User
}

func (r *memoryUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *memoryUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email != "" && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	r.users[user.Username] = user
	return user, nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func signExpired(t *testing.T, username string) string {
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

// newTestServer wires the auth pipeline exactly as NewRouter does, minus the
// external backends.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := zerolog.Nop()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	repo := &memoryUserRepo{users: make(map[string]*domain.User)}
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := service.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	authService := service.NewAuthService(repo, hasher, tokens, nil, nil, log)
	authHandler := handler.NewAuthHandler(authService)

	e.Use(middleware.Authenticate(tokens, repo, log))

	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/profile", authHandler.Profile, middleware.RequireAuth())

	return e
}

func doJSON(e *echo.Echo, method, path, body, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPipeline_RegisterLoginProfile(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"username":"alice","password":"secret1","email":"a@example.com"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	data := resp["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" || data["tokenType"] != "Bearer" {
		t.Fatalf("unexpected login payload: %+v", data)
	}

	rec = doJSON(e, http.MethodGet, "/api/auth/profile", "", "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("profile payload missing username: %s", rec.Body.String())
	}
}

func TestPipeline_ProfileWithoutTokenIs401(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/auth/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if resp["message"] != "authentication required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

// An expired token denies the protected route but does not block unprotected
// routes: the filter never fails a request on its own.
func TestPipeline_ExpiredTokenOnlyBlocksProtectedRoutes(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"username":"bob","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	expired := signExpired(t, "bob")

	rec = doJSON(e, http.MethodGet, "/api/auth/profile", "", "Bearer "+expired)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("profile with expired token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/auth/login",
		`{"username":"bob","password":"secret1"}`, "Bearer "+expired)
	if rec.Code != http.StatusOK {
		t.Fatalf("login with expired token attached: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestPipeline_BadCredentialsMessagesMatch(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"username":"carol","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	noUser := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"username":"nouser","password":"anything"}`, "")
	wrongPass := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"username":"carol","password":"wrongpass"}`, "")

	if noUser.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", noUser.Code, wrongPass.Code)
	}

	var a, b map[string]any
	_ = json.Unmarshal(noUser.Body.Bytes(), &a)
	_ = json.Unmarshal(wrongPass.Body.Bytes(), &b)
	if a["message"] != b["message"] || a["code"] != b["code"] {
		t.Fatalf("responses distinguish unknown user from wrong password: %v vs %v", a, b)
	}
}

func TestPipeline_DuplicateRegistrationIs400(t *testing.T) {
	e := newTestServer(t)

	body := `{"username":"dave","password":"secret1"}`
	if rec := doJSON(e, http.MethodPost, "/api/auth/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/api/auth/register", body, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second register: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "username") {
		t.Fatalf("conflict response does not name the field: %s", rec.Body.String())
	}
}

func TestPipeline_ValidationFailureIs400WithFieldMap(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"username":"x","password":"short","email":"bad"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected field map in data: %s", rec.Body.String())
	}
	if _, ok := data["username"]; !ok {
		t.Fatalf("missing username violation: %+v", data)
	}
}
