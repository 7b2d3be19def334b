package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/studyhub/materials-portal/internal/api/middleware"
	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Verify(string) (*domain.Identity, error) {
	return nil, domain.ErrMalformedToken
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// statusOf runs err through echo's error handler the way the server does.
func statusOf(e *echo.Echo, c echo.Context, rec *httptest.ResponseRecorder, err error) int {
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code
}

const validRegistration = `{"name":"A","email":"a@x.com","password":"p","department":"CSE","role":"student"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
			if in.Name != "A" || in.Email != "a@x.com" || in.Department != "CSE" || in.Role != "student" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return "tok", &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: "secret-hash"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/register", validRegistration), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" || resp["message"] == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["name"] != "A" || user["email"] != "a@x.com" || user["role"] != "student" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatal("password hash leaked into response")
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"duplicate email", validRegistration, domain.ErrDuplicateEmail, http.StatusBadRequest},
		{"invalid role", validRegistration, domain.ErrInvalidRole, http.StatusBadRequest},
		{"store down", validRegistration, errors.New("db gone"), http.StatusInternalServerError},
		{"missing fields", `{"name":"A"}`, nil, http.StatusBadRequest},
		{"not json", "not-json", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			called := false
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (string, *domain.User, error) {
					called = true
					return "", nil, tt.err
				},
			}

			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/register", tt.body), rec)
			err := NewAuthHandler(stub).Register(c)

			if got := statusOf(e, c, rec, err); got != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, got)
			}
			if tt.err == nil && called {
				t.Fatal("service should not be called for an invalid payload")
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			if email != "a@x.com" || password != "p" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{Name: "A", Email: email, Role: domain.RoleTeacher}, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"p"}`), rec)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.User.Role != domain.RoleTeacher {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"wrong"}`), rec)
	err := NewAuthHandler(stub).Login(c)

	if got := statusOf(e, c, rec, err); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			t.Fatal("should not be called")
			return "", nil, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/login", `{"email":"a@x.com"}`), rec)
	_ = NewAuthHandler(stub).Login(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_VerifyToken(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/verify-token", nil), rec)
	c.Set(middleware.IdentityKey, &domain.Identity{UserID: "u1", Name: "A", Role: "student", Email: "a@x.com"})

	if err := NewAuthHandler(&stubAuthService{}).VerifyToken(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		User map[string]string `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	want := map[string]string{"userId": "u1", "name": "A", "role": "student", "email": "a@x.com"}
	for k, v := range want {
		if resp.User[k] != v {
			t.Errorf("user.%s = %q, want %q", k, resp.User[k], v)
		}
	}
}

func TestAuthHandler_VerifyToken_WithoutMiddleware(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/verify-token", nil), rec)

	err := NewAuthHandler(&stubAuthService{}).VerifyToken(c)
	if got := statusOf(e, c, rec, err); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}
