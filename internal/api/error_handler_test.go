package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"domain not found", domain.ErrFileNotFound, http.StatusNotFound, "file not found"},
		{"wrapped validation", fmt.Errorf("file name: %w", domain.ErrInvalidPath), http.StatusBadRequest, "file name: invalid path segment"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "token has expired"), http.StatusUnauthorized, "token has expired"},
		{"echo 404", echo.ErrNotFound, http.StatusNotFound, "Not Found"},
		{"storage", fmt.Errorf("%w: write /var/data/materials.json", domain.ErrStorage), http.StatusInternalServerError, "internal server error"},
		{"unknown", errors.New("kaboom"), http.StatusInternalServerError, "internal server error"},
		{"echo 500 with detail", echo.NewHTTPError(http.StatusInternalServerError, "secret detail"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, body.Error)
			}
		})
	}
}
