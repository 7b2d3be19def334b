package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

type errorMapping struct {
	target error
	status int
	msg    string // empty: use err.Error()
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrMissingToken, http.StatusUnauthorized, "missing token"},
	{domain.ErrMalformedToken, http.StatusUnauthorized, "malformed token"},
	{domain.ErrExpiredToken, http.StatusUnauthorized, "token has expired"},
	{domain.ErrInvalidSignature, http.StatusUnauthorized, "invalid token signature"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrMissingFields, http.StatusBadRequest, ""},
	{domain.ErrInvalidRole, http.StatusBadRequest, ""},
	{domain.ErrFileTooLarge, http.StatusBadRequest, ""},
	{domain.ErrNoFileProvided, http.StatusBadRequest, ""},
	{domain.ErrInvalidPath, http.StatusBadRequest, ""},
	{domain.ErrPasswordLength, http.StatusBadRequest, ""},
	{domain.ErrDuplicateEmail, http.StatusBadRequest, "email already registered"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrFileNotFound, http.StatusNotFound, "file not found"},
}

// HTTPError converts err into an *echo.HTTPError carrying the status the
// client should see. The original error is kept as Internal for logging.
// Anything unrecognised becomes a bare 500.
func HTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.msg
			if msg == "" {
				msg = err.Error()
			}
			return echo.NewHTTPError(m.status, msg).SetInternal(err)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
