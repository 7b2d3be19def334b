package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhub/materials-portal/internal/api/middleware"
	"github.com/studyhub/materials-portal/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the auth middleware.
// A handler mounted without the middleware fails closed with 401.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok || identity.UserID == "" || identity.Role == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}
