package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

// IdentityKey is the echo.Context key holding the verified *domain.Identity.
const IdentityKey = "identity"

// TokenVerifier turns a raw token into a verified identity.
type TokenVerifier interface {
	Verify(token string) (*domain.Identity, error)
}

// BearerAuth verifies the token carried in the Authorization header.
func BearerAuth(v TokenVerifier) echo.MiddlewareFunc {
	return authenticate(v, func(c echo.Context) (string, error) {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return "", domain.ErrMissingToken
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", domain.ErrMalformedToken
		}
		return strings.TrimSpace(parts[1]), nil
	})
}

// QueryTokenAuth verifies the token carried in the "token" query parameter.
// Download links use it because a browser navigation cannot set headers.
func QueryTokenAuth(v TokenVerifier) echo.MiddlewareFunc {
	return authenticate(v, func(c echo.Context) (string, error) {
		token := c.QueryParam("token")
		if token == "" {
			return "", domain.ErrMissingToken
		}
		return token, nil
	})
}

func authenticate(v TokenVerifier, extract func(echo.Context) (string, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := extract(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			identity, err := v.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by BearerAuth or QueryTokenAuth.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	identity, ok := c.Get(IdentityKey).(*domain.Identity)
	return identity, ok && identity != nil
}
