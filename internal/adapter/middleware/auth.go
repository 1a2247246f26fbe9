package middleware

import (
	"errors"
	"net/http"
	"strings"

	"lending-ledger/internal/domain/user"
	"lending-ledger/pkg/token"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// Authenticate verifies the bearer token and stores the caller's identity on
// the echo context. Handlers read it back with IdentityFrom and pass it on
// explicitly.
func Authenticate(p TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "missing bearer token"})
			}
			claims, err := p.Parse(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, token.ErrTokenExpired) {
					msg = "token expired"
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": msg})
			}
			role := user.Role(claims.Role)
			if !role.Valid() || !reHex32.MatchString(claims.UserID) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			}
			c.Set(identityKey, user.Identity{UserID: claims.UserID, Role: role})
			return next(c)
		}
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthenticated"})
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"message": "forbidden for role " + string(id.Role)})
		}
	}
}

func IdentityFrom(c echo.Context) (user.Identity, bool) {
	id, ok := c.Get(identityKey).(user.Identity)
	return id, ok
}

func bearer(h string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
