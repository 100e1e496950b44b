package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "user_role"
)

// Account is the slice of a user record the middleware needs to admit a
// request: who they are, what they may do, and whether the account is live.
type Account struct {
	ID     uuid.UUID
	Role   string
	Active bool
}

// AccountLoader resolves token subjects to live accounts. Deactivated or
// deleted accounts must not authenticate even while their token is unexpired.
type AccountLoader interface {
	AccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
}

// Middleware parses the bearer token, loads the account behind it, and puts
// the identity on the request context. Every failure path is a 401; no
// handler or repository write runs for a rejected request.
func Middleware(issuer *Issuer, loader AccountLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			acct, err := loader.AccountByID(c.Request().Context(), userID)
			if err != nil || acct == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "account not found")
			}
			if !acct.Active {
				return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, acct.ID)
			ctx = context.WithValue(ctx, RoleKey, acct.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	uid, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}
