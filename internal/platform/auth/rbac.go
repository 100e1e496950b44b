package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role values form a closed set. Every account carries exactly one.
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RolePatient      = "patient"
	RolePharmacist   = "pharmacist"
	RoleReceptionist = "receptionist"
	RoleNurse        = "nurse"
)

var validRoles = map[string]bool{
	RoleAdmin:        true,
	RoleDoctor:       true,
	RolePatient:      true,
	RolePharmacist:   true,
	RoleReceptionist: true,
	RoleNurse:        true,
}

// IsValidRole reports whether role is a member of the closed role set.
func IsValidRole(role string) bool {
	return validRoles[role]
}

// RequireRole returns middleware that admits the request only when the
// account's role is an exact member of the allow-list. There is no role
// hierarchy: admin does not imply doctor, and routes that should accept
// admins must list admin explicitly.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
