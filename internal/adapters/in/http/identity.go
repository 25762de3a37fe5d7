package http

import (
	"net/http"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// Identity claims are verified upstream and forwarded as headers.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"
)

const identityKey = "identity"

// IdentityMiddleware turns the identity headers into an identity.Identity for
// every /api/v1 route. Other routes pass untouched.
func IdentityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Path(), "/api/v1/") {
				return next(c)
			}

			h := c.Request().Header
			userID, err := kernel.UUIDFromString(strings.TrimSpace(h.Get(HeaderUserID)))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed "+HeaderUserID)
			}
			role, err := identity.ParseRole(h.Get(HeaderUserRole))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or unknown "+HeaderUserRole)
			}
			caller, err := identity.NewIdentity(userID, role, h.Get(HeaderUserEmail))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid identity claims")
			}

			c.Set(identityKey, caller)
			return next(c)
		}
	}
}

// callerOf returns the identity set by IdentityMiddleware. A zero Identity fails
// every authorization check.
func callerOf(c echo.Context) identity.Identity {
	caller, _ := c.Get(identityKey).(identity.Identity)
	return caller
}
