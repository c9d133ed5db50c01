package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/h2ledger/h2ledger/internal/auth"
	"github.com/h2ledger/h2ledger/internal/config"
)

// sessionToken extracts the session token from the cookie or, for API
// clients, a bearer Authorization header.
func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(auth.SessionCookie); token != "" {
		return token
	}
	authz := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}
	return ""
}

// wantsHTML distinguishes browser navigation from API calls so that only
// the former is redirected to the login page.
func wantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), "text/html")
}

// SessionAuth gates protected routes on a valid signed session. Browser
// requests without one are redirected to /login; API requests get 401. On
// success the identity claims are stored in request locals.
func SessionAuth(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			if wantsHTML(c) {
				return c.Redirect("/login", http.StatusFound)
			}
			return fiber.NewError(http.StatusUnauthorized, "missing session")
		}

		claims, err := sessions.VerifySession(token)
		if err != nil {
			if wantsHTML(c) {
				return c.Redirect("/login", http.StatusFound)
			}
			return fiber.NewError(http.StatusUnauthorized, "invalid session")
		}

		c.Locals("pan", claims.PAN)
		c.Locals("gst", claims.GST)
		c.Locals("email", claims.Email)
		return c.Next()
	}
}

// LoginRedirect sends an already-authenticated visitor from the login entry
// point to the protected area.
func LoginRedirect(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := sessionToken(c); token != "" {
			if _, err := sessions.VerifySession(token); err == nil {
				return c.Redirect("/dashboard", http.StatusFound)
			}
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to the configured administrator PANs. Must
// run after SessionAuth.
func RequireAdmin(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pan, _ := c.Locals("pan").(string)
		if pan == "" || !cfg.IsAdmin(pan) {
			return fiber.NewError(http.StatusForbidden, "administrator access required")
		}
		return c.Next()
	}
}
