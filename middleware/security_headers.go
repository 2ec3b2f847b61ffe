// middleware/security_headers.go
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type SecurityConfig struct {
	AllowedDomains []string
	AllowInlineJS  bool
	AllowEval      bool
}

func SecurityHeadersWithConfig(config SecurityConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", buildCSP(config))
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func buildCSP(config SecurityConfig) string {
	scriptSrc := "'self'"
	if config.AllowInlineJS {
		scriptSrc += " 'unsafe-inline'"
	}
	if config.AllowEval {
		scriptSrc += " 'unsafe-eval'"
	}

	domains := "'self'"
	if len(config.AllowedDomains) > 0 {
		domains = strings.Join(config.AllowedDomains, " ")
	}

	directives := []string{
		"default-src " + domains,
		"script-src " + scriptSrc,
		"img-src 'self' data: blob:",
		"style-src 'self' 'unsafe-inline'",
	}

	return strings.Join(directives, "; ")
}
