package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// PreflightBody is written with 200 for OPTIONS requests. Empty means 204 with no body.
	PreflightBody string
}

// CORS sets the configured headers on every response and answers OPTIONS on any path.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcard := len(cfg.AllowOrigins) == 0
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			if wildcard {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				origin := c.Request().Header.Get(echo.HeaderOrigin)
				for _, o := range cfg.AllowOrigins {
					if o == origin {
						h.Set(echo.HeaderAccessControlAllowOrigin, origin)
						h.Add(echo.HeaderVary, echo.HeaderOrigin)
						break
					}
				}
			}
			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}

			if c.Request().Method == http.MethodOptions {
				if cfg.PreflightBody == "" {
					return c.NoContent(http.StatusNoContent)
				}
				return c.String(http.StatusOK, cfg.PreflightBody)
			}
			return next(c)
		}
	}
}
