package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/oceanauth/auth-api/internal/api/metrics"
	"github.com/oceanauth/auth-api/internal/core/domain"
	"github.com/oceanauth/auth-api/internal/core/ports"
)

// RateLimit gates a route on the sliding-window limiter, keyed by client
// source address. Rejections surface as domain.ErrRateLimited so the central
// error handler renders the 429.
func RateLimit(limiter ports.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := limiter.Allow(c.Request().Context(), c.RealIP()); err != nil {
				if errors.Is(err, domain.ErrRateLimited) {
					metrics.RateLimitedTotal.WithLabelValues(c.Path()).Inc()
				}
				return err
			}
			return next(c)
		}
	}
}
