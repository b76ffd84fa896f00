package middleware

import (
	"net/http"

	"github.com/Astemirdum/booktracker/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const loginURL = "/login/"

// SessionAuth requires a valid session cookie and puts the requester identity
// into the request context. Browsers are redirected to the login page, never
// handed a bare 401.
func SessionAuth(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusFound, loginURL)
			}
			claims, err := auth.ParseToken(cookie.Value, key)
			if err != nil {
				return c.Redirect(http.StatusFound, loginURL)
			}

			req := c.Request()
			ctx := auth.SetAuthContext(req.Context(), claims.Profile.Username)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// SessionAuthOptional is SessionAuth for public pages: a missing or invalid
// cookie leaves the request anonymous instead of redirecting.
func SessionAuthOptional(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := auth.ParseToken(cookie.Value, key)
			if err != nil {
				return next(c)
			}

			req := c.Request()
			ctx := auth.SetAuthContext(req.Context(), claims.Profile.Username)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func RequestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	c := middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
	return c
}
