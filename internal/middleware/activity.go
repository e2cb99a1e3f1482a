package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// ActivityRecorder stores activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *models.ActivityLog) error
}

const activityTimeout = 2 * time.Second

// ActivityLogger records every authenticated request once the handler has
// returned. Recording errors are logged and do not change the response.
// It must run after JWTAuthMiddleware or OptionalJWTAuth.
func ActivityLogger(recorder ActivityRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			userID := UserID(c)
			if userID == 0 {
				return err
			}

			path := c.Request().URL.Path
			entry := &models.ActivityLog{
				UserID:    userID,
				Action:    "Visited " + path,
				Method:    c.Request().Method,
				Path:      path,
				Status:    responseStatus(c, err),
				IP:        c.RealIP(),
				Timestamp: time.Now(),
			}

			ctx, cancel := context.WithTimeout(context.Background(), activityTimeout)
			defer cancel()
			if rerr := recorder.Record(ctx, entry); rerr != nil {
				logger.Warn("activity log write failed", zap.Uint("user", userID), zap.String("path", path), zap.Error(rerr))
			}
			return err
		}
	}
}

// responseStatus is the status the client will see. A returned error has
// not been rendered yet, so its code wins over the response writer.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
