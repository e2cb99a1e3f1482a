package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/notify"
	"github.com/anonto42/inkwell/backend/internal/policy"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// Notifier is the notification dispatcher as seen by handlers.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) (*models.Notification, error)
}

func getUserIDFromContext(c echo.Context) uint {
	return middleware.UserID(c)
}

// currentUser loads the caller. A token for a deleted account is a 401.
func currentUser(c echo.Context, users repositories.UserRepository) (*models.User, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	user, err := users.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not found")
		}
		return nil, internalError(c, err)
	}
	return user, nil
}

func subjectOf(u *models.User) policy.Subject {
	return policy.Subject{UserID: u.ID, Role: u.Role}
}

func parseID(c echo.Context, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return uint(id), nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func pagination(c echo.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// notFoundOr maps a missing record to 404 and anything else to 500.
func notFoundOr(c echo.Context, err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return internalError(c, err)
}

func internalError(c echo.Context, err error) error {
	logger.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

func forbidden(msg string) error {
	return echo.NewHTTPError(http.StatusForbidden, msg)
}

// dispatch sends a notification and reports whether one was persisted.
// Self-notifications are skipped and report false.
// Failures never fail the request that triggered them.
func dispatch(ctx context.Context, n Notifier, ev notify.Event) bool {
	if n == nil {
		return false
	}
	stored, err := n.Notify(ctx, ev)
	if err != nil {
		logger.Error("notification not persisted",
			zap.Uint("recipient", ev.RecipientID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err))
		return false
	}
	return stored != nil
}
