package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// ActivityHandler exposes the caller's own request history
type ActivityHandler struct {
	activityRepository repositories.ActivityRepository
}

func NewActivityHandler(activityRepo repositories.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activityRepository: activityRepo}
}

func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activity-logs", h.GetMyActivity)
}

// GetMyActivity returns the caller's latest 20 entries, newest first.
func (h *ActivityHandler) GetMyActivity(c echo.Context) error {
	uid := getUserIDFromContext(c)
	if uid == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	logs, err := h.activityRepository.Recent(c.Request().Context(), uid, 20)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, logs)
}
