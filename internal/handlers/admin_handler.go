package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/notify"
	"github.com/anonto42/inkwell/backend/internal/policy"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// AdminHandler serves the admin dashboard. Every route checks the
// caller's role against the policy first.
type AdminHandler struct {
	userRepository     repositories.UserRepository
	postRepository     repositories.PostRepository
	statsRepository    repositories.StatsRepository
	activityRepository repositories.ActivityRepository
	notifier           Notifier
}

func NewAdminHandler(
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	statsRepo repositories.StatsRepository,
	activityRepo repositories.ActivityRepository,
	notifier Notifier,
) *AdminHandler {
	return &AdminHandler{
		userRepository:     userRepo,
		postRepository:     postRepo,
		statsRepository:    statsRepo,
		activityRepository: activityRepo,
		notifier:           notifier,
	}
}

// RegisterAdminRoutes registers routes under the admin group
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/stats", h.guard(policy.AdminDashboard, h.GetStats))
	g.GET("/dashboard", h.guard(policy.AdminDashboard, h.GetDashboard))
	g.GET("/posts/trending", h.guard(policy.AdminDashboard, h.GetTrending))
	g.GET("/posts/flagged", h.guard(policy.AdminDashboard, h.GetFlagged))
	g.GET("/users", h.guard(policy.AdminUsers, h.ListUsers))
	g.PUT("/users/:id/role", h.guard(policy.AdminUsers, h.UpdateRole))
	g.GET("/users/most-active", h.guard(policy.AdminActivity, h.MostActive))
	g.GET("/activity-logs", h.guard(policy.AdminActivity, h.ActivityLogs))
	g.POST("/announcements", h.guard(policy.AdminAnnounce, h.Announce))
}

// guard loads the caller and stores it under "actor" for the handler.
func (h *AdminHandler) guard(action policy.Action, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := currentUser(c, h.userRepository)
		if err != nil {
			return err
		}
		if !policy.Can(subjectOf(user), action, policy.Resource{}) {
			return forbidden("Admin access required")
		}
		c.Set("actor", user)
		return next(c)
	}
}

func (h *AdminHandler) GetStats(c echo.Context) error {
	stats, err := h.statsRepository.Counts(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, stats)
}

func (h *AdminHandler) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.statsRepository.Counts(ctx)
	if err != nil {
		return internalError(c, err)
	}
	top, err := h.postRepository.TopByReactions(ctx, 5)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"stats": stats, "top_posts": top})
}

// GetTrending includes drafts, unlike the public listing.
func (h *AdminHandler) GetTrending(c echo.Context) error {
	posts, err := h.postRepository.Trending(c.Request().Context(), false, 10)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, posts)
}

func (h *AdminHandler) GetFlagged(c echo.Context) error {
	flagged, err := h.postRepository.ListFlagged(c.Request().Context(), 50)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, flagged)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, limit := pagination(c, 20)
	users, total, err := h.userRepository.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    users,
		"meta":    paginationMeta(page, limit, total),
	})
}

func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	var req models.UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.userRepository.UpdateRole(c.Request().Context(), id, req.Role); err != nil {
		return notFoundOr(c, err, "User not found")
	}
	return success(c, http.StatusOK, echo.Map{"id": id, "role": req.Role})
}

func (h *AdminHandler) MostActive(c echo.Context) error {
	counts, err := h.activityRepository.MostActive(c.Request().Context(), 10)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, counts)
}

// ActivityLogs returns the latest entries, optionally for one user.
func (h *AdminHandler) ActivityLogs(c echo.Context) error {
	var userID uint
	if s := c.QueryParam("user_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
		}
		userID = uint(id)
	}
	logs, err := h.activityRepository.Recent(c.Request().Context(), userID, 100)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, logs)
}

// Announce sends a notification to every user except the sender and
// returns how many were stored.
func (h *AdminHandler) Announce(c echo.Context) error {
	var req models.AnnouncementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	admin := c.Get("actor").(*models.User)
	ctx := c.Request().Context()

	ids, err := h.userRepository.ListUserIDs(ctx)
	if err != nil {
		return internalError(c, err)
	}
	sent := 0
	for _, id := range ids {
		if dispatch(ctx, h.notifier, notify.Event{
			RecipientID: id,
			SenderID:    admin.ID,
			Kind:        models.NotificationAnnouncement,
			Message:     req.Message,
		}) {
			sent++
		}
	}
	return success(c, http.StatusOK, echo.Map{"sent": sent})
}
