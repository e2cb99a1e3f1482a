package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/policy"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	now                    func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		now:                    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// EnrichedNotification includes actor info. Actor is nil for system
// notifications and for senders that no longer exist.
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) ([]EnrichedNotification, error) {
	ids := make([]uint, 0, len(notifications))
	for _, n := range notifications {
		if n.SenderID != nil {
			ids = append(ids, *n.SenderID)
		}
	}
	senders, err := h.userRepository.GetUsersByIDs(c.Request().Context(), ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if n.SenderID == nil {
			continue
		}
		if u, ok := senders[*n.SenderID]; ok {
			compact := u.ToCompact()
			enriched[i].Actor = &compact
		}
	}
	return enriched, nil
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	page, limit := pagination(c, 20)

	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return internalError(c, err)
	}
	enriched, err := h.enrichNotifications(c, notifications)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": enriched,
		},
		"meta": paginationMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()

	groups, err := h.notificationRepository.GetGrouped(ctx, currentUserID, h.now())
	if err != nil {
		return internalError(c, err)
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, currentUserID)
	if err != nil {
		return internalError(c, err)
	}

	out := echo.Map{}
	for key, bucket := range map[string][]models.Notification{
		"today":     groups.Today,
		"yesterday": groups.Yesterday,
		"thisWeek":  groups.ThisWeek,
		"older":     groups.Older,
	} {
		enriched, err := h.enrichNotifications(c, bucket)
		if err != nil {
			return internalError(c, err)
		}
		out[key] = enriched
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": out,
		"unreadCount":   unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks a notification as read. Marking it again is a no-op.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	n, err := h.recipientOnly(c, policy.NotificationRead)
	if err != nil {
		return err
	}
	if n.MarkRead() {
		if err := h.notificationRepository.MarkAsRead(c.Request().Context(), n.ID); err != nil {
			return internalError(c, err)
		}
	}
	return success(c, http.StatusOK, n)
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	n, err := h.recipientOnly(c, policy.NotificationDelete)
	if err != nil {
		return err
	}
	if err := h.notificationRepository.Delete(c.Request().Context(), n.ID); err != nil {
		return notFoundOr(c, err, "Notification not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// recipientOnly loads the notification named in the path and checks the
// caller is its recipient: 404 when missing, 403 for anyone else.
func (h *NotificationHandler) recipientOnly(c echo.Context, action policy.Action) (*models.Notification, error) {
	id, err := parseID(c, "id", "notification")
	if err != nil {
		return nil, err
	}
	actor, err := currentUser(c, h.userRepository)
	if err != nil {
		return nil, err
	}
	n, err := h.notificationRepository.GetByID(c.Request().Context(), id)
	if err != nil {
		return nil, notFoundOr(c, err, "Notification not found")
	}
	if !policy.Can(subjectOf(actor), action, policy.Resource{OwnerID: n.RecipientID}) {
		return nil, forbidden("Not your notification")
	}
	return n, nil
}
