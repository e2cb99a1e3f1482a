package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/notify"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifier         Notifier
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifier Notifier) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifier:         notifier,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/follow", h.GetFollowStatus)
}

// RegisterPublicFollowRoutes registers follower listings
func (h *FollowHandler) RegisterPublicFollowRoutes(g *echo.Group) {
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows another user and notifies them
func (h *FollowHandler) FollowUser(c echo.Context) error {
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	actor, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	if actor.ID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow yourself")
	}
	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return notFoundOr(c, err, "User not found")
	}

	created, err := h.followRepository.Follow(ctx, actor.ID, targetID)
	if err != nil {
		return internalError(c, err)
	}
	if !created {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	notified := dispatch(ctx, h.notifier, notify.Event{
		RecipientID: targetID,
		SenderID:    actor.ID,
		Kind:        models.NotificationFollow,
		Message:     notify.FollowMessage(actor.Username),
	})
	return success(c, http.StatusCreated, echo.Map{"following": true, "notified": notified})
}

func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	removed, err := h.followRepository.Unfollow(c.Request().Context(), getUserIDFromContext(c), targetID)
	if err != nil {
		return internalError(c, err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
	}
	return success(c, http.StatusOK, echo.Map{"following": false})
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	following, err := h.followRepository.IsFollowing(c.Request().Context(), getUserIDFromContext(c), targetID)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"following": following})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listEdges(c, h.followRepository.GetFollowers)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listEdges(c, h.followRepository.GetFollowing)
}

func (h *FollowHandler) listEdges(c echo.Context, load func(context.Context, uint) ([]models.User, error)) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, id); err != nil {
		return notFoundOr(c, err, "User not found")
	}
	users, err := load(ctx, id)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, compactUsers(users))
}
