package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository   repositories.UserRepository
	deviceRepository repositories.DeviceRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, deviceRepo repositories.DeviceRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, deviceRepository: deviceRepo}
}

// RegisterProfileRoutes registers the signed-in user's profile routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteUser)
	g.GET("/profile/status", h.GetProfileStatus)
	g.GET("/users/search", h.SearchUsers)
	g.POST("/devices", h.RegisterDevice)
	g.DELETE("/devices/:token", h.RemoveDevice)
}

// RegisterPublicUserRoutes registers profile routes readable without login
func (h *UserHandler) RegisterPublicUserRoutes(g *echo.Group) {
	g.GET("/users/:id", h.GetUser)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(c, err, "User profile not found")
	}
	return c.JSON(http.StatusOK, publicProfile(user))
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile changes only the fields present in the request body
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.SocialLinks != nil {
		links := make(datatypes.JSONMap, len(req.SocialLinks))
		for k, v := range req.SocialLinks {
			links[k] = v
		}
		user.SocialLinks = links
	}

	if err := h.userRepository.UpdateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes the authenticated user and everything they own
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := getUserIDFromContext(c)
	if err := h.userRepository.DeleteUser(c.Request().Context(), id); err != nil {
		return notFoundOr(c, err, "User not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) GetProfileStatus(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	percent, missing := user.ProfileCompletion()
	if missing == nil {
		missing = []string{}
	}
	return success(c, http.StatusOK, echo.Map{
		"completion":     percent,
		"missing":        missing,
		"email_verified": user.EmailVerified,
	})
}

func (h *UserHandler) SearchUsers(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter q is required")
	}
	users, err := h.userRepository.SearchUsers(c.Request().Context(), q, 20)
	if err != nil {
		return internalError(c, err)
	}
	out := make([]PublicProfile, len(users))
	for i := range users {
		out[i] = publicProfile(&users[i])
	}
	return success(c, http.StatusOK, out)
}

// RegisterDevice stores an FCM token for web push. A token already known
// for another account moves to the caller.
func (h *UserHandler) RegisterDevice(c echo.Context) error {
	var req models.RegisterDeviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	platform := req.Platform
	if platform == "" {
		platform = "web"
	}
	device := &models.DeviceToken{
		UserID:   getUserIDFromContext(c),
		Token:    req.Token,
		Platform: platform,
	}
	if err := h.deviceRepository.RegisterDevice(c.Request().Context(), device); err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusCreated, device)
}

func (h *UserHandler) RemoveDevice(c echo.Context) error {
	err := h.deviceRepository.RemoveDevice(c.Request().Context(), getUserIDFromContext(c), c.Param("token"))
	if err != nil {
		return notFoundOr(c, err, "Device not found")
	}
	return c.NoContent(http.StatusNoContent)
}
