package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/auth"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/pkg/logger"
	"github.com/anonto42/inkwell/backend/pkg/mailer"
)

// MailQueue accepts mail for background delivery.
type MailQueue interface {
	Enqueue(msg mailer.Message) bool
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   middleware.IDTokenVerifier
	tokens         *auth.TokenIssuer
	mail           MailQueue
	baseURL        string
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in
// which case Firebase login answers 503.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth middleware.IDTokenVerifier, tokens *auth.TokenIssuer, mail MailQueue, baseURL string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		tokens:         tokens,
		mail:           mail,
		baseURL:        baseURL,
	}
}

// RegisterAuthRoutes registers the public authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.GET("/verify-email", h.VerifyEmail)
	g.POST("/password-reset", h.RequestPasswordReset)
	g.POST("/password-reset/confirm", h.ConfirmPasswordReset)
}

// RegisterAccountRoutes registers the routes that need a signed-in user
func (h *AuthHandler) RegisterAccountRoutes(g *echo.Group) {
	g.PUT("/auth/password", h.ChangePassword)
	g.POST("/auth/verify-email/resend", h.ResendVerification)
}

// Register creates a local account with email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
		Role:     models.RoleAuthor,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already taken")
		}
		return internalError(c, err)
	}

	h.sendVerification(user)

	token, err := h.tokens.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return internalError(c, err)
	}

	// Accounts created through Firebase have no local password.
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

var nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FirebaseLogin verifies a Firebase ID token and issues a local JWT,
// creating or linking the local account as needed.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	email, _ := token.Claims["email"].(string)
	verified, _ := token.Claims["email_verified"].(bool)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email address")
	}
	uid := token.UID

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
		// Known account.
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return internalError(c, err)
	default:
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = &uid
			user.EmailVerified = user.EmailVerified || verified
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return internalError(c, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, err = h.createFirebaseUser(c, uid, email, verified)
			if err != nil {
				return err
			}
		default:
			return internalError(c, err)
		}
	}

	localJWT, err := h.tokens.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": localJWT})
}

func (h *AuthHandler) createFirebaseUser(c echo.Context, uid, email string, verified bool) (*models.User, error) {
	base := nonUsernameChars.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}

	username := base
	for attempt := 0; attempt < 3; attempt++ {
		user := &models.User{
			Username:      username,
			Email:         strings.ToLower(email),
			FirebaseUID:   &uid,
			Role:          models.RoleAuthor,
			EmailVerified: verified,
		}
		err := h.userRepository.CreateUser(c.Request().Context(), user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, internalError(c, err)
		}
		username = base + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
	return nil, echo.NewHTTPError(http.StatusConflict, "Could not allocate a username")
}

// VerifyEmail consumes the link sent after registration
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	claims, err := h.tokens.Parse(c.QueryParam("token"), auth.PurposeVerifyEmail)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired verification link")
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return notFoundOr(c, err, "User not found")
	}
	if !user.EmailVerified {
		user.EmailVerified = true
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return internalError(c, err)
		}
	}
	return success(c, http.StatusOK, echo.Map{"email_verified": true})
}

// ResendVerification queues another verification link
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already verified")
	}
	h.sendVerification(user)
	return success(c, http.StatusAccepted, echo.Map{"queued": true})
}

// RequestPasswordReset always answers 200 so it cannot be used to probe
// which addresses have accounts.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req models.PasswordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err == nil && user.Password != "" {
		token, err := h.tokens.IssuePurpose(user, auth.PurposeResetPassword, auth.ResetPasswordTTL)
		if err != nil {
			return internalError(c, err)
		}
		h.enqueue(mailer.Message{
			To:      user.Email,
			Subject: "Reset your Inkwell password",
			Body:    "Use this link within one hour to choose a new password:\n\n" + h.baseURL + "/reset-password?token=" + token,
		})
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("password reset lookup failed", zap.Error(err))
	}

	return success(c, http.StatusOK, echo.Map{"message": "If the account exists, a reset link has been sent"})
}

// ConfirmPasswordReset sets a new password from a reset link. The link
// stops working once the password has changed.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req models.PasswordResetConfirmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	claims, err := h.tokens.Parse(req.Token, auth.PurposeResetPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired reset link")
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return notFoundOr(c, err, "User not found")
	}
	if claims.Fingerprint != auth.Fingerprint(user.Password) {
		return echo.NewHTTPError(http.StatusBadRequest, "Reset link has already been used")
	}

	if err := h.setPassword(c, user, req.Password); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"password_reset": true})
}

// ChangePassword replaces the password of the signed-in user
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Current password is incorrect")
	}
	if err := h.setPassword(c, user, req.NewPassword); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"password_changed": true})
}

func (h *AuthHandler) setPassword(c echo.Context, user *models.User, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	user.Password = string(hashed)
	if err := h.userRepository.UpdateUser(c.Request().Context(), user); err != nil {
		return internalError(c, err)
	}
	return nil
}

func (h *AuthHandler) sendVerification(user *models.User) {
	token, err := h.tokens.IssuePurpose(user, auth.PurposeVerifyEmail, auth.VerifyEmailTTL)
	if err != nil {
		logger.Error("verification token", zap.Uint("user", user.ID), zap.Error(err))
		return
	}
	h.enqueue(mailer.Message{
		To:      user.Email,
		Subject: "Verify your Inkwell email",
		Body:    "Confirm your address within 24 hours:\n\n" + h.baseURL + "/api/v1/auth/verify-email?token=" + token,
	})
}

func (h *AuthHandler) enqueue(msg mailer.Message) {
	if h.mail != nil {
		h.mail.Enqueue(msg)
	}
}
