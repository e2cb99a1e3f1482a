package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/notify"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// ReactionHandler handles reactions and bookmarks on posts. Both are
// toggles: repeating the same request undoes it.
type ReactionHandler struct {
	reactionRepository repositories.ReactionRepository
	bookmarkRepository repositories.BookmarkRepository
	postRepository     repositories.PostRepository
	userRepository     repositories.UserRepository
	notifier           Notifier
	enricher           postEnricher
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(
	reactionRepo repositories.ReactionRepository,
	bookmarkRepo repositories.BookmarkRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
) *ReactionHandler {
	return &ReactionHandler{
		reactionRepository: reactionRepo,
		bookmarkRepository: bookmarkRepo,
		postRepository:     postRepo,
		userRepository:     userRepo,
		notifier:           notifier,
		enricher:           postEnricher{reactions: reactionRepo, bookmarks: bookmarkRepo},
	}
}

// RegisterPublicReactionRoutes registers reaction counts
func (h *ReactionHandler) RegisterPublicReactionRoutes(g *echo.Group) {
	g.GET("/posts/:id/reactions", h.GetReactions)
}

// RegisterReactionRoutes registers reaction and bookmark toggles
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:id/react", h.ToggleReaction)
	g.POST("/posts/:id/bookmark", h.ToggleBookmark)
	g.GET("/bookmarks", h.GetBookmarks)
}

// ToggleReaction adds, switches or removes the caller's reaction. The
// post author is notified when a reaction is added or switched.
func (h *ReactionHandler) ToggleReaction(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	var req models.ToggleReactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	kind, ok := models.ParseReactionKind(req.Kind)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown reaction kind")
	}
	ctx := c.Request().Context()

	actor, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	post, err := h.publishedPost(c, postID)
	if err != nil {
		return err
	}

	outcome, err := h.reactionRepository.Toggle(ctx, actor.ID, post.ID, kind)
	if err != nil {
		return internalError(c, err)
	}

	notified := false
	if outcome.Notifies() {
		notified = dispatch(ctx, h.notifier, notify.Event{
			RecipientID: post.AuthorID,
			SenderID:    actor.ID,
			Kind:        models.NotificationReaction,
			PostID:      &post.ID,
			Message:     notify.ReactionMessage(actor.Username, kind, post.Title),
		})
	}

	counts, err := h.reactionRepository.CountsByKind(ctx, post.ID)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"outcome":  outcome,
		"kind":     kind,
		"counts":   counts,
		"notified": notified,
	})
}

// GetReactions returns per-kind counts and, for a signed-in caller, their
// own reaction.
func (h *ReactionHandler) GetReactions(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.publishedPost(c, postID); err != nil {
		return err
	}
	counts, err := h.reactionRepository.CountsByKind(ctx, postID)
	if err != nil {
		return internalError(c, err)
	}

	var mine *models.ReactionKind
	if uid := getUserIDFromContext(c); uid != 0 {
		r, err := h.reactionRepository.GetUserReaction(ctx, uid, postID)
		switch {
		case err == nil:
			mine = &r.Kind
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return internalError(c, err)
		}
	}
	return success(c, http.StatusOK, echo.Map{"counts": counts, "mine": mine})
}

func (h *ReactionHandler) ToggleBookmark(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	if _, err := h.publishedPost(c, postID); err != nil {
		return err
	}
	outcome, err := h.bookmarkRepository.Toggle(c.Request().Context(), getUserIDFromContext(c), postID)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"outcome":       outcome,
		"is_bookmarked": outcome == models.ToggleAdded,
	})
}

func (h *ReactionHandler) GetBookmarks(c echo.Context) error {
	ctx := c.Request().Context()
	uid := getUserIDFromContext(c)
	posts, err := h.bookmarkRepository.ListBookmarkedPosts(ctx, uid)
	if err != nil {
		return internalError(c, err)
	}
	enriched, err := h.enricher.enrich(ctx, uid, posts)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, enriched)
}

func (h *ReactionHandler) publishedPost(c echo.Context, id uint) (*models.Post, error) {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return nil, notFoundOr(c, err, "Post not found")
	}
	if !post.IsPublished() {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return post, nil
}
