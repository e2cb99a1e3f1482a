package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
	enricher         postEnricher
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	followRepo repositories.FollowRepository,
	reactionRepo repositories.ReactionRepository,
	bookmarkRepo repositories.BookmarkRepository,
) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		followRepository: followRepo,
		enricher:         postEnricher{reactions: reactionRepo, bookmarks: bookmarkRepo},
	}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns published posts of followed authors and the caller's
// own, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	page, limit := pagination(c, 10)
	ctx := c.Request().Context()

	authorIDs, err := h.followRepository.GetFollowingIDs(ctx, currentUserID)
	if err != nil {
		return internalError(c, err)
	}
	authorIDs = append(authorIDs, currentUserID)

	posts, total, err := h.postRepository.ListByAuthors(ctx, authorIDs, page, limit)
	if err != nil {
		return internalError(c, err)
	}
	enriched, err := h.enricher.enrich(ctx, currentUserID, posts)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": enriched,
		},
		"meta": paginationMeta(page, limit, total),
	})
}
