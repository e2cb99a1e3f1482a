package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/notify"
	"github.com/anonto42/inkwell/backend/internal/policy"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	notifier          Notifier
	maxDepth          int
}

// NewCommentHandler creates a new CommentHandler. Replies nested deeper
// than maxDepth are listed flat under their deepest visible ancestor.
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier Notifier, maxDepth int) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		notifier:          notifier,
		maxDepth:          maxDepth,
	}
}

// RegisterPublicCommentRoutes registers the comment tree listing
func (h *CommentHandler) RegisterPublicCommentRoutes(g *echo.Group) {
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
}

// RegisterCommentRoutes registers comment routes that need a signed-in user
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a comment or a reply on a published post and
// notifies the post author, plus the parent's author for replies.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	actor, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	if !post.IsPublished() {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	var parent *models.Comment
	if req.ParentID != nil {
		parent, err = h.commentRepository.GetCommentByID(ctx, *req.ParentID)
		if err != nil {
			return notFoundOr(c, err, "Parent comment not found")
		}
		if parent.PostID != post.ID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to another post")
		}
	}

	comment := &models.Comment{
		PostID:   post.ID,
		UserID:   actor.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return internalError(c, err)
	}
	comment.User = actor.ToCompact()

	notified := dispatch(ctx, h.notifier, notify.Event{
		RecipientID: post.AuthorID,
		SenderID:    actor.ID,
		Kind:        models.NotificationComment,
		PostID:      &post.ID,
		Message:     notify.CommentMessage(actor.Username, post.Title),
	})
	if parent != nil && parent.UserID != post.AuthorID {
		if dispatch(ctx, h.notifier, notify.Event{
			RecipientID: parent.UserID,
			SenderID:    actor.ID,
			Kind:        models.NotificationReply,
			PostID:      &post.ID,
			Message:     notify.ReplyMessage(actor.Username, post.Title),
		}) {
			notified = true
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"comment": comment, "notified": notified})
}

// GetCommentsByPostID returns the post's comments as reply trees
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	if !post.IsPublished() && !h.canViewDraft(c, post.AuthorID) {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return internalError(c, err)
	}

	ids := make([]uint, 0, len(comments))
	seen := make(map[uint]bool)
	for _, cm := range comments {
		if !seen[cm.UserID] {
			seen[cm.UserID] = true
			ids = append(ids, cm.UserID)
		}
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return internalError(c, err)
	}
	for i := range comments {
		if u, ok := users[comments[i].UserID]; ok {
			comments[i].User = u.ToCompact()
		}
	}

	return success(c, http.StatusOK, echo.Map{
		"total":    len(comments),
		"comments": models.BuildCommentForest(comments, h.maxDepth),
	})
}

// UpdateComment updates an existing comment. Only its author may edit.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	id, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.ownComment(c, id, policy.CommentUpdate)
	if err != nil {
		return err
	}

	comment.Content = req.Content
	if err := h.commentRepository.UpdateComment(c.Request().Context(), comment); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment together with all its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	if _, err := h.ownComment(c, id, policy.CommentDelete); err != nil {
		return err
	}

	removed, err := h.commentRepository.DeleteThread(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(c, err, "Comment not found")
	}
	return success(c, http.StatusOK, echo.Map{"deleted": removed})
}

func (h *CommentHandler) ownComment(c echo.Context, id uint, action policy.Action) (*models.Comment, error) {
	actor, err := currentUser(c, h.userRepository)
	if err != nil {
		return nil, err
	}
	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), id)
	if err != nil {
		return nil, notFoundOr(c, err, "Comment not found")
	}
	if !policy.Can(subjectOf(actor), action, policy.Resource{OwnerID: comment.UserID}) {
		return nil, forbidden("You can only change your own comments")
	}
	return comment, nil
}

func (h *CommentHandler) canViewDraft(c echo.Context, authorID uint) bool {
	id := getUserIDFromContext(c)
	if id == 0 {
		return false
	}
	viewer, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return false
	}
	return policy.Can(subjectOf(viewer), policy.PostViewDraft, policy.Resource{OwnerID: authorID})
}
