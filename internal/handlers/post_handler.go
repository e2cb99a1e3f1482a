package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/media"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/policy"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// MediaStore persists uploaded files and returns their public URL.
type MediaStore interface {
	Save(r io.Reader, originalName string) (string, int64, error)
	Remove(url string) error
	MaxBytes() int64
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository     repositories.PostRepository
	categoryRepository repositories.CategoryRepository
	userRepository     repositories.UserRepository
	enricher           postEnricher
	media              MediaStore
	now                func() time.Time
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
	reactionRepo repositories.ReactionRepository,
	bookmarkRepo repositories.BookmarkRepository,
	store MediaStore,
) *PostHandler {
	return &PostHandler{
		postRepository:     postRepo,
		categoryRepository: categoryRepo,
		userRepository:     userRepo,
		enricher:           postEnricher{reactions: reactionRepo, bookmarks: bookmarkRepo},
		media:              store,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// RegisterPublicPostRoutes registers the post routes readable without login
func (h *PostHandler) RegisterPublicPostRoutes(g *echo.Group) {
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/trending", h.Trending)
	g.GET("/posts/top", h.TopByReactions)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/tags/suggest", h.SuggestTags)
}

// RegisterPostRoutes registers post routes that need a signed-in user
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/drafts", h.GetDrafts)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/media", h.UploadMedia)
	g.POST("/posts/:id/approve", h.ApprovePost)
	g.POST("/posts/:id/flag", h.FlagPost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if err := h.checkCategory(c, req.CategoryID); err != nil {
		return err
	}
	tags, err := h.categoryRepository.EnsureTags(ctx, req.Tags)
	if err != nil {
		return internalError(c, err)
	}

	status := req.Status
	if status == "" {
		status = models.PostDraft
	}
	post := &models.Post{
		AuthorID:   getUserIDFromContext(c),
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Tags:       tags,
		PublishAt:  req.PublishAt,
	}
	post.ApplyStatus(status, h.now())

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return internalError(c, err)
	}
	return h.respondPost(c, http.StatusCreated, post.ID)
}

// GetPost retrieves a post by ID and counts the view. Drafts are only
// visible to callers allowed to see them; everyone else gets a 404.
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	if !post.IsPublished() && !h.allowed(c, policy.PostViewDraft, post.AuthorID) {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// Draft previews are not counted.
	if post.IsPublished() {
		if err := h.postRepository.IncrementViews(ctx, id); err != nil {
			logger.Warn("view count not updated", zap.Uint("post", id), zap.Error(err))
		} else {
			post.Views++
		}
	}

	enriched, err := h.enricher.one(ctx, getUserIDFromContext(c), post)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, enriched)
}

// GetPosts lists published posts, optionally filtered by search text,
// category slug, tag name or author.
func (h *PostHandler) GetPosts(c echo.Context) error {
	page, limit := pagination(c, 10)
	filter := models.PostFilter{
		Search:   c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Tag:      c.QueryParam("tag"),
	}
	if a := c.QueryParam("author"); a != "" {
		id, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid author ID")
		}
		filter.AuthorID = uint(id)
	}

	ctx := c.Request().Context()
	posts, total, err := h.postRepository.ListPublished(ctx, filter, page, limit)
	if err != nil {
		return internalError(c, err)
	}
	enriched, err := h.enricher.enrich(ctx, getUserIDFromContext(c), posts)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       enriched,
		"pagination": paginationMeta(page, limit, total),
	})
}

func (h *PostHandler) GetDrafts(c echo.Context) error {
	posts, err := h.postRepository.ListDrafts(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return internalError(c, err)
	}
	return h.respondPosts(c, posts)
}

func (h *PostHandler) Trending(c echo.Context) error {
	posts, err := h.postRepository.Trending(c.Request().Context(), true, 10)
	if err != nil {
		return internalError(c, err)
	}
	return h.respondPosts(c, posts)
}

func (h *PostHandler) TopByReactions(c echo.Context) error {
	posts, err := h.postRepository.TopByReactions(c.Request().Context(), 5)
	if err != nil {
		return internalError(c, err)
	}
	return h.respondPosts(c, posts)
}

func (h *PostHandler) SuggestTags(c echo.Context) error {
	prefix := strings.TrimSpace(c.QueryParam("q"))
	if prefix == "" {
		return success(c, http.StatusOK, []models.Tag{})
	}
	tags, err := h.categoryRepository.SuggestTags(c.Request().Context(), prefix, 10)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, tags)
}

// UpdatePost updates an existing post. Only the author may edit.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	if !h.allowed(c, policy.PostUpdate, post.AuthorID) {
		return forbidden("You can only edit your own posts")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.CategoryID != nil {
		if err := h.checkCategory(c, req.CategoryID); err != nil {
			return err
		}
		post.CategoryID = req.CategoryID
		post.Category = nil
	}
	if req.Tags != nil {
		tags, err := h.categoryRepository.EnsureTags(ctx, req.Tags)
		if err != nil {
			return internalError(c, err)
		}
		post.Tags = tags
	}
	if req.PublishAt != nil {
		post.PublishAt = req.PublishAt
	}
	status := post.Status
	if req.Status != nil {
		status = *req.Status
	}
	post.ApplyStatus(status, h.now())

	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	return h.respondPost(c, http.StatusOK, post.ID)
}

// DeletePost deletes a post with its comments, reactions and media.
func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	if !h.allowed(c, policy.PostDelete, post.AuthorID) {
		return forbidden("You are not allowed to delete this post")
	}
	if err := h.postRepository.DeletePost(ctx, id); err != nil {
		return notFoundOr(c, err, "Post not found")
	}

	if h.media != nil {
		for _, m := range post.Media {
			if err := h.media.Remove(m.URL); err != nil {
				logger.Warn("media file not removed", zap.String("url", m.URL), zap.Error(err))
			}
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadMedia attaches an image or video to a post the caller owns.
func (h *PostHandler) UploadMedia(c echo.Context) error {
	if h.media == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media uploads are not configured")
	}
	id, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	if !h.allowed(c, policy.PostMedia, post.AuthorID) {
		return forbidden("You can only upload media to your own posts")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}
	if limit := h.media.MaxBytes(); limit > 0 && fh.Size > limit {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}

	contentType, err := detectContentType(fh)
	if err != nil {
		return internalError(c, err)
	}
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Only images and videos can be uploaded")
	}

	src, err := fh.Open()
	if err != nil {
		return internalError(c, err)
	}
	defer src.Close()

	url, size, err := h.media.Save(src, fh.Filename)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
		}
		return internalError(c, err)
	}

	item := &models.Media{PostID: post.ID, URL: url, ContentType: contentType, Size: size}
	if err := h.postRepository.AddMedia(ctx, item); err != nil {
		_ = h.media.Remove(url)
		return internalError(c, err)
	}
	return success(c, http.StatusCreated, item)
}

// detectContentType trusts the part header and sniffs the content when
// the client sent none.
func detectContentType(fh *multipart.FileHeader) (string, error) {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return strings.ToLower(ct), nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (h *PostHandler) ApprovePost(c echo.Context) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	if !h.allowed(c, policy.PostApprove, 0) {
		return forbidden("Only editors and admins can approve posts")
	}
	if err := h.postRepository.Approve(c.Request().Context(), id); err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	return success(c, http.StatusOK, echo.Map{"id": id, "is_approved": true})
}

// FlagPost reports a post for moderation. Reporting twice is a no-op.
func (h *PostHandler) FlagPost(c echo.Context) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	var req models.FlagPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.postRepository.GetPostByID(ctx, id); err != nil {
		return notFoundOr(c, err, "Post not found")
	}
	created, err := h.postRepository.Flag(ctx, &models.PostFlag{
		PostID: id,
		UserID: getUserIDFromContext(c),
		Reason: req.Reason,
	})
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"flagged": true, "new": created})
}

// allowed loads the caller's role and evaluates the policy. Anonymous
// callers are never allowed.
func (h *PostHandler) allowed(c echo.Context, action policy.Action, ownerID uint) bool {
	id := getUserIDFromContext(c)
	if id == 0 {
		return false
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return false
	}
	return policy.Can(subjectOf(user), action, policy.Resource{OwnerID: ownerID})
}

func (h *PostHandler) checkCategory(c echo.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := h.categoryRepository.GetCategoryByID(c.Request().Context(), *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown category")
		}
		return internalError(c, err)
	}
	return nil
}

func (h *PostHandler) respondPost(c echo.Context, status int, id uint) error {
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return internalError(c, err)
	}
	enriched, err := h.enricher.one(ctx, getUserIDFromContext(c), post)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(status, enriched)
}

func (h *PostHandler) respondPosts(c echo.Context, posts []models.Post) error {
	enriched, err := h.enricher.enrich(c.Request().Context(), getUserIDFromContext(c), posts)
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, enriched)
}
