package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	ListPublished(ctx context.Context, filter models.PostFilter, page, limit int) ([]models.Post, int64, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, page, limit int) ([]models.Post, int64, error)
	ListDrafts(ctx context.Context, authorID uint) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	Trending(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error)
	TopByReactions(ctx context.Context, limit int) ([]models.Post, error)
	PublishDue(ctx context.Context, now time.Time) (int64, error)
	Approve(ctx context.Context, id uint) error
	Flag(ctx context.Context, flag *models.PostFlag) (bool, error)
	ListFlagged(ctx context.Context, limit int) ([]FlaggedPost, error)
	AddMedia(ctx context.Context, media *models.Media) error
}

// FlaggedPost is a post with the number of reports against it.
type FlaggedPost struct {
	models.Post
	Flags int64 `json:"flags"`
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Author").Preload("Category").Preload("Tags")
}

// CreatePost inserts the post and links its tags.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Author", "Category", "Media").Create(post).Error
}

// GetPostByID retrieves a post with author, category, tags and media.
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(ctx).Preload("Media").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPublished returns published posts, newest first.
func (r *PostgresPostRepository) ListPublished(ctx context.Context, filter models.PostFilter, page, limit int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.status = ?", models.PostPublished)

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?)", like, like)
	}
	if filter.Category != "" {
		q = q.Where("posts.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.Category))
	}
	if filter.Tag != "" {
		q = q.Where("posts.id IN (?)",
			r.db.Table("post_tags").Select("post_tags.post_id").
				Joins("JOIN tags ON tags.id = post_tags.tag_id").
				Where("LOWER(tags.name) = ?", strings.ToLower(filter.Tag)))
	}
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}

	return r.page(ctx, q, "posts.published_at DESC, posts.id DESC", page, limit)
}

// ListByAuthors returns published posts of the given authors, newest first.
func (r *PostgresPostRepository) ListByAuthors(ctx context.Context, authorIDs []uint, page, limit int) ([]models.Post, int64, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, 0, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.status = ? AND posts.author_id IN ?", models.PostPublished, authorIDs)
	return r.page(ctx, q, "posts.published_at DESC, posts.id DESC", page, limit)
}

func (r *PostgresPostRepository) page(ctx context.Context, q *gorm.DB, order string, page, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := q.Session(&gorm.Session{}).
		Preload("Author").Preload("Category").Preload("Tags").
		Order(order).
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

// ListDrafts returns the author's drafts, most recently edited first.
func (r *PostgresPostRepository) ListDrafts(ctx context.Context, authorID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.withDetails(ctx).
		Where("author_id = ? AND status = ?", authorID, models.PostDraft).
		Order("updated_at DESC").
		Find(&posts).Error
	return posts, err
}

// postEditColumns are the columns an edit may write. Counters are owned by
// the toggle, comment and view paths and never come from a loaded struct.
var postEditColumns = []string{"title", "content", "status", "category_id", "publish_at", "published_at", "updated_at"}

// UpdatePost saves the editable columns and replaces the tag set.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post.UpdatedAt = time.Now()
		res := tx.Model(post).Select(postEditColumns).Updates(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(post).Association("Tags").Replace(post.Tags)
	})
}

// DeletePost removes the post and everything attached to it.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePostsCascade(tx, []uint{id}); err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// deletePostsCascade removes the rows that reference the given posts.
func deletePostsCascade(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	deps := []interface{}{
		&models.Comment{},
		&models.Reaction{},
		&models.Bookmark{},
		&models.Media{},
		&models.PostFlag{},
		&models.Notification{},
	}
	for _, m := range deps {
		if err := tx.Where("post_id IN ?", postIDs).Delete(m).Error; err != nil {
			return errors.Wrapf(err, "cascade %T", m)
		}
	}
	return tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", postIDs).Error
}

func (r *PostgresPostRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// Trending orders by views. Admins see drafts too.
func (r *PostgresPostRepository) Trending(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error) {
	q := r.withDetails(ctx)
	if publishedOnly {
		q = q.Where("status = ?", models.PostPublished)
	}
	var posts []models.Post
	err := q.Order("views DESC, id DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) TopByReactions(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.withDetails(ctx).
		Where("status = ?", models.PostPublished).
		Order("reaction_count DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// PublishDue publishes every draft whose publish time has passed.
// published_at keeps its first value if the post was published before.
func (r *PostgresPostRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("status = ? AND publish_at IS NOT NULL AND publish_at <= ?", models.PostDraft, now).
		Updates(map[string]interface{}{
			"status":       models.PostPublished,
			"published_at": gorm.Expr("COALESCE(published_at, ?)", now),
		})
	return res.RowsAffected, res.Error
}

func (r *PostgresPostRepository) Approve(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("is_approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Flag records a report and reports whether it is new. Repeated flags by
// the same user are ignored.
func (r *PostgresPostRepository) Flag(ctx context.Context, flag *models.PostFlag) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(flag)
	return res.RowsAffected > 0, res.Error
}

func (r *PostgresPostRepository) ListFlagged(ctx context.Context, limit int) ([]FlaggedPost, error) {
	var counts []struct {
		PostID uint
		Flags  int64
	}
	err := r.db.WithContext(ctx).Model(&models.PostFlag{}).
		Select("post_id, COUNT(*) AS flags").
		Group("post_id").
		Order("flags DESC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil || len(counts) == 0 {
		return []FlaggedPost{}, err
	}

	ids := make([]uint, len(counts))
	for i, c := range counts {
		ids[i] = c.PostID
	}
	var posts []models.Post
	if err := r.withDetails(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]FlaggedPost, 0, len(counts))
	for _, c := range counts {
		if p, ok := byID[c.PostID]; ok {
			out = append(out, FlaggedPost{Post: p, Flags: c.Flags})
		}
	}
	return out, nil
}

func (r *PostgresPostRepository) AddMedia(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}
