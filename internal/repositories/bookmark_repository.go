package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// BookmarkRepository defines the interface for bookmark operations
type BookmarkRepository interface {
	Toggle(ctx context.Context, userID, postID uint) (models.ToggleOutcome, error)
	ListBookmarkedPosts(ctx context.Context, userID uint) ([]models.Post, error)
	BookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
}

// PostgresBookmarkRepository implements BookmarkRepository
type PostgresBookmarkRepository struct {
	db *gorm.DB
}

func NewPostgresBookmarkRepository(db *gorm.DB) *PostgresBookmarkRepository {
	return &PostgresBookmarkRepository{db: db}
}

// Toggle adds the bookmark when absent and removes it when present.
func (r *PostgresBookmarkRepository) Toggle(ctx context.Context, userID, postID uint) (models.ToggleOutcome, error) {
	return applyToggle[models.Bookmark](ctx, r.db, userID, postID, "", nil)
}

// ListBookmarkedPosts returns the bookmarked posts, most recently saved first.
func (r *PostgresBookmarkRepository) ListBookmarkedPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Preload("Author").Preload("Category").Preload("Tags").
		Find(&posts).Error
	return posts, err
}

func (r *PostgresBookmarkRepository) BookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
