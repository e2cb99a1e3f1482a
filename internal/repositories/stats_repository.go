package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// Stats are the platform-wide counters shown on the admin dashboard.
type Stats struct {
	Users     int64 `json:"users"`
	Posts     int64 `json:"posts"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
	Comments  int64 `json:"comments"`
	Reactions int64 `json:"reactions"`
	Bookmarks int64 `json:"bookmarks"`
}

type StatsRepository interface {
	Counts(ctx context.Context) (*Stats, error)
}

type PostgresStatsRepository struct {
	db *gorm.DB
}

func NewPostgresStatsRepository(db *gorm.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

func (r *PostgresStatsRepository) Counts(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	db := r.db.WithContext(ctx)
	counts := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&s.Users, db.Model(&models.User{})},
		{&s.Posts, db.Model(&models.Post{})},
		{&s.Published, db.Model(&models.Post{}).Where("status = ?", models.PostPublished)},
		{&s.Drafts, db.Model(&models.Post{}).Where("status = ?", models.PostDraft)},
		{&s.Comments, db.Model(&models.Comment{})},
		{&s.Reactions, db.Model(&models.Reaction{})},
		{&s.Bookmarks, db.Model(&models.Bookmark{})},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return s, nil
}
