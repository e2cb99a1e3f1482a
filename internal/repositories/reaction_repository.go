package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	Toggle(ctx context.Context, userID, postID uint, kind models.ReactionKind) (models.ToggleOutcome, error)
	GetUserReaction(ctx context.Context, userID, postID uint) (*models.Reaction, error)
	CountsByKind(ctx context.Context, postID uint) (map[models.ReactionKind]int64, error)
	UserReactionsForPosts(ctx context.Context, userID uint, postIDs []uint) (map[uint]models.ReactionKind, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// Toggle applies the reaction toggle and keeps posts.reaction_count in the
// same transaction.
func (r *PostgresReactionRepository) Toggle(ctx context.Context, userID, postID uint, kind models.ReactionKind) (models.ToggleOutcome, error) {
	return applyToggle[models.Reaction](ctx, r.db, userID, postID, string(kind), func(tx *gorm.DB, outcome models.ToggleOutcome) error {
		delta := 0
		switch outcome {
		case models.ToggleAdded:
			delta = 1
		case models.ToggleRemoved:
			delta = -1
		}
		if delta == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("reaction_count", gorm.Expr("reaction_count + ?", delta)).Error
	})
}

// GetUserReaction returns gorm.ErrRecordNotFound when the user has not reacted.
func (r *PostgresReactionRepository) GetUserReaction(ctx context.Context, userID, postID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Take(&reaction).Error; err != nil {
		return nil, err
	}
	return &reaction, nil
}

// CountsByKind returns every kind, zero when nobody used it.
func (r *PostgresReactionRepository) CountsByKind(ctx context.Context, postID uint) (map[models.ReactionKind]int64, error) {
	var rows []struct {
		Kind  models.ReactionKind
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("kind, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ReactionKind]int64, len(models.ReactionKinds))
	for _, k := range models.ReactionKinds {
		counts[k] = 0
	}
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

func (r *PostgresReactionRepository) UserReactionsForPosts(ctx context.Context, userID uint, postIDs []uint) (map[uint]models.ReactionKind, error) {
	result := make(map[uint]models.ReactionKind)
	if len(postIDs) == 0 {
		return result, nil
	}
	var reactions []models.Reaction
	if err := r.db.WithContext(ctx).Where("user_id = ? AND post_id IN ?", userID, postIDs).Find(&reactions).Error; err != nil {
		return nil, err
	}
	for _, re := range reactions {
		result[re.PostID] = re.Kind
	}
	return result, nil
}
