package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// toggleHook runs inside the toggle transaction after the relation row has
// been written, e.g. to keep a counter in step.
type toggleHook func(tx *gorm.DB, outcome models.ToggleOutcome) error

// applyToggle performs the read-modify-write on one (user, post) relation
// atomically. The unique index on (user_id, post_id) backs the check: when a
// concurrent toggle wins the insert race the duplicate key error is caught
// and the toggle is replayed once against the row that won.
func applyToggle[T any, PT interface {
	*T
	models.Relation
}](ctx context.Context, db *gorm.DB, userID, postID uint, kind string, hook toggleHook) (models.ToggleOutcome, error) {
	var (
		outcome models.ToggleOutcome
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		outcome, err = toggleOnce[T, PT](ctx, db, userID, postID, kind, hook)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return "", errors.Wrap(err, "toggle relation")
	}
	return outcome, nil
}

func toggleOnce[T any, PT interface {
	*T
	models.Relation
}](ctx context.Context, db *gorm.DB, userID, postID uint, kind string, hook toggleHook) (models.ToggleOutcome, error) {
	var outcome models.ToggleOutcome

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := PT(new(T))
		q := tx.Where("user_id = ? AND post_id = ?", userID, postID)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		exists := true
		if err := q.Take(row).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			exists = false
		}

		current := ""
		if exists {
			current = row.RelationKind()
		}
		outcome = models.NextToggle(exists, current, kind)

		var err error
		switch outcome {
		case models.ToggleAdded:
			fresh := PT(new(T))
			fresh.SetRelation(userID, postID, kind)
			err = tx.Create(fresh).Error
		case models.ToggleRemoved:
			err = tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(PT(new(T))).Error
		case models.ToggleUpdated:
			err = tx.Model(PT(new(T))).Where("user_id = ? AND post_id = ?", userID, postID).Update("kind", kind).Error
		}
		if err != nil {
			return err
		}

		if hook != nil {
			return hook(tx, outcome)
		}
		return nil
	})

	return outcome, err
}
