package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository stores FCM registration tokens for web push.
type DeviceRepository interface {
	RegisterDevice(ctx context.Context, device *models.DeviceToken) error
	RemoveDevice(ctx context.Context, userID uint, token string) error
	ListTokens(ctx context.Context, userID uint) ([]string, error)
}

type PostgresDeviceRepository struct {
	db *gorm.DB
}

func NewPostgresDeviceRepository(db *gorm.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

// RegisterDevice binds the token to the user. A token seen before moves to
// the new owner, since a browser profile is shared by whoever signs in.
func (r *PostgresDeviceRepository) RegisterDevice(ctx context.Context, device *models.DeviceToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform"}),
	}).Create(device).Error
}

func (r *PostgresDeviceRepository) RemoveDevice(ctx context.Context, userID uint, token string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND token = ?", userID, token).Delete(&models.DeviceToken{}).Error
}

func (r *PostgresDeviceRepository) ListTokens(ctx context.Context, userID uint) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&models.DeviceToken{}).Where("user_id = ?", userID).Pluck("token", &tokens).Error
	return tokens, err
}
