package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository defines the interface for category and tag operations
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
	EnsureTags(ctx context.Context, names []string) ([]models.Tag, error)
	SuggestTags(ctx context.Context, prefix string, limit int) ([]models.Tag, error)
}

type PostgresCategoryRepository struct {
	db *gorm.DB
}

func NewPostgresCategoryRepository(db *gorm.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *PostgresCategoryRepository) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *PostgresCategoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// DeleteCategory detaches the category from its posts before removing it.
func (r *PostgresCategoryRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// EnsureTags returns the tags with the given names, creating missing ones.
// Names are trimmed, lower-cased and de-duplicated.
func (r *PostgresCategoryRepository) EnsureTags(ctx context.Context, names []string) ([]models.Tag, error) {
	seen := make(map[string]bool, len(names))
	clean := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		clean = append(clean, n)
	}
	if len(clean) == 0 {
		return []models.Tag{}, nil
	}

	db := r.db.WithContext(ctx)
	fresh := make([]models.Tag, len(clean))
	for i, n := range clean {
		fresh[i] = models.Tag{Name: n}
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := db.Where("name IN ?", clean).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// SuggestTags matches tag names by case-insensitive prefix.
func (r *PostgresCategoryRepository) SuggestTags(ctx context.Context, prefix string, limit int) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", strings.ToLower(prefix)+"%").
		Order("name").
		Limit(limit).
		Find(&tags).Error
	return tags, err
}
