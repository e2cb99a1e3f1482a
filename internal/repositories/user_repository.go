package repositories

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error)
	ListUserIDs(ctx context.Context) ([]uint, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	DeleteUser(ctx context.Context, id uint) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs loads several users at once, keyed by id.
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	result := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *PostgresUserRepository) ListUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *PostgresUserRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser removes the user with their posts, comments, reactions,
// bookmarks, follows, devices and notifications. Counters on other users'
// posts and profiles are recomputed for the rows that disappear.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := deletePostsCascade(tx, postIDs); err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		var touched []uint
		if err := tx.Model(&models.Reaction{}).Where("user_id = ?", id).Distinct().Pluck("post_id", &touched).Error; err != nil {
			return err
		}
		var commented []uint
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", id).Distinct().Pluck("post_id", &commented).Error; err != nil {
			return err
		}
		touched = append(touched, commented...)

		var followers, following []uint
		if err := tx.Model(&models.Follow{}).Where("following_id = ?", id).Pluck("follower_id", &followers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Follow{}).Where("follower_id = ?", id).Pluck("following_id", &following).Error; err != nil {
			return err
		}

		steps := []struct {
			model interface{}
			where string
			args  []interface{}
		}{
			{&models.Comment{}, "user_id = ?", []interface{}{id}},
			{&models.Reaction{}, "user_id = ?", []interface{}{id}},
			{&models.Bookmark{}, "user_id = ?", []interface{}{id}},
			{&models.PostFlag{}, "user_id = ?", []interface{}{id}},
			{&models.DeviceToken{}, "user_id = ?", []interface{}{id}},
			{&models.Follow{}, "follower_id = ? OR following_id = ?", []interface{}{id, id}},
			{&models.Notification{}, "recipient_id = ? OR sender_id = ?", []interface{}{id, id}},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, s.args...).Delete(s.model).Error; err != nil {
				return errors.Wrapf(err, "delete %T", s.model)
			}
		}

		// Replies to the removed comments go with them, level by level.
		for {
			res := tx.Exec("DELETE FROM comments WHERE parent_id IS NOT NULL AND parent_id NOT IN (SELECT id FROM comments)")
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				break
			}
		}

		if err := refreshPostCounters(tx, touched); err != nil {
			return err
		}
		if err := refreshFollowCounters(tx, append(followers, following...)); err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SearchUsers searches for users by username or email
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like).
		Order("username").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func refreshPostCounters(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	return tx.Exec(`UPDATE posts SET
		reaction_count = (SELECT COUNT(*) FROM reactions WHERE reactions.post_id = posts.id),
		comment_count = (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)
		WHERE id IN ?`, postIDs).Error
}

func refreshFollowCounters(tx *gorm.DB, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return tx.Exec(`UPDATE users SET
		followers_count = (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id),
		following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)
		WHERE id IN ?`, userIDs).Error
}
