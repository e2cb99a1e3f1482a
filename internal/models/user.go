package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/datatypes"
)

// Role is the account role used by the permission policy.
type Role string

const (
	RoleAuthor Role = "author"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAuthor, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	Username       string            `json:"username" gorm:"size:50;uniqueIndex"`
	Email          string            `json:"email" gorm:"uniqueIndex"`
	Password       string            `json:"-"`
	FirebaseUID    *string           `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	Role           Role              `json:"role" gorm:"size:20;default:author"`
	EmailVerified  bool              `json:"email_verified" gorm:"default:false"`
	Bio            string            `json:"bio"`
	AvatarURL      string            `json:"avatar_url"`
	SocialLinks    datatypes.JSONMap `json:"social_links"`
	FollowersCount int64             `json:"followers_count" gorm:"default:0"`
	FollowingCount int64             `json:"following_count" gorm:"default:0"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// UserCompact is the author/actor summary embedded in other payloads.
type UserCompact struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

// ProfileCompletion returns the filled share of the public profile in
// percent together with the names of the missing parts.
func (u *User) ProfileCompletion() (int, []string) {
	checks := []struct {
		name string
		ok   bool
	}{
		{"bio", u.Bio != ""},
		{"avatar", u.AvatarURL != ""},
		{"social_links", len(u.SocialLinks) > 0},
		{"email_verified", u.EmailVerified},
	}

	var missing []string
	done := 0
	for _, c := range checks {
		if c.ok {
			done++
			continue
		}
		missing = append(missing, c.name)
	}
	return done * 100 / len(checks), missing
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Username    *string           `json:"username,omitempty" validate:"omitempty,min=3,max=50,alphanum"`
	Bio         *string           `json:"bio,omitempty" validate:"omitempty,max=1000"`
	AvatarURL   *string           `json:"avatar_url,omitempty" validate:"omitempty,url"`
	SocialLinks map[string]string `json:"social_links,omitempty" validate:"omitempty,dive,url"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=author editor admin"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=512"`
	Platform string `json:"platform" validate:"omitempty,oneof=web android ios"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
// Purpose separates access tokens from single-purpose email links, and
// Fingerprint ties reset tokens to the password hash they were issued for.
type JwtCustomClaims struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	Purpose     string `json:"purpose,omitempty"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}
