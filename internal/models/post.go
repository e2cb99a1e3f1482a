package models

import "time"

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

// Post is a blog post owned by exactly one author.
type Post struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	AuthorID      uint       `json:"author_id" gorm:"index"`
	Author        User       `json:"author" gorm:"foreignKey:AuthorID"`
	Title         string     `json:"title" gorm:"size:200"`
	Content       string     `json:"content"`
	Status        PostStatus `json:"status" gorm:"size:20;index;default:draft"`
	CategoryID    *uint      `json:"category_id" gorm:"index"`
	Category      *Category  `json:"category,omitempty"`
	Tags          []Tag      `json:"tags" gorm:"many2many:post_tags"`
	Media         []Media    `json:"media,omitempty"`
	Views         int64      `json:"views" gorm:"default:0"`
	ReactionCount int64      `json:"reaction_count" gorm:"default:0"`
	CommentCount  int64      `json:"comment_count" gorm:"default:0"`
	IsApproved    bool       `json:"is_approved" gorm:"default:false"`
	PublishAt     *time.Time `json:"publish_at" gorm:"index"`
	PublishedAt   *time.Time `json:"published_at" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostPublished
}

// ApplyStatus moves the post to the requested status. Publishing with a
// publish time still in the future keeps the post a draft for the
// scheduler. PublishedAt is only ever set once.
func (p *Post) ApplyStatus(status PostStatus, now time.Time) {
	if status == PostPublished && p.PublishAt != nil && p.PublishAt.After(now) {
		status = PostDraft
	}
	p.Status = status
	if status == PostPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

type CreatePostRequest struct {
	Title      string     `json:"title" validate:"required,min=1,max=200"`
	Content    string     `json:"content" validate:"required"`
	Status     PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
	CategoryID *uint      `json:"category_id,omitempty"`
	Tags       []string   `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=40"`
	PublishAt  *time.Time `json:"publish_at,omitempty"`
}

type UpdatePostRequest struct {
	Title      *string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content    *string     `json:"content,omitempty" validate:"omitempty,min=1"`
	Status     *PostStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
	CategoryID *uint       `json:"category_id,omitempty"`
	Tags       []string    `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=40"`
	PublishAt  *time.Time  `json:"publish_at,omitempty"`
}

// PostFilter narrows the published post listing.
type PostFilter struct {
	Search   string
	Category string
	Tag      string
	AuthorID uint
}

type FlagPostRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// PostFlag is a moderation report; one per user and post.
type PostFlag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"uniqueIndex:idx_flag_post_user"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_flag_post_user"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Media is a file uploaded for a post.
type Media struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PostID      uint      `json:"post_id" gorm:"index"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type" gorm:"size:100"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
