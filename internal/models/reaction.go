package models

import "time"

// ReactionKind is the closed set of reactions a user can leave on a post.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionLaugh ReactionKind = "laugh"
	ReactionAngry ReactionKind = "angry"
	ReactionWow   ReactionKind = "wow"
)

// ReactionKinds lists every valid kind in display order.
var ReactionKinds = []ReactionKind{ReactionLike, ReactionLove, ReactionLaugh, ReactionAngry, ReactionWow}

// ParseReactionKind validates s against the closed enumeration.
func ParseReactionKind(s string) (ReactionKind, bool) {
	for _, k := range ReactionKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Reaction is at most one per (user, post); the unique index enforces it.
type Reaction struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	UserID    uint         `json:"user_id" gorm:"uniqueIndex:idx_reaction_user_post"`
	PostID    uint         `json:"post_id" gorm:"uniqueIndex:idx_reaction_user_post;index"`
	Kind      ReactionKind `json:"kind" gorm:"size:20"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (r *Reaction) RelationKind() string { return string(r.Kind) }

func (r *Reaction) SetRelation(userID, postID uint, kind string) {
	r.UserID, r.PostID, r.Kind = userID, postID, ReactionKind(kind)
}

type ToggleReactionRequest struct {
	Kind string `json:"kind" validate:"required,reaction_kind"`
}
