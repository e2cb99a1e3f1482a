package models

import "time"

// Bookmark represents a bookmarked post by a user
type Bookmark struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_bookmark_user_post"`
	PostID    uint      `json:"post_id" gorm:"uniqueIndex:idx_bookmark_user_post;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmarks carry no kind, so a toggle either adds or removes.
func (b *Bookmark) RelationKind() string { return "" }

func (b *Bookmark) SetRelation(userID, postID uint, _ string) {
	b.UserID, b.PostID = userID, postID
}
