package models

import "time"

type NotificationKind string

const (
	NotificationComment      NotificationKind = "comment"
	NotificationReply        NotificationKind = "reply"
	NotificationReaction     NotificationKind = "reaction"
	NotificationFollow       NotificationKind = "follow"
	NotificationAnnouncement NotificationKind = "announcement"
)

// Notification is created by the system on behalf of another actor.
// The only mutations are unread -> read and deletion by the recipient.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RecipientID uint             `json:"recipient_id" gorm:"index"`
	SenderID    *uint            `json:"sender_id" gorm:"index"`
	PostID      *uint            `json:"post_id" gorm:"index"`
	Kind        NotificationKind `json:"kind" gorm:"size:30;index"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

// MarkRead flips the notification to read and reports whether it changed.
func (n *Notification) MarkRead() bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	return true
}

type AnnouncementRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
}
