package models

import "time"

// Follow is a directed follower -> following edge.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeviceToken is an FCM registration token used for web push.
type DeviceToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Token     string    `json:"token" gorm:"size:512;uniqueIndex"`
	Platform  string    `json:"platform" gorm:"size:20"`
	CreatedAt time.Time `json:"created_at"`
}
