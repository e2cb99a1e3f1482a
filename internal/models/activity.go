package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog records one authenticated request. Stored in MongoDB.
type ActivityLog struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	Action    string             `json:"action" bson:"action"`
	Method    string             `json:"method" bson:"method"`
	Path      string             `json:"path" bson:"path"`
	Status    int                `json:"status" bson:"status"`
	IP        string             `json:"ip" bson:"ip"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

type UserActivityCount struct {
	UserID uint  `json:"user_id" bson:"_id"`
	Count  int64 `json:"count" bson:"count"`
}
