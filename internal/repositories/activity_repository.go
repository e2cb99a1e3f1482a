package repositories

import (
	"context"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository stores the per-request activity trail.
type ActivityRepository interface {
	Record(ctx context.Context, entry *models.ActivityLog) error
	Recent(ctx context.Context, userID uint, limit int64) ([]models.ActivityLog, error)
	MostActive(ctx context.Context, limit int64) ([]models.UserActivityCount, error)
}

type activityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(mongoDB *mongo.Database) ActivityRepository {
	return &activityRepository{collection: mongoDB.Collection("activity_logs")}
}

// EnsureActivityIndexes creates the index backing the per-user queries.
func EnsureActivityIndexes(ctx context.Context, mongoDB *mongo.Database) error {
	_, err := mongoDB.Collection("activity_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func (r *activityRepository) Record(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = primitive.NewObjectID()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// Recent returns the user's latest entries; userID 0 means everyone.
func (r *activityRepository) Recent(ctx context.Context, userID uint, limit int64) ([]models.ActivityLog, error) {
	filter := bson.M{}
	if userID != 0 {
		filter["user_id"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.ActivityLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *activityRepository) MostActive(ctx context.Context, limit int64) ([]models.UserActivityCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$user_id"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.UserActivityCount{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NopActivityRepository is used when MongoDB is not configured.
type NopActivityRepository struct{}

func (NopActivityRepository) Record(context.Context, *models.ActivityLog) error { return nil }

func (NopActivityRepository) Recent(context.Context, uint, int64) ([]models.ActivityLog, error) {
	return []models.ActivityLog{}, nil
}

func (NopActivityRepository) MostActive(context.Context, int64) ([]models.UserActivityCount, error) {
	return []models.UserActivityCount{}, nil
}
