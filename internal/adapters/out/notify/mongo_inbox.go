package notify

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	InboxCollectionName = "notifications"
	DefaultInboxLimit   = 50
)

// InboxCollection is the part of *mongo.Collection the inbox needs.
type InboxCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// InboxEntry is a stored notification.
type InboxEntry struct {
	ID        string            `bson:"_id" json:"id"`
	UserID    string            `bson:"user_id" json:"user_id"`
	Kind      string            `bson:"kind" json:"kind"`
	Title     string            `bson:"title" json:"title"`
	Message   string            `bson:"message" json:"message"`
	OrderID   string            `bson:"order_id" json:"order_id"`
	Data      map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
}

// MongoInbox keeps every notification so users who were offline can read it later.
type MongoInbox struct {
	col InboxCollection
	now func() time.Time
}

func NewMongoInbox(col InboxCollection, now func() time.Time) *MongoInbox {
	return &MongoInbox{col: col, now: now}
}

// EnsureIndexes creates the per-user recency index.
func EnsureIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create inbox index: %w", err)
	}
	return nil
}

func (i *MongoInbox) Notify(ctx context.Context, n ports.Notification) error {
	entry := InboxEntry{
		ID:        kernel.NewUUID().String(),
		UserID:    n.RecipientUserID.String(),
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		OrderID:   n.OrderID.String(),
		Data:      n.Data,
		CreatedAt: i.now().UTC(),
	}

	if _, err := i.col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("store inbox entry: %w", err)
	}
	return nil
}

// Recent returns the user's newest entries first.
func (i *MongoInbox) Recent(ctx context.Context, userID kernel.UUID, limit int) ([]InboxEntry, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := i.col.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("find inbox entries: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]InboxEntry, 0)
	for cur.Next(ctx) {
		var entry InboxEntry
		if err := cur.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode inbox entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
