package repositories

import (
	"context"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for message storage. As with
// notifications, the Mongo adapter and the in-process fallback store share
// it behind the service façade.
type MessageRepository interface {
	Insert(ctx context.Context, message *models.Message) error
	// ListByPair returns the thread in chronological reading order
	// (oldest first).
	ListByPair(ctx context.Context, key models.ConversationKey) ([]models.Message, error)
	// ListForParty returns every message in which the given party
	// participates, for conversation derivation.
	ListForParty(ctx context.Context, role, partyID string) ([]models.Message, error)
	// MarkPairRead marks every message in the pair not sent by viewerRole
	// as read. Idempotent; an unknown pair is a no-op.
	MarkPairRead(ctx context.Context, key models.ConversationKey, viewerRole string) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

func (r *MongoMessageRepository) Insert(ctx context.Context, message *models.Message) error {
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

func (r *MongoMessageRepository) ListByPair(ctx context.Context, key models.ConversationKey) ([]models.Message, error) {
	filter := bson.M{"tenant_id": key.TenantID, "landlord_id": key.LandlordID}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MongoMessageRepository) ListForParty(ctx context.Context, role, partyID string) ([]models.Message, error) {
	filter := bson.M{partyField(role): partyID}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MongoMessageRepository) MarkPairRead(ctx context.Context, key models.ConversationKey, viewerRole string) error {
	filter := bson.M{
		"tenant_id":   key.TenantID,
		"landlord_id": key.LandlordID,
		"sender_role": bson.M{"$ne": viewerRole},
		"status":      models.MessageStatusUnread,
	}
	update := bson.M{"$set": bson.M{"status": models.MessageStatusRead}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// partyField maps a viewer role to the message field holding that party's id.
func partyField(role string) string {
	if role == models.RoleLandlord {
		return "landlord_id"
	}
	return "tenant_id"
}
