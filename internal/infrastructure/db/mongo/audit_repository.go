package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

const auditCollection = "auth_events"

// MongoAuditRepository persists the auth audit trail. Writes arrive from
// the audit dispatcher workers, never from the request path directly.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuthEvent struct {
	Email string `bson:"email"`
	Kind  string `bson:"kind"`
	At    int64  `bson:"at"`
}

func (r *MongoAuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	doc := mongoAuthEvent{
		Email: event.Email,
		Kind:  string(event.Kind),
		At:    event.At.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
