package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

const activityCollection = "account_activity"

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	coll *mongo.Collection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{coll: db.Collection(activityCollection)}
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

type mongoActivity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AccountID   string             `bson:"account_id"`
	Kind        string             `bson:"kind"`
	Action      string             `bson:"action"`
	ActorID     string             `bson:"actor_id,omitempty"`
	Fields      []string           `bson:"fields,omitempty"`
	At          time.Time          `bson:"at"`
	ProcessedAt time.Time          `bson:"processed_at"`
}

// Insert appends an entry to the audit trail.
func (r *ActivityRepository) Insert(ctx context.Context, a *domain.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoActivity{
		AccountID:   a.AccountID,
		Kind:        string(a.Kind),
		Action:      string(a.Action),
		ActorID:     a.ActorID,
		Fields:      a.Fields,
		At:          a.At.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

// ListByAccount returns up to limit entries for accountID, newest first.
func (r *ActivityRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoActivity
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	out := make([]*domain.Activity, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Activity{
			ID:        d.ID.Hex(),
			AccountID: d.AccountID,
			Kind:      domain.Kind(d.Kind),
			Action:    domain.ActivityAction(d.Action),
			ActorID:   d.ActorID,
			Fields:    d.Fields,
			At:        d.At,
		})
	}
	return out, nil
}

// EnsureIndexes creates the lookup index used by ListByAccount.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}
