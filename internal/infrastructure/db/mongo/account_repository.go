package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

const (
	usersCollection  = "users"
	adminsCollection = "admins"
)

// AccountRepository stores one kind of account in its own collection.
type AccountRepository struct {
	coll *mongo.Collection
	kind domain.Kind
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository returns the repository for kind: users live in
// "users", admins in "admins".
func NewAccountRepository(db *mongo.Database, kind domain.Kind) *AccountRepository {
	name := usersCollection
	if kind == domain.KindAdmin {
		name = adminsCollection
	}
	return &AccountRepository{coll: db.Collection(name), kind: kind}
}

// mongoAccount mirrors the stored document. Admin documents carry neither
// role nor isDeleted.
type mongoAccount struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role,omitempty"`
	IsDeleted *bool              `bson:"isDeleted,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (r *AccountRepository) toDomain(m *mongoAccount) *domain.Account {
	a := &domain.Account{
		ID:           m.ID.Hex(),
		Kind:         r.kind,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.Password,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if a.Role == "" {
		a.Role = r.kind.DefaultRole()
	}
	if m.IsDeleted != nil {
		a.IsDeleted = *m.IsDeleted
	}
	return a
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAccount{
		Name:      account.Name,
		Email:     account.Email,
		Password:  account.PasswordHash,
		CreatedAt: account.CreatedAt.UTC(),
		UpdatedAt: account.UpdatedAt.UTC(),
	}
	if r.kind == domain.KindUser {
		deleted := account.IsDeleted
		doc.Role = account.Role
		doc.IsDeleted = &deleted
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert %s: %w", r.kind, err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert %s: unexpected id type %T", r.kind, res.InsertedID)
	}
	doc.ID = id
	return r.toDomain(&doc), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.kind, err)
	}
	return r.toDomain(&m), nil
}

// List returns every account ordered by creation time.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind, err)
	}
	defer cur.Close(ctx)

	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", r.kind, err)
	}

	out := make([]*domain.Account, 0, len(docs))
	for i := range docs {
		out = append(out, r.toDomain(&docs[i]))
	}
	return out, nil
}

// Update sets the patched fields and returns the document after the write.
func (r *AccountRepository) Update(ctx context.Context, id string, patch ports.AccountPatch) (*domain.Account, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != "" {
		set["name"] = patch.Name
	}
	if patch.Email != "" {
		set["email"] = patch.Email
	}
	if patch.PasswordHash != "" {
		set["password"] = patch.PasswordHash
	}

	a, err := r.findOneAndSet(ctx, id, set)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrEmailInUse
	}
	return a, err
}

// SoftDelete sets isDeleted. It only touches that flag so repeated calls
// leave the document unchanged.
func (r *AccountRepository) SoftDelete(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOneAndSet(ctx, id, bson.M{"isDeleted": true})
}

func (r *AccountRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m mongoAccount
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update %s: %w", r.kind, err)
	}
	return r.toDomain(&m), nil
}

// EnsureIndexes creates the unique email index the registration flow relies on.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}
