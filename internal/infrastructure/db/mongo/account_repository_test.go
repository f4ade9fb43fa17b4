package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

func accountDoc(id primitive.ObjectID, email string, extra ...bson.E) bson.D {
	d := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ada"},
		{Key: "email", Value: email},
		{Key: "password", Value: "$2a$10$hash"},
		{Key: "createdAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updatedAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	return append(d, extra...)
}

func TestAccountRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("user gets role and isDeleted", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := repo.Create(context.Background(), &domain.Account{
			Name: "Ada", Email: "ada@x.io", PasswordHash: "h", Role: domain.RoleUser,
		})
		require.NoError(mt, err)
		assert.Len(mt, got.ID, 24)
		assert.Equal(mt, domain.RoleUser, got.Role)
		assert.False(mt, got.IsDeleted)

		sent := mt.GetStartedEvent().Command
		doc := sent.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "h", doc.Lookup("password").StringValue())
		assert.False(mt, doc.Lookup("isDeleted").Boolean())
	})

	mt.Run("admin document has no role field", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindAdmin)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := repo.Create(context.Background(), &domain.Account{Name: "Root", Email: "root@x.io", PasswordHash: "h"})
		require.NoError(mt, err)
		assert.Equal(mt, domain.RoleAdmin, got.Role)

		doc := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		_, err = doc.LookupErr("role")
		assert.Error(mt, err)
		_, err = doc.LookupErr("isDeleted")
		assert.Error(mt, err)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		_, err := repo.Create(context.Background(), &domain.Account{Email: "ada@x.io"})
		assert.ErrorIs(mt, err, domain.ErrAccountExists)
	})
}

func TestAccountRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("by id", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "crm.users", mtest.FirstBatch,
			accountDoc(id, "ada@x.io", bson.E{Key: "role", Value: "user"}, bson.E{Key: "isDeleted", Value: true})))

		got, err := repo.FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), got.ID)
		assert.Equal(mt, domain.KindUser, got.Kind)
		assert.Equal(mt, "$2a$10$hash", got.PasswordHash)
		assert.True(mt, got.IsDeleted)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		_, err := repo.FindByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, domain.ErrInvalidID)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("no documents", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindAdmin)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "crm.admins", mtest.FirstBatch))

		_, err := repo.FindByEmail(context.Background(), "x@y.io")
		assert.ErrorIs(mt, err, domain.ErrAccountNotFound)
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom"}))

		_, err := repo.FindByEmail(context.Background(), "x@y.io")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, domain.ErrAccountNotFound)
	})
}

func TestAccountRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all including deleted", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		first := mtest.CreateCursorResponse(1, "crm.users", mtest.FirstBatch,
			accountDoc(primitive.NewObjectID(), "a@x.io"))
		second := mtest.CreateCursorResponse(0, "crm.users", mtest.NextBatch,
			accountDoc(primitive.NewObjectID(), "b@x.io", bson.E{Key: "isDeleted", Value: true}))
		mt.AddMockResponses(first, second)

		got, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.False(mt, got[0].IsDeleted)
		assert.True(mt, got[1].IsDeleted)
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindAdmin)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "crm.admins", mtest.FirstBatch))

		got, err := repo.List(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})
}

func TestAccountRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("returns updated document", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: accountDoc(id, "new@x.io")},
		})

		got, err := repo.Update(context.Background(), id.Hex(), ports.AccountPatch{Email: "new@x.io"})
		require.NoError(mt, err)
		assert.Equal(mt, "new@x.io", got.Email)

		set := mt.GetStartedEvent().Command.Lookup("update").Document().Lookup("$set").Document()
		assert.Equal(mt, "new@x.io", set.Lookup("email").StringValue())
		_, err = set.LookupErr("name")
		assert.Error(mt, err)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 11000, Message: "E11000 duplicate key error", Name: "DuplicateKey",
		}))

		_, err := repo.Update(context.Background(), id.Hex(), ports.AccountPatch{Email: "taken@x.io"})
		assert.ErrorIs(mt, err, domain.ErrEmailInUse)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.Update(context.Background(), id.Hex(), ports.AccountPatch{Name: "x"})
		assert.ErrorIs(mt, err, domain.ErrAccountNotFound)
	})
}

func TestAccountRepository_SoftDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("sets only the flag", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: accountDoc(id, "a@x.io", bson.E{Key: "isDeleted", Value: true})},
		})

		got, err := repo.SoftDelete(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.True(mt, got.IsDeleted)

		set := mt.GetStartedEvent().Command.Lookup("update").Document().Lookup("$set").Document()
		elems, err := set.Elements()
		require.NoError(mt, err)
		assert.Len(mt, elems, 1)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, domain.KindUser)
		_, err := repo.SoftDelete(context.Background(), "123")
		assert.ErrorIs(mt, err, domain.ErrInvalidID)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
