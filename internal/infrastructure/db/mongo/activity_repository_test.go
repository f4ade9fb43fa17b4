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
)

func TestActivityRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id", func(mt *mtest.T) {
		repo := NewActivityRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		a := &domain.Activity{
			AccountID: "acc-1",
			Kind:      domain.KindUser,
			Action:    domain.ActionProfileUpdated,
			Fields:    []string{"name"},
			At:        time.Now(),
		}
		require.NoError(mt, repo.Insert(context.Background(), a))
		assert.Len(mt, a.ID, 24)

		doc := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "profile_updated", doc.Lookup("action").StringValue())
		_, err := doc.LookupErr("actor_id")
		assert.Error(mt, err)
	})

	mt.Run("write error", func(mt *mtest.T) {
		repo := NewActivityRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "validation"}))

		assert.Error(mt, repo.Insert(context.Background(), &domain.Activity{AccountID: "acc-1"}))
	})
}

func TestActivityRepository_ListByAccount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes entries and sends limit", func(mt *mtest.T) {
		repo := NewActivityRepository(mt.DB)
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "crm.account_activity", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "account_id", Value: "acc-1"},
				{Key: "kind", Value: "user"},
				{Key: "action", Value: "soft_deleted"},
				{Key: "actor_id", Value: "admin-1"},
				{Key: "at", Value: at},
			}))

		got, err := repo.ListByAccount(context.Background(), "acc-1", 5)
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, domain.ActionSoftDeleted, got[0].Action)
		assert.Equal(mt, "admin-1", got[0].ActorID)
		assert.True(mt, at.Equal(got[0].At))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, int64(5), cmd.Lookup("limit").AsInt64())
	})
}
