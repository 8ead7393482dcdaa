package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestCartQuantityUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("existing row", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		if err := db.CartQuantityUpdate(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 3); err != nil {
			mt.Fatalf("CartQuantityUpdate() error: %v", err)
		}
	})

	// quantity updates never create rows: a missing (user, book) pair is
	// reported, so the price_at_add snapshot set by CartUpsert is never
	// skipped
	mt.Run("missing row", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := db.CartQuantityUpdate(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 2)
		if !errors.Is(err, ErrNoDocumentsModified) {
			mt.Fatalf("want ErrNoDocumentsModified, got %v", err)
		}
	})
}
