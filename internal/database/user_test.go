package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserSetActive(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("existing user", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		if err := db.UserSetActive(context.Background(), primitive.NewObjectID().Hex(), false); err != nil {
			mt.Fatalf("UserSetActive() error: %v", err)
		}
	})

	// a well-formed ID that matches no document must surface the sentinel,
	// not report success
	mt.Run("missing user", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := db.UserSetActive(context.Background(), primitive.NewObjectID().Hex(), true)
		if !errors.Is(err, ErrNoDocumentsModified) {
			mt.Fatalf("want ErrNoDocumentsModified, got %v", err)
		}
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		if err := db.UserSetActive(context.Background(), "not-a-hex-id", false); err == nil {
			mt.Fatal("UserSetActive() accepted an invalid ID")
		}
	})
}
