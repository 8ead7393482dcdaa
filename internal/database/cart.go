package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"librolink/internal/model"
)

// CartUpsert adds the book to the user's cart or overwrites the quantity of
// an existing row, keeping one row per (user, book) pair.
func (db Database) CartUpsert(ctx context.Context, ce model.CartEntry) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(CollectionCarts).UpdateOne(
		ctx,
		bson.M{"user": ce.User, "book": ce.Book},
		bson.M{
			"$set": bson.M{
				"quantity":   ce.Quantity,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"price_at_add": ce.PriceAtAdd,
				"created_at":   now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting CartEntry for User: %s, Book: %s", ce.User.Hex(), ce.Book.Hex())
}

// CartQuantityUpdate overwrites the quantity of an existing row. Rows are
// only ever created through CartUpsert so the price_at_add snapshot is never
// skipped.
func (db Database) CartQuantityUpdate(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID, quantity int) error {
	res, err := db.Collection(CollectionCarts).UpdateOne(
		ctx,
		bson.M{"user": userID, "book": bookID},
		bson.M{"$set": bson.M{
			"quantity":   quantity,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating quantity of CartEntry for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "updating quantity of CartEntry for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	return nil
}

func (db Database) CartRemove(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID) error {
	res, err := db.Collection(CollectionCarts).DeleteOne(ctx, bson.M{"user": userID, "book": bookID})
	if err != nil {
		return errors.Wrapf(err, "error deleting CartEntry for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "deleting CartEntry for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	return nil
}

func (db Database) CartClear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := db.Collection(CollectionCarts).DeleteMany(ctx, bson.M{"user": userID})
	return errors.Wrapf(err, "error clearing cart of User: %s", userID.Hex())
}

func (db Database) CartFindByUser(ctx context.Context, userID primitive.ObjectID) ([]model.CartEntry, error) {
	var ces []model.CartEntry
	cur, err := db.Collection(CollectionCarts).Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find CartEntries for User: %s", userID.Hex())
	}
	if err = cur.All(ctx, &ces); err != nil {
		return nil, errors.Wrapf(err, "error getting CartEntries from cursor for User: %s", userID.Hex())
	}
	return ces, nil
}
