package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"librolink/internal/model"
)

func (db Database) WishlistAdd(ctx context.Context, we model.WishlistEntry) (id string, err error) {
	we.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	we.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionWishlists).InsertOne(ctx, we)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting WishlistEntry for User: %s, Book: %s", we.User.Hex(), we.Book.Hex())
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) WishlistRemove(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID) error {
	res, err := db.Collection(CollectionWishlists).DeleteOne(ctx, bson.M{"user": userID, "book": bookID})
	if err != nil {
		return errors.Wrapf(err, "error deleting WishlistEntry for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "deleting WishlistEntry for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	return nil
}

func (db Database) WishlistFindByUser(ctx context.Context, userID primitive.ObjectID) ([]model.WishlistEntry, error) {
	var wes []model.WishlistEntry
	cur, err := db.Collection(CollectionWishlists).Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find WishlistEntries for User: %s", userID.Hex())
	}
	if err = cur.All(ctx, &wes); err != nil {
		return nil, errors.Wrapf(err, "error getting WishlistEntries from cursor for User: %s", userID.Hex())
	}
	return wes, nil
}

func (db Database) WishlistAlertUpdate(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID, alert model.PriceAlert) error {
	res, err := db.Collection(CollectionWishlists).UpdateOne(
		ctx,
		bson.M{"user": userID, "book": bookID},
		bson.M{"$set": bson.M{
			"price_alert": alert,
			"notified":    false,
			"updated_at":  primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating PriceAlert for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "updating PriceAlert for User: %s, Book: %s", userID.Hex(), bookID.Hex())
	}
	return nil
}

// WishlistFindAlertable returns entries with an enabled, un-notified price
// alert, for the background notifier.
func (db Database) WishlistFindAlertable(ctx context.Context) ([]model.WishlistEntry, error) {
	var wes []model.WishlistEntry
	cur, err := db.Collection(CollectionWishlists).Find(ctx, bson.M{
		"price_alert.enabled": true,
		"notified":            false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find alertable WishlistEntries")
	}
	if err = cur.All(ctx, &wes); err != nil {
		return nil, errors.Wrap(err, "error getting alertable WishlistEntries from cursor")
	}
	return wes, nil
}

func (db Database) WishlistMarkNotified(ctx context.Context, entryID primitive.ObjectID) error {
	_, err := db.Collection(CollectionWishlists).UpdateOne(
		ctx,
		bson.M{"_id": entryID},
		bson.M{"$set": bson.M{
			"notified":   true,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error marking WishlistEntry with ID: %s as notified", entryID.Hex())
}
