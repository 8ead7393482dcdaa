package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"librolink/internal/model"
)

func (db Database) UserInsert(ctx context.Context, u model.User) (id string, err error) {
	u.LoginTokens = []model.LoginToken{}
	u.IsActive = true
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with email: %s", u.Email)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with email: %s", email)
}

func (db Database) UserFindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return u, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}

	err = db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", id)
}

func (db Database) UsersFindAll(ctx context.Context) ([]model.User, error) {
	var us []model.User
	cur, err := db.Collection(CollectionUsers).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find all Users")
	}
	if err = cur.All(ctx, &us); err != nil {
		return nil, errors.Wrap(err, "error getting all Users from cursor")
	}
	return us, nil
}

func (db Database) UserUpdateProfile(ctx context.Context, userID string, name string, accountType string, prefs model.Preferences) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	_, err = db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"name":         name,
			"account_type": accountType,
			"preferences":  prefs,
			"updated_at":   primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error updating profile of User with ID: %s", userID)
}

func (db Database) UserUpdatePassword(ctx context.Context, userID string, password []byte) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"password":     password,
			"login_tokens": []model.LoginToken{},
			"updated_at":   primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating password of User with ID: %s", userID)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "updating password of User with ID: %s", userID)
	}
	return nil
}

func (db Database) UserSetActive(ctx context.Context, userID string, active bool) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	set := bson.M{
		"is_active":  active,
		"updated_at": primitive.NewDateTimeFromTime(time.Now()),
	}
	if !active {
		set["deactivated_at"] = primitive.NewDateTimeFromTime(time.Now())
	}
	res, err := db.Collection(CollectionUsers).UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrapf(err, "error setting active to %t on User with ID: %s", active, userID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "setting active to %t on User with ID: %s", active, userID)
	}
	return nil
}

// UserDelete removes the user and cascades to their books, wishlist rows and
// cart rows. Reviews the user wrote on other sellers' books are kept.
func (db Database) UserDelete(ctx context.Context, userID string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	if _, err = db.Collection(CollectionBooks).DeleteMany(ctx, bson.M{"seller": objID}); err != nil {
		return errors.Wrapf(err, "error deleting Books of User with ID: %s", userID)
	}
	if _, err = db.Collection(CollectionWishlists).DeleteMany(ctx, bson.M{"user": objID}); err != nil {
		return errors.Wrapf(err, "error deleting WishlistEntries of User with ID: %s", userID)
	}
	if _, err = db.Collection(CollectionCarts).DeleteMany(ctx, bson.M{"user": objID}); err != nil {
		return errors.Wrapf(err, "error deleting CartEntries of User with ID: %s", userID)
	}
	_, err = db.Collection(CollectionUsers).DeleteOne(ctx, bson.M{"_id": objID})
	return errors.Wrapf(err, "error deleting User with ID: %s", userID)
}

func (db Database) UserAddLoginToken(ctx context.Context, userID string, lt model.LoginToken) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	lt.CreatedAt = primitive.NewDateTimeFromTime(time.Now())

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{
			"login_tokens": bson.M{
				"$each":     []model.LoginToken{lt},
				"$position": 0,
				"$slice":    8,
			},
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error when adding login token to User with ID: %s", userID)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "adding login token to User with ID: %s", userID)
	}
	return nil
}

func (db Database) UserRemoveLoginToken(ctx context.Context, userID string, tokenID string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$pull": bson.M{"login_tokens": bson.M{"token_id": tokenID}}},
	)
	if err != nil {
		return errors.Wrapf(err, "error when removing login token from User with ID: %s, token ID: %s", userID, tokenID)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "removing login token from User with ID: %s, token ID: %s", userID, tokenID)
	}
	return nil
}

func (db Database) UserSetFCMToken(ctx context.Context, userID string, fcmToken string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	_, err = db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"fcm_token":  fcmToken,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error setting FCM token on User with ID: %s", userID)
}

// UserRecordView appends a view event to the user's behavior history.
func (db Database) UserRecordView(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID) error {
	ev := model.ViewEvent{
		BookID: bookID,
		At:     primitive.NewDateTimeFromTime(time.Now()),
	}
	_, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{
			"behavior.views": bson.M{
				"$each":     []model.ViewEvent{ev},
				"$position": 0,
				"$slice":    200,
			},
		}},
	)
	return errors.Wrapf(err, "error recording view of Book %s on User %s", bookID.Hex(), userID.Hex())
}

// UserRecordPurchase appends a purchase event and bumps the buyer's stats.
func (db Database) UserRecordPurchase(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID) error {
	ev := model.PurchaseEvent{
		BookID: bookID,
		At:     primitive.NewDateTimeFromTime(time.Now()),
	}
	_, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{
			"$push": bson.M{"behavior.purchases": ev},
			"$inc":  bson.M{"stats.total_purchases": 1},
		},
	)
	return errors.Wrapf(err, "error recording purchase of Book %s on User %s", bookID.Hex(), userID.Hex())
}

// UserRecordPurchaseRating sets the rating on an existing purchase event so
// the collaborative scorer can pick it up as an explicit signal.
func (db Database) UserRecordPurchaseRating(ctx context.Context, userID primitive.ObjectID, bookID primitive.ObjectID, rating float64) error {
	_, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": userID, "behavior.purchases.book_id": bookID},
		bson.M{"$set": bson.M{"behavior.purchases.$.rating": rating}},
	)
	return errors.Wrapf(err, "error recording rating %.1f of Book %s on User %s", rating, bookID.Hex(), userID.Hex())
}

func (db Database) UserSellerStatsUpdate(ctx context.Context, sellerID primitive.ObjectID, soldPrice float64) error {
	_, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": sellerID},
		bson.M{"$inc": bson.M{
			"stats.books_sold":     1,
			"stats.total_earnings": soldPrice,
		}},
	)
	return errors.Wrapf(err, "error updating seller stats of User with ID: %s", sellerID.Hex())
}

func (db Database) UserSellerListedIncrement(ctx context.Context, sellerID primitive.ObjectID, delta int) error {
	_, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": sellerID},
		bson.M{"$inc": bson.M{"stats.books_listed": delta}},
	)
	return errors.Wrapf(err, "error incrementing listed count of User with ID: %s", sellerID.Hex())
}
