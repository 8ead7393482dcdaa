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

// BookFilter narrows BooksFind. Zero values mean no filter on that field.
type BookFilter struct {
	Status   string
	Category string
	Genre    string
	Author   string
	Search   string
	PriceMin float64
	PriceMax float64
	Page     int
	PerPage  int
}

func (f BookFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Genre != "" {
		q["genre"] = f.Genre
	}
	if f.Author != "" {
		q["author"] = bson.M{"$regex": f.Author, "$options": "i"}
	}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"author": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.PriceMin > 0 || f.PriceMax > 0 {
		price := bson.M{}
		if f.PriceMin > 0 {
			price["$gte"] = f.PriceMin
		}
		if f.PriceMax > 0 {
			price["$lte"] = f.PriceMax
		}
		q["price"] = price
	}
	return q
}

func (db Database) BookInsert(ctx context.Context, b model.Book) (id string, err error) {
	b.Reviews = []model.Review{}
	b.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	b.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionBooks).InsertOne(ctx, b)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Book with title: %s", b.Title)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) BookFindOne(ctx context.Context, bookID string) (model.Book, error) {
	var b model.Book
	objID, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return b, errors.Wrapf(err, "error creating ObjectID from hex: %s", bookID)
	}
	err = db.Collection(CollectionBooks).FindOne(ctx, bson.M{"_id": objID}).Decode(&b)
	return b, errors.Wrapf(err, "error finding Book with ID: %s", bookID)
}

func (db Database) BooksFind(ctx context.Context, f BookFilter) ([]model.Book, int64, error) {
	q := f.query()

	total, err := db.Collection(CollectionBooks).CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error counting Books with filter: %+v", f)
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if f.PerPage > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts = opts.SetSkip(int64((page - 1) * f.PerPage)).SetLimit(int64(f.PerPage))
	}

	var bs []model.Book
	cur, err := db.Collection(CollectionBooks).Find(ctx, q, opts)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error getting cursor to find Books with filter: %+v", f)
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, 0, errors.Wrapf(err, "error getting Books from cursor with filter: %+v", f)
	}
	return bs, total, nil
}

func (db Database) BooksFindByIDs(ctx context.Context, bookIDs []primitive.ObjectID) ([]model.Book, error) {
	var bs []model.Book
	cur, err := db.Collection(CollectionBooks).Find(ctx, bson.M{"_id": bson.M{"$in": bookIDs}})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Books, bookIDs: %v", bookIDs)
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrapf(err, "error getting Books from cursor, bookIDs: %v", bookIDs)
	}
	return bs, nil
}

func (db Database) BooksFindAvailable(ctx context.Context) ([]model.Book, error) {
	bs, _, err := db.BooksFind(ctx, BookFilter{Status: model.StatusAvailable})
	return bs, err
}

func (db Database) BooksFindByCategory(ctx context.Context, category string, exclude primitive.ObjectID, limit int) ([]model.Book, error) {
	q := bson.M{
		"status":   model.StatusAvailable,
		"category": category,
		"_id":      bson.M{"$ne": exclude},
	}
	opts := options.Find().SetLimit(int64(limit))
	var bs []model.Book
	cur, err := db.Collection(CollectionBooks).Find(ctx, q, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Books in category: %s", category)
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrapf(err, "error getting Books from cursor in category: %s", category)
	}
	return bs, nil
}

// BookUpdate replaces the mutable listing fields. Derived review fields are
// only touched through BookReviewAdd.
func (db Database) BookUpdate(ctx context.Context, b model.Book) error {
	res, err := db.Collection(CollectionBooks).UpdateOne(
		ctx,
		bson.M{"_id": b.ID},
		bson.M{"$set": bson.M{
			"title":        b.Title,
			"author":       b.Author,
			"isbn":         b.ISBN,
			"description":  b.Description,
			"category":     b.Category,
			"genre":        b.Genre,
			"condition":    b.Condition,
			"price":        b.Price,
			"image_url":    b.ImageURL,
			"location":     b.Location,
			"shipping_fee": b.ShippingFee,
			"updated_at":   primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating Book with ID: %s", b.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "updating Book with ID: %s", b.ID.Hex())
	}
	return nil
}

func (db Database) BookStatusUpdate(ctx context.Context, bookID primitive.ObjectID, status string) error {
	res, err := db.Collection(CollectionBooks).UpdateOne(
		ctx,
		bson.M{"_id": bookID},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating status of Book with ID: %s to %s", bookID.Hex(), status)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "updating status of Book with ID: %s", bookID.Hex())
	}
	return nil
}

// BookReviewAdd pushes the review and recomputes the derived fields in one
// round trip. Concurrent reviews remain last-write-wins on the derived
// fields, matching the accepted read-modify-write behavior.
func (db Database) BookReviewAdd(ctx context.Context, b model.Book) error {
	res, err := db.Collection(CollectionBooks).UpdateOne(
		ctx,
		bson.M{"_id": b.ID},
		bson.M{"$set": bson.M{
			"reviews":        b.Reviews,
			"average_rating": b.AverageRating,
			"review_count":   b.ReviewCount,
			"updated_at":     primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error adding review to Book with ID: %s", b.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "adding review to Book with ID: %s", b.ID.Hex())
	}
	return nil
}

func (db Database) BookMarkSold(ctx context.Context, b model.Book) error {
	res, err := db.Collection(CollectionBooks).UpdateOne(
		ctx,
		bson.M{"_id": b.ID, "status": bson.M{"$ne": model.StatusSold}},
		bson.M{"$set": bson.M{
			"status":     b.Status,
			"sold_to":    b.SoldTo,
			"sold_date":  b.SoldDate,
			"sold_price": b.SoldPrice,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error marking Book with ID: %s as sold", b.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "marking Book with ID: %s as sold", b.ID.Hex())
	}
	return nil
}

func (db Database) BookViewsIncrement(ctx context.Context, bookID primitive.ObjectID) error {
	_, err := db.Collection(CollectionBooks).UpdateOne(
		ctx,
		bson.M{"_id": bookID},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	return errors.Wrapf(err, "error incrementing views of Book with ID: %s", bookID.Hex())
}

func (db Database) BookDelete(ctx context.Context, bookID primitive.ObjectID) error {
	if _, err := db.Collection(CollectionWishlists).DeleteMany(ctx, bson.M{"book": bookID}); err != nil {
		return errors.Wrapf(err, "error deleting WishlistEntries of Book with ID: %s", bookID.Hex())
	}
	if _, err := db.Collection(CollectionCarts).DeleteMany(ctx, bson.M{"book": bookID}); err != nil {
		return errors.Wrapf(err, "error deleting CartEntries of Book with ID: %s", bookID.Hex())
	}
	_, err := db.Collection(CollectionBooks).DeleteOne(ctx, bson.M{"_id": bookID})
	return errors.Wrapf(err, "error deleting Book with ID: %s", bookID.Hex())
}

type CategoryCount struct {
	Category string `bson:"_id"`
	Count    int    `bson:"count"`
}

// BooksTopCategories aggregates available books per category, most stocked
// first. Feeds admin stats and chatbot responses.
func (db Database) BooksTopCategories(ctx context.Context, limit int) ([]CategoryCount, error) {
	pipeline := aggPipeline(
		bson.M{"$match": bson.M{"status": model.StatusAvailable}},
		bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.M{"count": -1}},
		bson.M{"$limit": limit},
	)
	cur, err := db.Collection(CollectionBooks).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "error aggregating top Book categories")
	}
	var cc []CategoryCount
	if err = cur.All(ctx, &cc); err != nil {
		return nil, errors.Wrap(err, "error getting top Book categories from cursor")
	}
	return cc, nil
}

func (db Database) BooksMostViewed(ctx context.Context, limit int) ([]model.Book, error) {
	opts := options.Find().SetSort(bson.M{"views": -1}).SetLimit(int64(limit))
	cur, err := db.Collection(CollectionBooks).Find(ctx, bson.M{"status": model.StatusAvailable}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find most viewed Books")
	}
	var bs []model.Book
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrap(err, "error getting most viewed Books from cursor")
	}
	return bs, nil
}

func aggPipeline(stages ...bson.M) bson.A {
	p := bson.A{}
	for _, s := range stages {
		p = append(p, s)
	}
	return p
}
