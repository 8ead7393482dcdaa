package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"librolink/internal/model"
)

type StatusCount struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
}

func (db Database) BooksCountByStatus(ctx context.Context) ([]StatusCount, error) {
	pipeline := aggPipeline(
		bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	)
	cur, err := db.Collection(CollectionBooks).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "error aggregating Book counts by status")
	}
	var scs []StatusCount
	if err = cur.All(ctx, &scs); err != nil {
		return nil, errors.Wrap(err, "error getting Book counts by status from cursor")
	}
	return scs, nil
}

func (db Database) UsersCount(ctx context.Context) (total int64, active int64, err error) {
	total, err = db.Collection(CollectionUsers).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, errors.Wrap(err, "error counting Users")
	}
	active, err = db.Collection(CollectionUsers).CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return 0, 0, errors.Wrap(err, "error counting active Users")
	}
	return total, active, nil
}

type SalesTotals struct {
	SoldCount int64   `bson:"sold_count"`
	Revenue   float64 `bson:"revenue"`
}

func (db Database) BooksSalesTotals(ctx context.Context) (SalesTotals, error) {
	pipeline := aggPipeline(
		bson.M{"$match": bson.M{"status": model.StatusSold}},
		bson.M{"$group": bson.M{
			"_id":        nil,
			"sold_count": bson.M{"$sum": 1},
			"revenue":    bson.M{"$sum": "$sold_price"},
		}},
	)
	cur, err := db.Collection(CollectionBooks).Aggregate(ctx, pipeline)
	if err != nil {
		return SalesTotals{}, errors.Wrap(err, "error aggregating Book sales totals")
	}
	var sts []SalesTotals
	if err = cur.All(ctx, &sts); err != nil {
		return SalesTotals{}, errors.Wrap(err, "error getting Book sales totals from cursor")
	}
	if len(sts) == 0 {
		return SalesTotals{}, nil
	}
	return sts[0], nil
}
