package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// WishlistEntry is unique per (user, book) pair, enforced by a compound
// index in the database layer.
type WishlistEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	User       primitive.ObjectID `bson:"user"`
	Book       primitive.ObjectID `bson:"book"`
	Notes      string             `bson:"notes,omitempty"`
	PriceAlert PriceAlert         `bson:"price_alert"`
	Notified   bool               `bson:"notified"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
	UpdatedAt  primitive.DateTime `bson:"updated_at"`
}

type PriceAlert struct {
	Enabled     bool    `bson:"enabled"`
	TargetPrice float64 `bson:"target_price"`
}
