package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartEntry is the server-persisted shopping cart row, unique per
// (user, book) pair with Quantity always at least 1.
type CartEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	User       primitive.ObjectID `bson:"user"`
	Book       primitive.ObjectID `bson:"book"`
	Quantity   int                `bson:"quantity"`
	PriceAtAdd float64            `bson:"price_at_add"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
	UpdatedAt  primitive.DateTime `bson:"updated_at"`
}
