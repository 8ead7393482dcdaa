package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusReserved  = "reserved"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
)

var bookStatuses = map[string]bool{
	StatusAvailable: true,
	StatusSold:      true,
	StatusReserved:  true,
	StatusPending:   true,
	StatusRejected:  true,
}

func ValidBookStatus(s string) bool { return bookStatuses[s] }

var BookCategories = []string{
	"fiction", "non-fiction", "science", "history", "biography",
	"children", "textbook", "mystery", "romance", "fantasy", "self-help",
}

func ValidBookCategory(c string) bool {
	for _, bc := range BookCategories {
		if bc == c {
			return true
		}
	}
	return false
}

const (
	ConditionNew        = "new"
	ConditionLikeNew    = "like-new"
	ConditionVeryGood   = "very-good"
	ConditionGood       = "good"
	ConditionAcceptable = "acceptable"
)

var bookConditions = map[string]bool{
	ConditionNew:        true,
	ConditionLikeNew:    true,
	ConditionVeryGood:   true,
	ConditionGood:       true,
	ConditionAcceptable: true,
}

func ValidBookCondition(c string) bool { return bookConditions[c] }

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Author        string             `bson:"author" json:"author"`
	ISBN          string             `bson:"isbn" json:"isbn"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Genre         string             `bson:"genre" json:"genre"`
	Condition     string             `bson:"condition" json:"condition"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"original_price" json:"original_price"`
	Seller        primitive.ObjectID `bson:"seller" json:"seller"`
	SellerName    string             `bson:"seller_name" json:"seller_name"`
	Status        string             `bson:"status" json:"status"`
	Reviews       []Review           `bson:"reviews" json:"reviews"`
	AverageRating float64            `bson:"average_rating" json:"average_rating"`
	ReviewCount   int                `bson:"review_count" json:"review_count"`
	Views         int                `bson:"views" json:"views"`
	Likes         int                `bson:"likes" json:"likes"`
	ImageURL      string             `bson:"image_url" json:"image_url"`
	Location      string             `bson:"location" json:"location"`
	ShippingFee   float64            `bson:"shipping_fee" json:"shipping_fee"`
	SoldTo        primitive.ObjectID `bson:"sold_to,omitempty" json:"sold_to,omitempty"`
	SoldDate      primitive.DateTime `bson:"sold_date,omitempty" json:"sold_date,omitempty"`
	SoldPrice     float64            `bson:"sold_price,omitempty" json:"sold_price,omitempty"`
	CreatedAt     primitive.DateTime `bson:"created_at" json:"created_at"`
	UpdatedAt     primitive.DateTime `bson:"updated_at" json:"updated_at"`
}

type Review struct {
	User    primitive.ObjectID `bson:"user" json:"user"`
	Rating  float64            `bson:"rating" json:"rating"`
	Comment string             `bson:"comment" json:"comment"`
	Date    primitive.DateTime `bson:"date" json:"date"`
}

// AddReview appends the review and recomputes the derived rating fields so
// that AverageRating always equals the mean of Reviews ratings.
func (b *Book) AddReview(rv Review) {
	b.Reviews = append(b.Reviews, rv)
	b.ReviewCount = len(b.Reviews)
	var sum float64
	for _, r := range b.Reviews {
		sum += r.Rating
	}
	b.AverageRating = sum / float64(b.ReviewCount)
	b.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
}

// MarkSold sets the sale fields together and flips the status.
func (b *Book) MarkSold(buyer primitive.ObjectID, price float64) {
	b.Status = StatusSold
	b.SoldTo = buyer
	b.SoldDate = primitive.NewDateTimeFromTime(time.Now())
	b.SoldPrice = price
	b.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
}
