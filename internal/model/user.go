package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	AccountTypeBuyer  = "buyer"
	AccountTypeSeller = "seller"
	AccountTypeBoth   = "both"
)

func ValidAccountType(t string) bool {
	return t == AccountTypeBuyer || t == AccountTypeSeller || t == AccountTypeBoth
}

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	Username      string             `bson:"username"`
	Password      []byte             `bson:"password"`
	AccountType   string             `bson:"account_type"`
	IsAdmin       bool               `bson:"is_admin"`
	IsActive      bool               `bson:"is_active"`
	DeactivatedAt primitive.DateTime `bson:"deactivated_at,omitempty"`
	Preferences   Preferences        `bson:"preferences"`
	Stats         UserStats          `bson:"stats"`
	Behavior      Behavior           `bson:"behavior"`
	LoginTokens   []LoginToken       `bson:"login_tokens"`
	FCMToken      string             `bson:"fcm_token,omitempty"`
	CreatedAt     primitive.DateTime `bson:"created_at"`
	UpdatedAt     primitive.DateTime `bson:"updated_at"`
}

type Preferences struct {
	EmailNotifications bool `bson:"email_notifications"`
	PriceAlerts        bool `bson:"price_alerts"`
	PublicProfile      bool `bson:"public_profile"`
	ShowPurchases      bool `bson:"show_purchases"`
}

type UserStats struct {
	BooksListed    int     `bson:"books_listed"`
	BooksSold      int     `bson:"books_sold"`
	TotalEarnings  float64 `bson:"total_earnings"`
	TotalPurchases int     `bson:"total_purchases"`
}

// Behavior feeds the recommendation engine. Purchases carry an optional
// explicit rating, views only a timestamp.
type Behavior struct {
	Purchases []PurchaseEvent `bson:"purchases"`
	Views     []ViewEvent     `bson:"views"`
}

type PurchaseEvent struct {
	BookID primitive.ObjectID `bson:"book_id"`
	Rating float64            `bson:"rating,omitempty"`
	At     primitive.DateTime `bson:"at"`
}

type ViewEvent struct {
	BookID primitive.ObjectID `bson:"book_id"`
	At     primitive.DateTime `bson:"at"`
}

type LoginToken struct {
	TokenID    string             `bson:"token_id"`
	Token      []byte             `bson:"token"`
	Expiration primitive.DateTime `bson:"expiration"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
}
