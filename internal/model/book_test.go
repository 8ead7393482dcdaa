package model

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddReviewRecomputesDerivedFields(t *testing.T) {
	b := Book{Title: "The Left Hand of Darkness"}
	b.AddReview(Review{User: primitive.NewObjectID(), Rating: 4})
	b.AddReview(Review{User: primitive.NewObjectID(), Rating: 5})
	b.AddReview(Review{User: primitive.NewObjectID(), Rating: 3})

	if b.ReviewCount != 3 {
		t.Fatalf("ReviewCount = %d, want 3", b.ReviewCount)
	}
	if b.AverageRating != 4 {
		t.Fatalf("AverageRating = %v, want 4", b.AverageRating)
	}
	if len(b.Reviews) != b.ReviewCount {
		t.Fatalf("len(Reviews) = %d, ReviewCount = %d", len(b.Reviews), b.ReviewCount)
	}
}

func TestMarkSold(t *testing.T) {
	b := Book{Status: StatusAvailable, Price: 25}
	buyer := primitive.NewObjectID()
	b.MarkSold(buyer, b.Price)

	if b.Status != StatusSold {
		t.Fatalf("Status = %q, want %q", b.Status, StatusSold)
	}
	if b.SoldTo != buyer {
		t.Fatalf("SoldTo = %v, want %v", b.SoldTo, buyer)
	}
	if b.SoldPrice != 25 {
		t.Fatalf("SoldPrice = %v, want 25", b.SoldPrice)
	}
	if b.SoldDate == 0 {
		t.Fatal("SoldDate not set")
	}
}

func TestValidBookStatus(t *testing.T) {
	for _, s := range []string{StatusAvailable, StatusSold, StatusReserved, StatusPending, StatusRejected} {
		if !ValidBookStatus(s) {
			t.Fatalf("ValidBookStatus(%q) = false", s)
		}
	}
	if ValidBookStatus("archived") {
		t.Fatal(`ValidBookStatus("archived") = true`)
	}
}

func TestValidAccountType(t *testing.T) {
	tests := []struct {
		accountType string
		want        bool
	}{
		{AccountTypeBuyer, true},
		{AccountTypeSeller, true},
		{AccountTypeBoth, true},
		{"admin", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidAccountType(tt.accountType); got != tt.want {
			t.Fatalf("ValidAccountType(%q) = %v, want %v", tt.accountType, got, tt.want)
		}
	}
}
