// Package recommend implements the heuristic recommendation engine:
// preference extraction from purchase history, content-based scoring,
// user-user collaborative filtering and a rank-decay hybrid merge.
// The engine is pure; callers join IDs against the database.
package recommend

import (
	"librolink/internal/model"
)

// Weights configures the content-based scorer dimensions. The defaults sum
// to 1.0 but nothing enforces that.
type Weights struct {
	Category  float64
	Author    float64
	Genre     float64
	Price     float64
	Condition float64
}

// HybridWeights configures the hybrid combiner. Popularity is declared but
// not applied by the combiner, preserving the behavior of the system this
// replaces.
type HybridWeights struct {
	ContentBased  float64
	Collaborative float64
	Popularity    float64
}

type Config struct {
	Content Weights
	Hybrid  HybridWeights

	// PreferenceNorm divides raw profile weights in the content scorer.
	// Scores can exceed 1 for very active users; callers rank, never
	// threshold, so this is tolerated.
	PreferenceNorm float64

	// SimilarityThreshold drops weakly similar neighbors.
	SimilarityThreshold float64

	// MaxSimilarUsers caps the neighbor set, taking the top-N by
	// similarity. It is a cap, not a minimum.
	MaxSimilarUsers int

	// PositiveRatingFloor is the lowest neighbor rating counted as a
	// positive signal.
	PositiveRatingFloor float64
}

func DefaultConfig() Config {
	return Config{
		Content: Weights{
			Category:  0.3,
			Author:    0.25,
			Genre:     0.2,
			Price:     0.15,
			Condition: 0.1,
		},
		Hybrid: HybridWeights{
			ContentBased:  0.4,
			Collaborative: 0.4,
			Popularity:    0.2,
		},
		PreferenceNorm:      10,
		SimilarityThreshold: 0.3,
		MaxSimilarUsers:     3,
		PositiveRatingFloor: 4,
	}
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Profile holds a user's attribute preferences, all derived from purchase
// history. Empty maps are valid and contribute zero everywhere.
type Profile struct {
	Categories map[string]float64
	Authors    map[string]float64
	Genres     map[string]float64
	PriceRange PriceRange
}

type PriceRange struct {
	Min float64
	Max float64
}

func (pr PriceRange) empty() bool { return pr.Min == 0 && pr.Max == 0 }

// RatedBook pairs a purchased book with its explicit rating, 0 if unrated.
type RatedBook struct {
	Book   model.Book
	Rating float64
}

// ExtractProfile builds a preference profile from purchase history. Each
// purchase adds 1 to its category, author and genre weights; a rated
// purchase additionally adds rating/5. No decay, no recency weighting.
func (e *Engine) ExtractProfile(history []RatedBook) Profile {
	p := Profile{
		Categories: map[string]float64{},
		Authors:    map[string]float64{},
		Genres:     map[string]float64{},
	}
	for _, rb := range history {
		w := 1.0
		if rb.Rating > 0 {
			w += rb.Rating / 5
		}
		if rb.Book.Category != "" {
			p.Categories[rb.Book.Category] += w
		}
		if rb.Book.Author != "" {
			p.Authors[rb.Book.Author] += w
		}
		if rb.Book.Genre != "" {
			p.Genres[rb.Book.Genre] += w
		}

		price := rb.Book.Price
		if price <= 0 {
			continue
		}
		if p.PriceRange.empty() {
			p.PriceRange = PriceRange{Min: price, Max: price}
			continue
		}
		if price < p.PriceRange.Min {
			p.PriceRange.Min = price
		}
		if price > p.PriceRange.Max {
			p.PriceRange.Max = price
		}
	}
	return p
}
