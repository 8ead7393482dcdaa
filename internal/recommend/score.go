package recommend

import (
	"math"
	"sort"

	"librolink/internal/model"
)

var conditionScores = map[string]float64{
	model.ConditionNew:        1.0,
	model.ConditionLikeNew:    0.9,
	model.ConditionVeryGood:   0.8,
	model.ConditionGood:       0.7,
	model.ConditionAcceptable: 0.5,
}

func conditionScore(condition string) float64 {
	if s, ok := conditionScores[condition]; ok {
		return s
	}
	return 0.5
}

// ContentScore rates how well a candidate book matches a preference profile.
// Category, author and genre contribute weight x (profileWeight / norm);
// price and condition use their own similarity measures.
func (e *Engine) ContentScore(p Profile, b model.Book) float64 {
	w := e.cfg.Content
	norm := e.cfg.PreferenceNorm

	score := w.Category * (p.Categories[b.Category] / norm)
	score += w.Author * (p.Authors[b.Author] / norm)
	score += w.Genre * (p.Genres[b.Genre] / norm)
	score += w.Price * priceSimilarity(p.PriceRange, b.Price)
	score += w.Condition * conditionScore(b.Condition)
	return score
}

// priceSimilarity is 1 inside the range and decays linearly with distance
// from the midpoint outside it, floored at 0. An empty range scores 0.
func priceSimilarity(pr PriceRange, price float64) float64 {
	if pr.empty() {
		return 0
	}
	if price >= pr.Min && price <= pr.Max {
		return 1
	}
	span := pr.Max - pr.Min
	if span <= 0 {
		span = 1
	}
	mid := (pr.Min + pr.Max) / 2
	return math.Max(0, 1-math.Abs(price-mid)/span)
}

type ScoredBook struct {
	Book  model.Book
	Score float64
}

// RankByContent scores every candidate against the profile and returns the
// top limit, highest first. Ties break on book ID for determinism.
func (e *Engine) RankByContent(p Profile, candidates []model.Book, limit int) []ScoredBook {
	scored := make([]ScoredBook, 0, len(candidates))
	for _, b := range candidates {
		scored = append(scored, ScoredBook{Book: b, Score: e.ContentScore(p, b)})
	}
	sortScored(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// SimilarityToBook scores a candidate against a reference book: attribute
// matches plus normalized inverse price difference.
func (e *Engine) SimilarityToBook(ref model.Book, b model.Book) float64 {
	w := e.cfg.Content
	var score float64
	if ref.Category != "" && ref.Category == b.Category {
		score += w.Category
	}
	if ref.Author != "" && ref.Author == b.Author {
		score += w.Author
	}
	if ref.Genre != "" && ref.Genre == b.Genre {
		score += w.Genre
	}
	if maxPrice := math.Max(ref.Price, b.Price); maxPrice > 0 {
		score += w.Price * math.Max(0, 1-math.Abs(ref.Price-b.Price)/maxPrice)
	}
	if ref.Condition == b.Condition {
		score += w.Condition
	}
	return score
}

// RankSimilar orders candidates by similarity to the reference book.
func (e *Engine) RankSimilar(ref model.Book, candidates []model.Book, limit int) []ScoredBook {
	scored := make([]ScoredBook, 0, len(candidates))
	for _, b := range candidates {
		if b.ID == ref.ID {
			continue
		}
		scored = append(scored, ScoredBook{Book: b, Score: e.SimilarityToBook(ref, b)})
	}
	sortScored(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func sortScored(scored []ScoredBook) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Book.ID.Hex() < scored[j].Book.ID.Hex()
	})
}
