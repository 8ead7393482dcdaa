package recommend

import (
	"fmt"
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"librolink/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtractProfileCountsAndRatings(t *testing.T) {
	e := NewEngine(DefaultConfig())

	history := []RatedBook{
		{Book: model.Book{Category: "fiction", Author: "Frank Herbert", Genre: "sci-fi", Price: 120}},
		{Book: model.Book{Category: "fiction", Author: "Frank Herbert", Genre: "sci-fi", Price: 180}, Rating: 5},
	}
	p := e.ExtractProfile(history)

	// unrated purchase adds 1, rated adds 1 + 5/5
	if !almostEqual(p.Categories["fiction"], 3) {
		t.Fatalf("want fiction weight 3, got %v", p.Categories["fiction"])
	}
	if !almostEqual(p.Authors["Frank Herbert"], 3) {
		t.Fatalf("want author weight 3, got %v", p.Authors["Frank Herbert"])
	}
	if p.PriceRange.Min != 120 || p.PriceRange.Max != 180 {
		t.Fatalf("want price range [120,180], got %+v", p.PriceRange)
	}
}

func TestExtractProfileEmptyHistory(t *testing.T) {
	e := NewEngine(DefaultConfig())
	p := e.ExtractProfile(nil)
	if len(p.Categories) != 0 || len(p.Authors) != 0 || len(p.Genres) != 0 {
		t.Fatalf("want empty maps, got %+v", p)
	}

	// an empty profile must score without erroring: only the condition
	// component contributes
	got := e.ContentScore(p, model.Book{Category: "fiction", Condition: model.ConditionNew, Price: 50})
	if !almostEqual(got, 0.1*1.0) {
		t.Fatalf("want bare condition score 0.1, got %v", got)
	}
}

func TestContentScoreCategoryComponent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	p := Profile{
		Categories: map[string]float64{"fiction": 10},
		Authors:    map[string]float64{},
		Genres:     map[string]float64{},
	}

	fiction := model.Book{Category: "fiction"}
	nonFiction := model.Book{Category: "non-fiction"}

	// condition defaults to 0.5 for unknown strings, subtract it out
	base := 0.1 * 0.5
	if got := e.ContentScore(p, fiction) - base; !almostEqual(got, 0.3) {
		t.Fatalf("want fiction category component 0.3, got %v", got)
	}
	if got := e.ContentScore(p, nonFiction) - base; !almostEqual(got, 0) {
		t.Fatalf("want non-fiction category component 0, got %v", got)
	}
}

func TestPriceSimilarity(t *testing.T) {
	pr := PriceRange{Min: 100, Max: 200}

	tests := []struct {
		price float64
		want  float64
	}{
		{150, 1.0},
		{100, 1.0},
		{200, 1.0},
		{400, 0},   // max(0, 1 - |400-150|/100) = max(0, -1.5)
		{250, 0},   // 1 - 100/100
		{225, 0.25}, // 1 - 75/100
	}
	for _, tt := range tests {
		if got := priceSimilarity(pr, tt.price); !almostEqual(got, tt.want) {
			t.Fatalf("priceSimilarity(%v): want %v, got %v", tt.price, tt.want, got)
		}
	}
}

func TestConditionScore(t *testing.T) {
	if got := conditionScore(model.ConditionNew); got != 1.0 {
		t.Fatalf("want 1.0 for new, got %v", got)
	}
	if got := conditionScore("water-damaged"); got != 0.5 {
		t.Fatalf("want default 0.5, got %v", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := map[string]float64{"b1": 5, "b2": 3}
	if got := CosineSimilarity(a, a); !almostEqual(got, 1.0) {
		t.Fatalf("identical vectors: want 1.0, got %v", got)
	}

	disjoint := map[string]float64{"b3": 4, "b4": 2}
	if got := CosineSimilarity(a, disjoint); !almostEqual(got, 0) {
		t.Fatalf("disjoint vectors: want 0, got %v", got)
	}

	if got := CosineSimilarity(a, map[string]float64{}); got != 0 {
		t.Fatalf("empty vector: want 0, got %v", got)
	}
}

func TestCollaborativeExcludesOrthogonalNeighbors(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ratings := []Rating{
		{UserID: "u1", BookID: "b1", Value: 5},
		{UserID: "u1", BookID: "b2", Value: 4},
		// u2 rates the same books the same way, plus one more highly
		{UserID: "u2", BookID: "b1", Value: 5},
		{UserID: "u2", BookID: "b2", Value: 4},
		{UserID: "u2", BookID: "b3", Value: 5},
		// u3 has a disjoint rated set, similarity 0, excluded
		{UserID: "u3", BookID: "b9", Value: 5},
	}

	got := e.Collaborative("u1", ratings, 10)
	if len(got) != 1 {
		t.Fatalf("want exactly one recommendation, got %+v", got)
	}
	if got[0].BookID != "b3" {
		t.Fatalf("want b3 recommended, got %s", got[0].BookID)
	}
}

func TestCollaborativeIgnoresLowRatings(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ratings := []Rating{
		{UserID: "u1", BookID: "b1", Value: 5},
		{UserID: "u2", BookID: "b1", Value: 5},
		{UserID: "u2", BookID: "b2", Value: 3}, // below the positive floor
	}
	if got := e.Collaborative("u1", ratings, 10); len(got) != 0 {
		t.Fatalf("want no recommendations from sub-floor ratings, got %+v", got)
	}
}

func TestCollaborativeCapsNeighbors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSimilarUsers = 1
	e := NewEngine(cfg)
	ratings := []Rating{
		{UserID: "u1", BookID: "b1", Value: 5},
		{UserID: "u2", BookID: "b1", Value: 5},
		{UserID: "u2", BookID: "b2", Value: 5},
		{UserID: "u3", BookID: "b1", Value: 5},
		{UserID: "u3", BookID: "b3", Value: 5},
	}
	got := e.Collaborative("u1", ratings, 10)
	// only one neighbor may contribute, so only one candidate book
	if len(got) != 1 {
		t.Fatalf("want one candidate with a single neighbor, got %+v", got)
	}
}

func TestHybridRankDecay(t *testing.T) {
	e := NewEngine(DefaultConfig())

	content := []string{"b1", "c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"}
	collaborative := []string{"b1", "d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8", "d9"}

	got := e.Hybrid(content, collaborative, 5)
	if got[0].BookID != "b1" {
		t.Fatalf("want b1 first, got %+v", got[0])
	}
	// rank 0 in both lists of length 10: 0.4*(1-0/10) + 0.4*(1-0/10)
	if !almostEqual(got[0].Score, 0.8) {
		t.Fatalf("want score 0.8, got %v", got[0].Score)
	}
	// c1 appears only in the content list at rank 1: 0.4*(1-1/10)
	for _, s := range got {
		if s.BookID == "c1" && !almostEqual(s.Score, 0.36) {
			t.Fatalf("want c1 score 0.36, got %v", s.Score)
		}
	}
}

func TestHybridSingleListScore(t *testing.T) {
	e := NewEngine(DefaultConfig())
	got := e.Hybrid([]string{"b1"}, nil, 5)
	if len(got) != 1 || !almostEqual(got[0].Score, 0.4) {
		t.Fatalf("want lone content rank-0 score 0.4, got %+v", got)
	}
}

func TestRankSimilarPrefersMatchingAttributes(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ref := model.Book{
		ID:        primitive.NewObjectID(),
		Category:  "fiction",
		Author:    "Frank Herbert",
		Genre:     "sci-fi",
		Condition: model.ConditionGood,
		Price:     100,
	}
	twin := model.Book{
		ID:        primitive.NewObjectID(),
		Category:  "fiction",
		Author:    "Frank Herbert",
		Genre:     "sci-fi",
		Condition: model.ConditionGood,
		Price:     100,
	}
	other := model.Book{
		ID:       primitive.NewObjectID(),
		Category: "fiction",
		Author:   "Someone Else",
		Genre:    "romance",
		Price:    500,
	}

	got := e.RankSimilar(ref, []model.Book{other, twin, ref}, 10)
	if len(got) != 2 {
		t.Fatalf("want the reference excluded, got %d results", len(got))
	}
	if got[0].Book.ID != twin.ID {
		t.Fatalf("want the identical book ranked first, got %+v", got[0].Book.Title)
	}
	// full attribute + price match sums every weight
	if !almostEqual(got[0].Score, 1.0) {
		t.Fatalf("want perfect similarity 1.0, got %v", got[0].Score)
	}
}

func TestRecommendCapsScorerLists(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// six content candidates in a fixed order via descending price similarity
	p := Profile{
		Categories: map[string]float64{"fiction": 10},
		Authors:    map[string]float64{},
		Genres:     map[string]float64{},
		PriceRange: PriceRange{Min: 10, Max: 20},
	}
	prices := []float64{15, 21, 23, 24, 24.5, 26}
	candidates := make([]model.Book, 0, len(prices))
	contentIDs := make([]string, 0, len(prices))
	for i, price := range prices {
		id, err := primitive.ObjectIDFromHex(fmt.Sprintf("aa%022d", i+1))
		if err != nil {
			t.Fatalf("building candidate ID: %v", err)
		}
		candidates = append(candidates, model.Book{
			ID:        id,
			Category:  "fiction",
			Condition: model.ConditionGood,
			Price:     price,
		})
		contentIDs = append(contentIDs, id.Hex())
	}

	// one close neighbor whose long tail of positive ratings yields far
	// more collaborative candidates than the requested limit
	var ratings []Rating
	for i := 0; i < 20; i++ {
		shared := fmt.Sprintf("ss%022d", i+1)
		ratings = append(ratings,
			Rating{UserID: "u1", BookID: shared, Value: 5},
			Rating{UserID: "u2", BookID: shared, Value: 5},
		)
	}
	for i := 0; i < 40; i++ {
		ratings = append(ratings, Rating{UserID: "u2", BookID: fmt.Sprintf("cc%022d", i+1), Value: 5})
	}

	got := e.Recommend(p, candidates, "u1", ratings, 4)
	if len(got) != 4 {
		t.Fatalf("want 4 recommendations, got %d", len(got))
	}
	if got[0].BookID != contentIDs[0] {
		t.Fatalf("want top content pick first, got %s", got[0].BookID)
	}

	// each scorer feeds the merge at most 2x limit entries, so the decay
	// pushes deep collaborative hits below the second content pick
	found := map[string]bool{}
	for _, si := range got {
		found[si.BookID] = true
	}
	if !found[contentIDs[1]] {
		t.Fatalf("want second content pick in the blend, got %+v", got)
	}
	if found[fmt.Sprintf("cc%022d", 3)] {
		t.Fatalf("want third collaborative hit decayed out of the blend, got %+v", got)
	}
}
