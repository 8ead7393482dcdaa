package recommend

import (
	"math"
	"sort"

	"librolink/internal/model"
)

// Rating is one explicit user-book rating feeding the collaborative scorer.
type Rating struct {
	UserID string
	BookID string
	Value  float64
}

type neighbor struct {
	userID     string
	similarity float64
}

// CosineSimilarity compares two sparse rating vectors over the union of
// their keys. Disjoint vectors score 0.
func CosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	for k, v := range a {
		dot += v * b[k]
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Collaborative returns book IDs ranked by the aggregated positive ratings
// of the active user's nearest neighbors. Books the active user has already
// rated are excluded from the candidates.
func (e *Engine) Collaborative(userID string, ratings []Rating, limit int) []ScoredID {
	matrix := map[string]map[string]float64{}
	for _, r := range ratings {
		row, ok := matrix[r.UserID]
		if !ok {
			row = map[string]float64{}
			matrix[r.UserID] = row
		}
		row[r.BookID] = r.Value
	}

	active, ok := matrix[userID]
	if !ok {
		return nil
	}

	var neighbors []neighbor
	for uid, row := range matrix {
		if uid == userID {
			continue
		}
		sim := CosineSimilarity(active, row)
		if sim > e.cfg.SimilarityThreshold {
			neighbors = append(neighbors, neighbor{userID: uid, similarity: sim})
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > e.cfg.MaxSimilarUsers {
		neighbors = neighbors[:e.cfg.MaxSimilarUsers]
	}

	scores := map[string]float64{}
	for _, n := range neighbors {
		for bookID, rating := range matrix[n.userID] {
			if rating < e.cfg.PositiveRatingFloor {
				continue
			}
			if _, rated := active[bookID]; rated {
				continue
			}
			scores[bookID] += rating * n.similarity
		}
	}
	return rankScores(scores, limit)
}

// ScoredID is a ranked book ID, for callers that join against the database.
type ScoredID struct {
	BookID string
	Score  float64
}

// Hybrid merges two ranked ID lists with rank-based decay: a book at rank r
// in a list of length n contributes weight x (1 - r/n), accumulating when
// it appears in both lists. The popularity weight is not applied here.
func (e *Engine) Hybrid(contentIDs []string, collaborativeIDs []string, limit int) []ScoredID {
	scores := map[string]float64{}
	for rank, id := range contentIDs {
		scores[id] += e.cfg.Hybrid.ContentBased * (1 - float64(rank)/float64(len(contentIDs)))
	}
	for rank, id := range collaborativeIDs {
		scores[id] += e.cfg.Hybrid.Collaborative * (1 - float64(rank)/float64(len(collaborativeIDs)))
	}
	return rankScores(scores, limit)
}

// Recommend runs the full pipeline: content ranking of the candidates,
// collaborative scoring of the rating set, and the hybrid merge. Each scorer
// contributes at most twice the requested limit; the merge decays scores by
// rank over list length, so an unbounded list would flatten the decay and
// let deep collaborative hits outrank top content picks.
func (e *Engine) Recommend(p Profile, candidates []model.Book, userID string, ratings []Rating, limit int) []ScoredID {
	content := e.RankByContent(p, candidates, 2*limit)
	contentIDs := make([]string, 0, len(content))
	for _, sb := range content {
		contentIDs = append(contentIDs, sb.Book.ID.Hex())
	}
	collaborative := e.Collaborative(userID, ratings, 2*limit)
	collaborativeIDs := make([]string, 0, len(collaborative))
	for _, si := range collaborative {
		collaborativeIDs = append(collaborativeIDs, si.BookID)
	}
	return e.Hybrid(contentIDs, collaborativeIDs, limit)
}

func rankScores(scores map[string]float64, limit int) []ScoredID {
	ranked := make([]ScoredID, 0, len(scores))
	for id, s := range scores {
		ranked = append(ranked, ScoredID{BookID: id, Score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].BookID < ranked[j].BookID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
