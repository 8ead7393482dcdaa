package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"librolink/internal/chat"
	"librolink/internal/misc"
	"librolink/internal/model"
	"librolink/internal/recommend"
	"librolink/internal/search"
)

const recommendationCacheTTL = 10 * time.Minute

// rebuildSearchIndex reloads the search index from the available books.
// Callers that changed many books at once (user deletion cascades) use this
// instead of patching documents one by one.
func (s Server) rebuildSearchIndex(ctx context.Context) {
	bs, err := s.DB.BooksFindAvailable(ctx)
	if err != nil {
		s.Logger.Errorf("rebuildSearchIndex: Error finding available Books, err: %v", err)
		return
	}
	s.SearchIndex.Rebuild(bs)
	s.Logger.Infof("rebuildSearchIndex: Indexed %d Books", s.SearchIndex.Size())
}

type scoredBookResponse struct {
	Book  model.Book `json:"book"`
	Score float64    `json:"score"`
}

// purchaseHistory joins a user's purchase events against the books
// collection, pairing each purchased book with its explicit rating.
func (s Server) purchaseHistory(ctx context.Context, u model.User) ([]recommend.RatedBook, error) {
	if len(u.Behavior.Purchases) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, 0, len(u.Behavior.Purchases))
	for _, pe := range u.Behavior.Purchases {
		ids = append(ids, pe.BookID)
	}
	bs, err := s.DB.BooksFindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "error finding purchased Books")
	}
	byID := make(map[primitive.ObjectID]model.Book, len(bs))
	for _, b := range bs {
		byID[b.ID] = b
	}
	var history []recommend.RatedBook
	for _, pe := range u.Behavior.Purchases {
		b, ok := byID[pe.BookID]
		if !ok {
			continue
		}
		history = append(history, recommend.RatedBook{Book: b, Rating: pe.Rating})
	}
	return history, nil
}

// allRatings flattens every user's rated purchases into the rating triples
// the collaborative scorer works on.
func (s Server) allRatings(ctx context.Context) ([]recommend.Rating, error) {
	us, err := s.DB.UsersFindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error finding Users for ratings")
	}
	var ratings []recommend.Rating
	for _, u := range us {
		for _, pe := range u.Behavior.Purchases {
			if pe.Rating <= 0 {
				continue
			}
			ratings = append(ratings, recommend.Rating{
				UserID: u.ID.Hex(),
				BookID: pe.BookID.Hex(),
				Value:  pe.Rating,
			})
		}
	}
	return ratings, nil
}

func (s Server) aiRecommendations() http.HandlerFunc {
	type response []scoredBookResponse
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("aiRecommendations: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		limit := misc.Clamp(intQueryParam(r, "limit", 10), 1, 50)

		cacheKey := "REC-" + uc.user.ID.Hex()
		cached, err := s.Cache.Get(r.Context(), cacheKey).Result()
		if err == nil {
			resp := response{}
			if err = json.Unmarshal([]byte(cached), &resp); err == nil {
				if len(resp) > limit {
					resp = resp[:limit]
				}
				s.writeJsonResponse(w, resp, http.StatusOK)
				return
			}
			s.Logger.Errorf("aiRecommendations: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
		} else if err != redis.Nil {
			s.Logger.Errorf("aiRecommendations: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
		}

		history, err := s.purchaseHistory(r.Context(), uc.user)
		if err != nil {
			s.Logger.Errorf("aiRecommendations: Error loading purchase history, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		candidates, err := s.DB.BooksFindAvailable(r.Context())
		if err != nil {
			s.Logger.Errorf("aiRecommendations: Error finding available Books, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		purchased := map[primitive.ObjectID]bool{}
		for _, rb := range history {
			purchased[rb.Book.ID] = true
		}
		eligible := candidates[:0]
		for _, b := range candidates {
			if b.Seller == uc.user.ID || purchased[b.ID] {
				continue
			}
			eligible = append(eligible, b)
		}

		profile := s.Recommender.ExtractProfile(history)

		// collaborative input failing degrades to content-only, never a 500
		ratings, err := s.allRatings(r.Context())
		if err != nil {
			s.Logger.Warnf("aiRecommendations: Degrading to content-only, err: %v", err)
			ratings = nil
		}

		ranked := s.Recommender.Recommend(profile, eligible, uc.user.ID.Hex(), ratings, limit)
		byID := make(map[string]model.Book, len(eligible))
		for _, b := range eligible {
			byID[b.ID.Hex()] = b
		}
		resp := response{}
		for _, si := range ranked {
			b, ok := byID[si.BookID]
			if !ok {
				continue
			}
			resp = append(resp, scoredBookResponse{Book: b, Score: si.Score})
		}

		if buf, err := json.Marshal(resp); err == nil {
			if err = s.Cache.Set(r.Context(), cacheKey, buf, recommendationCacheTTL).Err(); err != nil {
				s.Logger.Errorf("aiRecommendations: Error setting Redis cache with key: %s, err: %v", cacheKey, err)
			}
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) aiSimilarBooks() http.HandlerFunc {
	type response []scoredBookResponse
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("aiSimilarBooks: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		bookID := mux.Vars(r)["bookID"]
		ref, err := s.DB.BookFindOne(r.Context(), bookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("aiSimilarBooks: Error finding Book with ID: %s, err: %v", bookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		limit := misc.Clamp(intQueryParam(r, "limit", 5), 1, 20)

		// same-category listings first, widening to the whole catalog when
		// the category is thin
		candidates, err := s.DB.BooksFindByCategory(r.Context(), ref.Category, ref.ID, limit*4)
		if err != nil {
			s.Logger.Errorf("aiSimilarBooks: Error finding Books in category %s, err: %v", ref.Category, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if len(candidates) < limit {
			candidates, err = s.DB.BooksFindAvailable(r.Context())
			if err != nil {
				s.Logger.Errorf("aiSimilarBooks: Error finding available Books, err: %v", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		ranked := s.Recommender.RankSimilar(ref, candidates, limit)
		resp := response{}
		for _, sb := range ranked {
			resp = append(resp, scoredBookResponse{Book: sb.Book, Score: sb.Score})
		}

		// asking for similar books is a browsing signal worth recording
		if !uc.isAdmin {
			if err = s.DB.UserRecordView(r.Context(), uc.user.ID, ref.ID); err != nil {
				s.Logger.Errorf("aiSimilarBooks: Error recording ViewEvent for User: %s, err: %v", uc.user.ID.Hex(), err)
			}
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) aiSearch() http.HandlerFunc {
	type response []scoredBookResponse
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "Missing query parameter: q", http.StatusBadRequest)
			return
		}
		limit := misc.Clamp(intQueryParam(r, "limit", 20), 1, 100)

		resp := response{}
		for _, res := range s.SearchIndex.Search(query, limit) {
			resp = append(resp, scoredBookResponse{Book: res.Book, Score: res.Score})
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) aiAutocomplete() http.HandlerFunc {
	type response struct {
		Suggestions []string `json:"suggestions"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		limit := misc.Clamp(intQueryParam(r, "limit", 10), 1, 25)

		bs, err := s.DB.BooksFindAvailable(r.Context())
		if err != nil {
			s.Logger.Errorf("aiAutocomplete: Error finding available Books, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		suggestions := search.Autocomplete(query, bs, limit)
		if suggestions == nil {
			suggestions = []string{}
		}
		s.writeJsonResponse(w, response{Suggestions: suggestions}, http.StatusOK)
	}
}

func (s Server) aiChatbotMessage() http.HandlerFunc {
	type request struct {
		Message string `json:"message"`
	}
	type response struct {
		Intent string `json:"intent"`
		Reply  string `json:"reply"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("aiChatbotMessage: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("aiChatbotMessage: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Message == "" {
			http.Error(w, "Message cannot be empty", http.StatusUnprocessableEntity)
			return
		}

		// catalog lookups failing leaves the bot with generic replies
		facts := chat.CatalogFacts{}
		if ccs, err := s.DB.BooksTopCategories(r.Context(), 3); err != nil {
			s.Logger.Warnf("aiChatbotMessage: Error aggregating top categories, err: %v", err)
		} else {
			for _, cc := range ccs {
				facts.TopCategories = append(facts.TopCategories, cc.Category)
			}
		}
		if mvs, err := s.DB.BooksMostViewed(r.Context(), 3); err != nil {
			s.Logger.Warnf("aiChatbotMessage: Error finding most viewed Books, err: %v", err)
		} else {
			for _, b := range mvs {
				facts.PopularTitles = append(facts.PopularTitles, b.Title)
			}
		}

		intent, reply := s.Bot.Reply(uc.user.ID.Hex(), req.Message, facts)
		s.writeJsonResponse(w, response{Intent: intent, Reply: reply}, http.StatusOK)
	}
}

func intQueryParam(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
