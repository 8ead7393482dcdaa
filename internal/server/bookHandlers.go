package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"librolink/internal/database"
	"librolink/internal/misc"
	"librolink/internal/model"
)

func (s Server) bookList() http.HandlerFunc {
	type response struct {
		Books   []model.Book `json:"books"`
		Total   int64        `json:"total"`
		Page    int          `json:"page"`
		PerPage int          `json:"per_page"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		priceMin, _ := strconv.ParseFloat(q.Get("price_min"), 64)
		priceMax, _ := strconv.ParseFloat(q.Get("price_max"), 64)

		f := database.BookFilter{
			Status:   model.StatusAvailable,
			Category: q.Get("category"),
			Genre:    q.Get("genre"),
			Author:   q.Get("author"),
			Search:   q.Get("search"),
			PriceMin: priceMin,
			PriceMax: priceMax,
			Page:     misc.Max(page, 1),
			PerPage:  misc.Clamp(perPage, 1, 100),
		}
		if f.Category != "" && !model.ValidBookCategory(f.Category) {
			http.Error(w, "Invalid category", http.StatusBadRequest)
			return
		}

		bs, total, err := s.DB.BooksFind(r.Context(), f)
		if err != nil {
			s.Logger.Errorf("bookList: Error finding Books, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if bs == nil {
			bs = []model.Book{}
		}
		s.writeJsonResponse(w, response{
			Books:   bs,
			Total:   total,
			Page:    f.Page,
			PerPage: f.PerPage,
		}, http.StatusOK)
	}
}

func (s Server) bookGetOne() http.HandlerFunc {
	type response model.Book
	return func(w http.ResponseWriter, r *http.Request) {
		bookID := mux.Vars(r)["bookID"]
		b, err := s.DB.BookFindOne(r.Context(), bookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				s.Logger.Debugf("bookGetOne: No documents found for Book with ID: %s, err: %v", bookID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("bookGetOne: Error finding Book with ID: %s, err: %v", bookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err = s.DB.BookViewsIncrement(r.Context(), b.ID); err != nil {
			s.Logger.Errorf("bookGetOne: Error incrementing views, err: %v", err)
		}
		b.Views++

		// a logged-in viewer gets a view event in their behavior history,
		// fire and forget
		if uc, err := getUserContext(r.Context()); err == nil && !uc.user.ID.IsZero() {
			if err = s.DB.UserRecordView(r.Context(), uc.user.ID, b.ID); err != nil {
				s.Logger.Errorf("bookGetOne: Error recording view event, err: %v", err)
			}
		}
		s.writeJsonResponse(w, response(b), http.StatusOK)
	}
}

type bookPayload struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        string  `json:"isbn"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Genre       string  `json:"genre"`
	Condition   string  `json:"condition"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Location    string  `json:"location"`
	ShippingFee float64 `json:"shipping_fee"`
}

func (p bookPayload) validate() string {
	if p.Title == "" || p.Author == "" {
		return "Title and author are required"
	}
	if !model.ValidBookCategory(p.Category) {
		return "Invalid category"
	}
	if !model.ValidBookCondition(p.Condition) {
		return "Invalid condition"
	}
	if p.Price <= 0 {
		return "Price must be positive"
	}
	return ""
}

func (s Server) bookCreate() http.HandlerFunc {
	type response struct {
		BookID string `json:"book_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("bookCreate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if uc.user.AccountType == model.AccountTypeBuyer {
			s.Logger.Debugf("bookCreate: User %s is not a seller", uc.user.ID.Hex())
			http.Error(w, "Only sellers can list books", http.StatusForbidden)
			return
		}

		req := bookPayload{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("bookCreate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if msg := req.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		b := model.Book{
			Title:         req.Title,
			Author:        req.Author,
			ISBN:          req.ISBN,
			Description:   misc.StripHTML(req.Description),
			Category:      req.Category,
			Genre:         req.Genre,
			Condition:     req.Condition,
			Price:         req.Price,
			OriginalPrice: req.Price,
			Seller:        uc.user.ID,
			SellerName:    uc.user.Username,
			Status:        model.StatusAvailable,
			ImageURL:      req.ImageURL,
			Location:      req.Location,
			ShippingFee:   req.ShippingFee,
		}
		id, err := s.DB.BookInsert(r.Context(), b)
		if err != nil {
			s.Logger.Errorf("bookCreate: Error inserting Book, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.UserSellerListedIncrement(r.Context(), uc.user.ID, 1); err != nil {
			s.Logger.Errorf("bookCreate: Error incrementing seller listed count, err: %v", err)
		}

		if b.ID, err = primitive.ObjectIDFromHex(id); err == nil {
			s.SearchIndex.UpdateDocument(b)
		}
		s.writeJsonResponse(w, response{BookID: id}, http.StatusCreated)
	}
}

// loadOwnedBook fetches the book and checks the requester may modify it.
// A nil book pointer means the response was already written.
func (s Server) loadOwnedBook(w http.ResponseWriter, r *http.Request, handlerName string) (*model.Book, userContext) {
	uc, err := getUserContext(r.Context())
	if err != nil {
		s.Logger.Errorf("%s: Error getting userContext, err: %v", handlerName, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, uc
	}
	bookID := mux.Vars(r)["bookID"]
	b, err := s.DB.BookFindOne(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
			s.Logger.Debugf("%s: No documents found for Book with ID: %s, err: %v", handlerName, bookID, err)
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return nil, uc
		}
		s.Logger.Errorf("%s: Error finding Book with ID: %s, err: %v", handlerName, bookID, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, uc
	}
	if b.Seller != uc.user.ID && !uc.isAdmin {
		s.Logger.Debugf("%s: User %s does not own Book %s", handlerName, uc.user.ID.Hex(), b.ID.Hex())
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return nil, uc
	}
	return &b, uc
}

func (s Server) bookUpdate() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := s.loadOwnedBook(w, r, "bookUpdate")
		if b == nil {
			return
		}

		req := bookPayload{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("bookUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if msg := req.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		b.Title = req.Title
		b.Author = req.Author
		b.ISBN = req.ISBN
		b.Description = misc.StripHTML(req.Description)
		b.Category = req.Category
		b.Genre = req.Genre
		b.Condition = req.Condition
		b.Price = req.Price
		b.ImageURL = req.ImageURL
		b.Location = req.Location
		b.ShippingFee = req.ShippingFee

		if err := s.DB.BookUpdate(r.Context(), *b); err != nil {
			s.Logger.Errorf("bookUpdate: Error updating Book, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.SearchIndex.UpdateDocument(*b)
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) bookDelete() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		b, uc := s.loadOwnedBook(w, r, "bookDelete")
		if b == nil {
			return
		}
		if err := s.DB.BookDelete(r.Context(), b.ID); err != nil {
			s.Logger.Errorf("bookDelete: Error deleting Book, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if b.Seller == uc.user.ID {
			if err := s.DB.UserSellerListedIncrement(r.Context(), uc.user.ID, -1); err != nil {
				s.Logger.Errorf("bookDelete: Error decrementing seller listed count, err: %v", err)
			}
		}
		s.SearchIndex.RemoveDocument(b.ID.Hex())
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) bookReviewAdd() http.HandlerFunc {
	type request struct {
		Rating  float64 `json:"rating"`
		Comment string  `json:"comment"`
	}
	type response struct {
		Success       bool    `json:"success"`
		AverageRating float64 `json:"average_rating"`
		ReviewCount   int     `json:"review_count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("bookReviewAdd: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("bookReviewAdd: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
			return
		}

		bookID := mux.Vars(r)["bookID"]
		b, err := s.DB.BookFindOne(r.Context(), bookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				s.Logger.Debugf("bookReviewAdd: No documents found for Book with ID: %s, err: %v", bookID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("bookReviewAdd: Error finding Book with ID: %s, err: %v", bookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		b.AddReview(model.Review{
			User:    uc.user.ID,
			Rating:  req.Rating,
			Comment: misc.StripHTML(req.Comment),
			Date:    nowDateTime(),
		})
		if err = s.DB.BookReviewAdd(r.Context(), b); err != nil {
			s.Logger.Errorf("bookReviewAdd: Error adding review, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		// an explicit rating on a purchased book feeds the collaborative
		// scorer
		if err = s.DB.UserRecordPurchaseRating(r.Context(), uc.user.ID, b.ID, req.Rating); err != nil {
			s.Logger.Errorf("bookReviewAdd: Error recording purchase rating, err: %v", err)
		}

		s.writeJsonResponse(w, response{
			Success:       true,
			AverageRating: b.AverageRating,
			ReviewCount:   b.ReviewCount,
		}, http.StatusOK)
	}
}

func (s Server) bookPurchase() http.HandlerFunc {
	type response struct {
		Success   bool    `json:"success"`
		SoldPrice float64 `json:"sold_price"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("bookPurchase: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		bookID := mux.Vars(r)["bookID"]
		b, err := s.DB.BookFindOne(r.Context(), bookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				s.Logger.Debugf("bookPurchase: No documents found for Book with ID: %s, err: %v", bookID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("bookPurchase: Error finding Book with ID: %s, err: %v", bookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if b.Status != model.StatusAvailable {
			s.Logger.Debugf("bookPurchase: Book %s is not available, status: %s", b.ID.Hex(), b.Status)
			http.Error(w, "Book is not available", http.StatusUnprocessableEntity)
			return
		}
		if b.Seller == uc.user.ID {
			http.Error(w, "Cannot buy your own listing", http.StatusUnprocessableEntity)
			return
		}

		b.MarkSold(uc.user.ID, b.Price)
		if err = s.DB.BookMarkSold(r.Context(), b); err != nil {
			s.Logger.Errorf("bookPurchase: Error marking Book as sold, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err = s.DB.UserRecordPurchase(r.Context(), uc.user.ID, b.ID); err != nil {
			s.Logger.Errorf("bookPurchase: Error recording purchase event, err: %v", err)
		}
		if err = s.DB.UserSellerStatsUpdate(r.Context(), b.Seller, b.SoldPrice); err != nil {
			s.Logger.Errorf("bookPurchase: Error updating seller stats, err: %v", err)
		}
		if err = s.DB.CartRemove(r.Context(), uc.user.ID, b.ID); err != nil {
			s.Logger.Debugf("bookPurchase: Book was not in buyer's cart, err: %v", err)
		}
		s.SearchIndex.RemoveDocument(b.ID.Hex())

		s.writeJsonResponse(w, response{
			Success:   true,
			SoldPrice: b.SoldPrice,
		}, http.StatusOK)
	}
}
