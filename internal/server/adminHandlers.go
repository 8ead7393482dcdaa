package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"librolink/internal/database"
	"librolink/internal/model"
)

func (s Server) adminDashboardStats() http.HandlerFunc {
	type mostViewedBook struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Views int    `json:"views"`
	}
	type categoryStat struct {
		Category string `json:"category"`
		Count    int    `json:"count"`
	}
	type response struct {
		TotalUsers    int64            `json:"total_users"`
		ActiveUsers   int64            `json:"active_users"`
		TotalBooks    int64            `json:"total_books"`
		BooksByStatus map[string]int64 `json:"books_by_status"`
		SoldBooks     int64            `json:"sold_books"`
		TotalRevenue  float64          `json:"total_revenue"`
		TopCategories []categoryStat   `json:"top_categories"`
		MostViewed    []mostViewedBook `json:"most_viewed"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		totalUsers, activeUsers, err := s.DB.UsersCount(r.Context())
		if err != nil {
			s.Logger.Errorf("adminDashboardStats: Error counting Users, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		scs, err := s.DB.BooksCountByStatus(r.Context())
		if err != nil {
			s.Logger.Errorf("adminDashboardStats: Error counting Books by status, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		sales, err := s.DB.BooksSalesTotals(r.Context())
		if err != nil {
			s.Logger.Errorf("adminDashboardStats: Error aggregating sales totals, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ccs, err := s.DB.BooksTopCategories(r.Context(), 5)
		if err != nil {
			s.Logger.Errorf("adminDashboardStats: Error aggregating top categories, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		mvs, err := s.DB.BooksMostViewed(r.Context(), 5)
		if err != nil {
			s.Logger.Errorf("adminDashboardStats: Error finding most viewed Books, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resp := response{
			TotalUsers:    totalUsers,
			ActiveUsers:   activeUsers,
			BooksByStatus: map[string]int64{},
			SoldBooks:     sales.SoldCount,
			TotalRevenue:  sales.Revenue,
			TopCategories: []categoryStat{},
			MostViewed:    []mostViewedBook{},
		}
		for _, sc := range scs {
			resp.BooksByStatus[sc.Status] = sc.Count
			resp.TotalBooks += sc.Count
		}
		for _, cc := range ccs {
			resp.TopCategories = append(resp.TopCategories, categoryStat{Category: cc.Category, Count: cc.Count})
		}
		for _, b := range mvs {
			resp.MostViewed = append(resp.MostViewed, mostViewedBook{ID: b.ID.Hex(), Title: b.Title, Views: b.Views})
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) adminUserList() http.HandlerFunc {
	type userInfo struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Email          string    `json:"email"`
		Username       string    `json:"username"`
		AccountType    string    `json:"account_type"`
		IsActive       bool      `json:"is_active"`
		BooksListed    int       `json:"books_listed"`
		BooksSold      int       `json:"books_sold"`
		TotalPurchases int       `json:"total_purchases"`
		CreatedAt      time.Time `json:"created_at"`
	}
	type response []userInfo
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := s.DB.UsersFindAll(r.Context())
		if err != nil {
			s.Logger.Errorf("adminUserList: Error finding Users, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		resp := response{}
		for _, u := range us {
			resp = append(resp, userInfo{
				ID:             u.ID.Hex(),
				Name:           u.Name,
				Email:          u.Email,
				Username:       u.Username,
				AccountType:    u.AccountType,
				IsActive:       u.IsActive,
				BooksListed:    u.Stats.BooksListed,
				BooksSold:      u.Stats.BooksSold,
				TotalPurchases: u.Stats.TotalPurchases,
				CreatedAt:      u.CreatedAt.Time(),
			})
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) adminUserStatusUpdate() http.HandlerFunc {
	type request struct {
		IsActive bool `json:"is_active"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["userID"]
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminUserStatusUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err := s.DB.UserSetActive(r.Context(), userID, req.IsActive); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) || errors.Is(err, primitive.ErrInvalidHex) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("adminUserStatusUpdate: Error updating User with ID: %s, err: %v", userID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) adminBookStatusUpdate() http.HandlerFunc {
	type request struct {
		Status string `json:"status"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminBookStatusUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if !model.ValidBookStatus(req.Status) {
			http.Error(w, "Invalid book status", http.StatusUnprocessableEntity)
			return
		}

		bookID := mux.Vars(r)["bookID"]
		b, err := s.DB.BookFindOne(r.Context(), bookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("adminBookStatusUpdate: Error finding Book with ID: %s, err: %v", bookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.BookStatusUpdate(r.Context(), b.ID, req.Status); err != nil {
			s.Logger.Errorf("adminBookStatusUpdate: Error updating Book with ID: %s, err: %v", bookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		// a status flip changes search visibility
		b.Status = req.Status
		s.SearchIndex.UpdateDocument(b)
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}
