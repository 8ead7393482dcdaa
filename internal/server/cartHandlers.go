package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"librolink/internal/database"
	"librolink/internal/model"
)

func (s Server) cartGet() http.HandlerFunc {
	type cartItem struct {
		BookID     string     `json:"book_id"`
		Quantity   int        `json:"quantity"`
		PriceAtAdd float64    `json:"price_at_add"`
		Book       model.Book `json:"book"`
	}
	type response []cartItem
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("cartGet: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ces, err := s.DB.CartFindByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("cartGet: Error finding CartEntries, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		// an empty cart is an empty array, never null or 404
		resp := response{}
		if len(ces) == 0 {
			s.writeJsonResponse(w, resp, http.StatusOK)
			return
		}
		bookIDs := make([]primitive.ObjectID, 0, len(ces))
		for _, ce := range ces {
			bookIDs = append(bookIDs, ce.Book)
		}
		bs, err := s.DB.BooksFindByIDs(r.Context(), bookIDs)
		if err != nil {
			s.Logger.Errorf("cartGet: Error finding Books, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		for _, ce := range ces {
			item := cartItem{
				BookID:     ce.Book.Hex(),
				Quantity:   ce.Quantity,
				PriceAtAdd: ce.PriceAtAdd,
			}
			for _, b := range bs {
				if b.ID == ce.Book {
					item.Book = b
					break
				}
			}
			resp = append(resp, item)
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) cartAdd() http.HandlerFunc {
	type request struct {
		BookID   string `json:"book_id"`
		Quantity int    `json:"quantity"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("cartAdd: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("cartAdd: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Quantity < 1 {
			req.Quantity = 1
		}

		b, err := s.DB.BookFindOne(r.Context(), req.BookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				s.Logger.Debugf("cartAdd: No documents found for Book with ID: %s, err: %v", req.BookID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("cartAdd: Error finding Book with ID: %s, err: %v", req.BookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if b.Status != model.StatusAvailable {
			http.Error(w, "Book is not available", http.StatusUnprocessableEntity)
			return
		}

		ce := model.CartEntry{
			User:       uc.user.ID,
			Book:       b.ID,
			Quantity:   req.Quantity,
			PriceAtAdd: b.Price,
		}
		if err = s.DB.CartUpsert(r.Context(), ce); err != nil {
			s.Logger.Errorf("cartAdd: Error upserting CartEntry, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) cartUpdate() http.HandlerFunc {
	type request struct {
		BookID   string `json:"book_id"`
		Quantity int    `json:"quantity"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("cartUpdate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("cartUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		bookOID, err := primitive.ObjectIDFromHex(req.BookID)
		if err != nil {
			s.Logger.Debugf("cartUpdate: Invalid book_id: %s, err: %v", req.BookID, err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		// quantity 0 removes the row, keeping quantity >= 1 for kept rows
		if req.Quantity < 1 {
			if err = s.DB.CartRemove(r.Context(), uc.user.ID, bookOID); err != nil && !errors.Is(err, database.ErrNoDocumentsModified) {
				s.Logger.Errorf("cartUpdate: Error deleting CartEntry, err: %v", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
			return
		}

		// updating only touches existing rows, cartAdd owns row creation
		if err = s.DB.CartQuantityUpdate(r.Context(), uc.user.ID, bookOID, req.Quantity); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("cartUpdate: Error updating CartEntry, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) cartRemove() http.HandlerFunc {
	type request struct {
		BookID string `json:"book_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("cartRemove: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("cartRemove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		bookOID, err := primitive.ObjectIDFromHex(req.BookID)
		if err != nil {
			s.Logger.Debugf("cartRemove: Invalid book_id: %s, err: %v", req.BookID, err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err = s.DB.CartRemove(r.Context(), uc.user.ID, bookOID); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("cartRemove: Error deleting CartEntry, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) cartClear() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("cartClear: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.CartClear(r.Context(), uc.user.ID); err != nil {
			s.Logger.Errorf("cartClear: Error clearing cart, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}
