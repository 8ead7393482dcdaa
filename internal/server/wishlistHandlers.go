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

func (s Server) wishlistGet() http.HandlerFunc {
	type wishlistItem struct {
		BookID     string           `json:"book_id"`
		Notes      string           `json:"notes,omitempty"`
		PriceAlert model.PriceAlert `json:"price_alert"`
		Notified   bool             `json:"notified"`
		Book       model.Book       `json:"book"`
	}
	type response []wishlistItem
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistGet: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		wes, err := s.DB.WishlistFindByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("wishlistGet: Error finding WishlistEntries, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resp := response{}
		if len(wes) == 0 {
			s.writeJsonResponse(w, resp, http.StatusOK)
			return
		}
		bookIDs := make([]primitive.ObjectID, 0, len(wes))
		for _, we := range wes {
			bookIDs = append(bookIDs, we.Book)
		}
		bs, err := s.DB.BooksFindByIDs(r.Context(), bookIDs)
		if err != nil {
			s.Logger.Errorf("wishlistGet: Error finding Books, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		for _, we := range wes {
			item := wishlistItem{
				BookID:     we.Book.Hex(),
				Notes:      we.Notes,
				PriceAlert: we.PriceAlert,
				Notified:   we.Notified,
			}
			for _, b := range bs {
				if b.ID == we.Book {
					item.Book = b
					break
				}
			}
			resp = append(resp, item)
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) wishlistAdd() http.HandlerFunc {
	type request struct {
		BookID     string           `json:"book_id"`
		Notes      string           `json:"notes"`
		PriceAlert model.PriceAlert `json:"price_alert"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistAdd: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("wishlistAdd: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		b, err := s.DB.BookFindOne(r.Context(), req.BookID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
				s.Logger.Debugf("wishlistAdd: No documents found for Book with ID: %s, err: %v", req.BookID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("wishlistAdd: Error finding Book with ID: %s, err: %v", req.BookID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		we := model.WishlistEntry{
			User:       uc.user.ID,
			Book:       b.ID,
			Notes:      req.Notes,
			PriceAlert: req.PriceAlert,
		}
		if _, err = s.DB.WishlistAdd(r.Context(), we); err != nil {
			if mongo.IsDuplicateKeyError(errors.Cause(err)) {
				s.Logger.Debugf("wishlistAdd: Book %s already in wishlist of User %s", b.ID.Hex(), uc.user.ID.Hex())
				http.Error(w, "Book already in wishlist", http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("wishlistAdd: Error inserting WishlistEntry, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusCreated)
	}
}

func (s Server) wishlistRemove() http.HandlerFunc {
	type request struct {
		BookID string `json:"book_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistRemove: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("wishlistRemove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		bookOID, err := primitive.ObjectIDFromHex(req.BookID)
		if err != nil {
			s.Logger.Debugf("wishlistRemove: Invalid book_id: %s, err: %v", req.BookID, err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err = s.DB.WishlistRemove(r.Context(), uc.user.ID, bookOID); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("wishlistRemove: Error deleting WishlistEntry, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) wishlistAlertUpdate() http.HandlerFunc {
	type request struct {
		BookID     string           `json:"book_id"`
		PriceAlert model.PriceAlert `json:"price_alert"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistAlertUpdate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("wishlistAlertUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.PriceAlert.Enabled && req.PriceAlert.TargetPrice <= 0 {
			http.Error(w, "target_price must be positive", http.StatusBadRequest)
			return
		}
		bookOID, err := primitive.ObjectIDFromHex(req.BookID)
		if err != nil {
			s.Logger.Debugf("wishlistAlertUpdate: Invalid book_id: %s, err: %v", req.BookID, err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err = s.DB.WishlistAlertUpdate(r.Context(), uc.user.ID, bookOID, req.PriceAlert); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("wishlistAlertUpdate: Error updating PriceAlert, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}
