package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"librolink/internal/model"
)

func (s Server) authRegister() http.HandlerFunc {
	type request struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		AccountType string `json:"account_type"`
	}
	type response struct {
		Success    bool   `json:"success"`
		UserID     string `json:"user_id"`
		LoginToken string `json:"login_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("authRegister: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			s.Logger.Debugf("authRegister: Invalid email, err: %v", err)
			http.Error(w, "Invalid email", http.StatusBadRequest)
			return
		}
		if len(req.Username) < 3 || req.Username == adminSubject {
			http.Error(w, "Invalid username", http.StatusBadRequest)
			return
		}
		if len(req.Password) < 8 {
			http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		if req.AccountType == "" {
			req.AccountType = model.AccountTypeBuyer
		}
		if !model.ValidAccountType(req.AccountType) {
			http.Error(w, "Invalid account_type", http.StatusBadRequest)
			return
		}

		password, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.Logger.Errorf("authRegister: Error generating bcrypt from password, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		u := model.User{
			Name:        req.Name,
			Email:       req.Email,
			Username:    req.Username,
			Password:    password,
			AccountType: req.AccountType,
			Preferences: model.Preferences{
				EmailNotifications: true,
				PriceAlerts:        true,
				PublicProfile:      true,
			},
		}

		id, err := s.DB.UserInsert(r.Context(), u)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				s.Logger.Debugf("authRegister: Duplicate email or username, err: %v", err)
				http.Error(w, "Email or username already taken", http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("authRegister: Error inserting User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		lt, storedToken, err := s.createLoginToken(id)
		if err != nil {
			s.Logger.Errorf("authRegister: Error creating login token for User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.UserAddLoginToken(r.Context(), id, storedToken); err != nil {
			s.Logger.Errorf("authRegister: Error adding login token to User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{
			Success:    true,
			UserID:     id,
			LoginToken: lt,
		}, http.StatusCreated)
	}
}

func (s Server) authLogin() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		UserID     string `json:"user_id"`
		LoginToken string `json:"login_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("authLogin: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		u, err := s.DB.UserFindByEmail(r.Context(), req.Email)
		if err != nil {
			s.Logger.Debugf("authLogin: Error finding User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err = bcrypt.CompareHashAndPassword(u.Password, []byte(req.Password)); err != nil {
			s.Logger.Debugf("authLogin: Error comparing hash and password for User with email: %s, err: %v", u.Email, err)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if !u.IsActive {
			s.Logger.Debugf("authLogin: Deactivated User: %s", u.ID.Hex())
			http.Error(w, "Account deactivated", http.StatusForbidden)
			return
		}

		lt, storedToken, err := s.createLoginToken(u.ID.Hex())
		if err != nil {
			s.Logger.Errorf("authLogin: Error creating login token for User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.UserAddLoginToken(r.Context(), u.ID.Hex(), storedToken); err != nil {
			s.Logger.Errorf("authLogin: Error adding login token to User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{
			UserID:     u.ID.Hex(),
			LoginToken: lt,
		}, http.StatusOK)
	}
}

func (s Server) authLogout() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("authLogout: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if uc.loginTokenID == "" {
			// admin shortcut tokens have no stored counterpart
			s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
			return
		}
		if err = s.DB.UserRemoveLoginToken(r.Context(), uc.user.ID.Hex(), uc.loginTokenID); err != nil {
			s.Logger.Errorf("authLogout: Error removing login token, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userProfile() http.HandlerFunc {
	type response struct {
		UserID      string            `json:"user_id"`
		Name        string            `json:"name"`
		Email       string            `json:"email"`
		Username    string            `json:"username"`
		AccountType string            `json:"account_type"`
		Preferences model.Preferences `json:"preferences"`
		Stats       model.UserStats   `json:"stats"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userProfile: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{
			UserID:      uc.user.ID.Hex(),
			Name:        uc.user.Name,
			Email:       uc.user.Email,
			Username:    uc.user.Username,
			AccountType: uc.user.AccountType,
			Preferences: uc.user.Preferences,
			Stats:       uc.user.Stats,
		}, http.StatusOK)
	}
}

func (s Server) userProfileUpdate() http.HandlerFunc {
	type request struct {
		Name        string            `json:"name"`
		AccountType string            `json:"account_type"`
		Preferences model.Preferences `json:"preferences"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userProfileUpdate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userProfileUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			req.Name = uc.user.Name
		}
		if req.AccountType == "" {
			req.AccountType = uc.user.AccountType
		}
		if !model.ValidAccountType(req.AccountType) {
			http.Error(w, "Invalid account_type", http.StatusBadRequest)
			return
		}
		if err = s.DB.UserUpdateProfile(r.Context(), uc.user.ID.Hex(), req.Name, req.AccountType, req.Preferences); err != nil {
			s.Logger.Errorf("userProfileUpdate: Error updating profile, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userPasswordUpdate() http.HandlerFunc {
	type request struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userPasswordUpdate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userPasswordUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err = bcrypt.CompareHashAndPassword(uc.user.Password, []byte(req.CurrentPassword)); err != nil {
			s.Logger.Debugf("userPasswordUpdate: Wrong current password for User: %s", uc.user.ID.Hex())
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if len(req.NewPassword) < 8 {
			http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		password, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			s.Logger.Errorf("userPasswordUpdate: Error generating bcrypt from password, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		// all login tokens are invalidated with the password
		if err = s.DB.UserUpdatePassword(r.Context(), uc.user.ID.Hex(), password); err != nil {
			s.Logger.Errorf("userPasswordUpdate: Error updating password, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userDeactivate() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userDeactivate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.UserSetActive(r.Context(), uc.user.ID.Hex(), false); err != nil {
			s.Logger.Errorf("userDeactivate: Error deactivating User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userDelete() http.HandlerFunc {
	type request struct {
		Password string `json:"password"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userDelete: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userDelete: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err = bcrypt.CompareHashAndPassword(uc.user.Password, []byte(req.Password)); err != nil {
			s.Logger.Debugf("userDelete: Wrong password for User: %s", uc.user.ID.Hex())
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err = s.DB.UserDelete(r.Context(), uc.user.ID.Hex()); err != nil {
			s.Logger.Errorf("userDelete: Error deleting User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		// the deleted seller's listings are gone, refresh the search index
		s.rebuildSearchIndex(r.Context())
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userDeviceRegister() http.HandlerFunc {
	type request struct {
		FCMToken string `json:"fcm_token"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userDeviceRegister: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userDeviceRegister: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err = s.DB.UserSetFCMToken(r.Context(), uc.user.ID.Hex(), req.FCMToken); err != nil {
			s.Logger.Errorf("userDeviceRegister: Error setting FCM token, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

// createLoginToken issues a signed JWT and the hashed copy stored on the
// user document. Only the bcrypt of the token's SHA-256 is persisted.
func (s Server) createLoginToken(userID string) (string, model.LoginToken, error) {
	exp := time.Now().AddDate(0, 0, 90)
	tokenID := uuid.NewString()
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return "", model.LoginToken{}, errors.Wrapf(err, "error generating salt for login token for UserID: %s", userID)
	}
	t, err := jwt.NewBuilder().
		Subject(userID).
		Issuer("librolink").
		JwtID(tokenID).
		Expiration(exp).
		Claim("s", base64.StdEncoding.EncodeToString(salt)).
		Build()
	if err != nil {
		return "", model.LoginToken{}, errors.Wrapf(err, "error creating login token for UserID: %s", userID)
	}
	lt, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", model.LoginToken{}, errors.Wrapf(err, "error signing login token for UserID: %s", userID)
	}
	tokenHash := sha256.Sum256(lt)
	bcryptTokenHash, err := bcrypt.GenerateFromPassword(tokenHash[:], bcrypt.DefaultCost-3)
	if err != nil {
		return "", model.LoginToken{}, errors.Wrapf(err, "error generating bcrypt from login token hash for UserID: %s", userID)
	}
	return string(lt), model.LoginToken{
		TokenID:    tokenID,
		Token:      bcryptTokenHash,
		Expiration: primitive.NewDateTimeFromTime(exp),
	}, nil
}
