package server

import (
	"context"
	"crypto/sha256"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"librolink/internal/model"
)

// adminSubject is the literal JWT subject that bypasses the user lookup.
// A shortcut carried over from the system this replaces.
const adminSubject = "admin"

type userContextKey struct{}
type userContext struct {
	user         model.User
	loginTokenID string
	isAdmin      bool
}

type traceContextKey struct{}
type traceContext struct {
	traceID string
}

func setUserContext(ctx context.Context, uc userContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, uc)
}
func getUserContext(ctx context.Context) (userContext, error) {
	uc, ok := ctx.Value(userContextKey{}).(userContext)
	if !ok {
		return uc, errors.New("failed to get UserContext")
	}
	return uc, nil
}

func setTraceContext(ctx context.Context, tc traceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}
func getTraceContext(ctx context.Context) traceContext {
	tc, _ := ctx.Value(traceContextKey{}).(traceContext)
	return tc
}

// maxBytesMw caps JSON request bodies. Upload routes enforce their own
// multipart limits instead.
func (s Server) maxBytesMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/upload/") {
			r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) loggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := uuid.NewString()
		s.Logger.Debugf("loggingMw: New incoming request %s %s from %s, UA: %s, TraceID: %s",
			r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent(), traceID)

		defer func() {
			if re := recover(); re != nil {
				s.Logger.Errorf("loggingMw: Handler crashed, err: %v, TraceID: %s, stack trace:\n%s", re, traceID, debug.Stack())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		tc := traceContext{traceID: traceID}
		next.ServeHTTP(w, r.WithContext(setTraceContext(r.Context(), tc)))

		s.Logger.Debugf("loggingMw: Incoming request %s %s took %dms, TraceID: %s",
			r.Method, r.URL.Path, time.Since(start).Milliseconds(), traceID)
	})
}

func (s Server) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		lt := r.Header.Get("Authorization")
		if !strings.HasPrefix(lt, "Bearer ") {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		lt = strings.TrimPrefix(lt, "Bearer ")
		token, err := jwt.Parse([]byte(lt), jwt.WithKey(jwa.HS256, s.AuthSecretKey), jwt.WithValidate(true))
		if err != nil {
			s.Logger.Debugf("authMw: Failed to validate login token, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if token.Subject() == adminSubject {
			uc := userContext{
				user:    model.User{Username: adminSubject, IsAdmin: true, IsActive: true},
				isAdmin: true,
			}
			s.Logger.Debugf("authMw: Admin token accepted, TraceID: %s", tid)
			next.ServeHTTP(w, r.WithContext(setUserContext(r.Context(), uc)))
			return
		}

		u, err := s.DB.UserFindByID(r.Context(), token.Subject())
		if err != nil {
			s.Logger.Debugf("authMw: Error finding User from login token, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if !u.IsActive {
			s.Logger.Debugf("authMw: Deactivated User: %s, TraceID: %s", u.ID.Hex(), tid)
			http.Error(w, "Account deactivated", http.StatusForbidden)
			return
		}

		tokenHash := sha256.Sum256([]byte(lt))
		for _, ult := range u.LoginTokens {
			if ult.TokenID != token.JwtID() {
				continue
			}
			if err = bcrypt.CompareHashAndPassword(ult.Token, tokenHash[:]); err != nil {
				s.Logger.Debugf("authMw: Error comparing LoginToken hashes for UserID: %s, err: %v, TraceID: %s",
					u.ID.Hex(), err, tid)
				break
			}
			uc := userContext{
				user:         u,
				loginTokenID: token.JwtID(),
				isAdmin:      u.IsAdmin,
			}
			next.ServeHTTP(w, r.WithContext(setUserContext(r.Context(), uc)))
			return
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	})
}

func (s Server) adminMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("adminMw: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !uc.isAdmin {
			s.Logger.Debugf("adminMw: Non-admin User: %s denied, TraceID: %s",
				uc.user.ID.Hex(), getTraceContext(r.Context()).traceID)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
