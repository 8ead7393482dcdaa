package server

import (
	"crypto/sha256"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/crypto/bcrypt"
)

func testServer(t *testing.T) Server {
	t.Helper()
	key, err := jwk.FromRaw([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("creating test key: %v", err)
	}
	return Server{AuthSecretKey: key}
}

func TestCreateLoginTokenRoundTrip(t *testing.T) {
	s := testServer(t)
	userID := "64a2f8c1e3b4d5a6f7081920"

	lt, stored, err := s.createLoginToken(userID)
	if err != nil {
		t.Fatalf("createLoginToken() error: %v", err)
	}

	token, err := jwt.Parse([]byte(lt), jwt.WithKey(jwa.HS256, s.AuthSecretKey), jwt.WithValidate(true))
	if err != nil {
		t.Fatalf("parsing login token: %v", err)
	}
	if token.Subject() != userID {
		t.Fatalf("Subject = %q, want %q", token.Subject(), userID)
	}
	if token.Issuer() != "librolink" {
		t.Fatalf("Issuer = %q", token.Issuer())
	}
	if token.JwtID() != stored.TokenID {
		t.Fatalf("JwtID = %q, stored TokenID = %q", token.JwtID(), stored.TokenID)
	}

	// the stored token must verify against the hash of the issued JWT
	tokenHash := sha256.Sum256([]byte(lt))
	if err = bcrypt.CompareHashAndPassword(stored.Token, tokenHash[:]); err != nil {
		t.Fatalf("stored token hash does not match issued token: %v", err)
	}
}

func TestCreateLoginTokenRejectsWrongKey(t *testing.T) {
	s := testServer(t)
	lt, _, err := s.createLoginToken("64a2f8c1e3b4d5a6f7081920")
	if err != nil {
		t.Fatalf("createLoginToken() error: %v", err)
	}

	otherKey, err := jwk.FromRaw([]byte("a-different-secret"))
	if err != nil {
		t.Fatalf("creating other key: %v", err)
	}
	if _, err = jwt.Parse([]byte(lt), jwt.WithKey(jwa.HS256, otherKey), jwt.WithValidate(true)); err == nil {
		t.Fatal("token parsed with the wrong key")
	}
}

func TestCreateLoginTokensAreUnique(t *testing.T) {
	s := testServer(t)
	lt1, stored1, err := s.createLoginToken("64a2f8c1e3b4d5a6f7081920")
	if err != nil {
		t.Fatalf("createLoginToken() error: %v", err)
	}
	lt2, stored2, err := s.createLoginToken("64a2f8c1e3b4d5a6f7081920")
	if err != nil {
		t.Fatalf("createLoginToken() error: %v", err)
	}
	if lt1 == lt2 {
		t.Fatal("two login tokens for the same user are identical")
	}
	if stored1.TokenID == stored2.TokenID {
		t.Fatal("two login tokens share a TokenID")
	}
}
