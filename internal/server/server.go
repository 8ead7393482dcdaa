package server

import (
	"github.com/go-redis/redis/v9"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"librolink/internal/chat"
	"librolink/internal/client"
	"librolink/internal/database"
	"librolink/internal/recommend"
	"librolink/internal/search"
)

// Server owns every service the handlers need. The search index, the
// recommendation engine and the chatbot are constructed here once instead
// of living as package state.
type Server struct {
	DB            database.Database
	Client        client.Client
	Cache         *redis.Client
	Logger        logger
	AuthSecretKey jwk.Key
	Recommender   *recommend.Engine
	SearchIndex   *search.Index
	Bot           *chat.Bot
	UploadDir     string
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Warn(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}
