package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v9"
	"librolink/internal/chat"
	"librolink/internal/client"
	"librolink/internal/configuration"
	"librolink/internal/database"
	"librolink/internal/logger"
	"librolink/internal/recommend"
	"librolink/internal/search"
	"librolink/internal/server"
)

func main() {
	if err := runApp(); err != nil {
		time.Sleep(10 * time.Second)
		os.Exit(1)
	}
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("librolink.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()

	redisOpts, err := redis.ParseURL(config.RedisURI)
	if err != nil {
		appLogger.Error("Error parsing Redis URI:", err)
		return err
	}

	srv := server.Server{
		DB: database.Database{Database: dbConn.Database(database.Name)},
		Client: client.Client{
			Client: &http.Client{Timeout: 15 * time.Second},
			FCMKey: config.FCMKey,
			Logger: appLogger,
		},
		Cache:         redis.NewClient(redisOpts),
		Logger:        appLogger,
		AuthSecretKey: config.AuthSecretKey,
		Recommender:   recommend.NewEngine(recommend.DefaultConfig()),
		SearchIndex:   search.NewIndex(),
		Bot:           chat.NewBot(),
		UploadDir:     config.UploadDir,
	}

	appLogger.Info("Building search index")
	if bs, err := srv.DB.BooksFindAvailable(appContext); err != nil {
		appLogger.Error("Error finding available books for search index:", err)
	} else {
		srv.SearchIndex.Rebuild(bs)
		appLogger.Infof("Search index built with %d books", srv.SearchIndex.Size())
	}

	appLogger.Info("Starting price alert checker with interval:", config.AlertCheckInterval)
	go srv.CheckAlertsInInterval(appContext, time.NewTicker(config.AlertCheckInterval))

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}
