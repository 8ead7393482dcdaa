package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"librolink/internal/logger"
)

type Config struct {
	ServerAddress      string
	DatabaseURI        string
	RedisURI           string
	UploadDir          string
	AlertCheckInterval time.Duration
	LogLevel           logger.Level
	LogToFile          bool
	AuthSecretKey      jwk.Key
	FCMKey             string
}

type tomlConfig struct {
	ServerAddress      string `toml:"server_address"`
	DatabaseURI        string `toml:"database_uri"`
	RedisURI           string `toml:"redis_uri"`
	UploadDir          string `toml:"upload_dir"`
	AlertCheckInterval string `toml:"alert_check_interval"`
	LogLevel           string `toml:"log_level"`
	LogToFile          bool   `toml:"log_to_file"`
	AuthSecretKey      string `toml:"auth_secret_key"`
	FCMKey             string `toml:"fcm_key"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}

	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}

	if tc.RedisURI == "" {
		tc.RedisURI = "redis://localhost:6379"
	}

	if tc.UploadDir == "" {
		tc.UploadDir = "uploads"
	}

	if tc.AlertCheckInterval == "" {
		tc.AlertCheckInterval = "5m"
	}
	alertCheckInterval, err := time.ParseDuration(tc.AlertCheckInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse alert_check_interval: %s", tc.AlertCheckInterval)
	}
	if alertCheckInterval < 15*time.Second {
		return nil, errors.Errorf("alert_check_interval too short (%v), minimum interval: 15s", alertCheckInterval)
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse log_level: %s", tc.LogLevel)
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	return &Config{
		ServerAddress:      tc.ServerAddress,
		DatabaseURI:        tc.DatabaseURI,
		RedisURI:           tc.RedisURI,
		UploadDir:          tc.UploadDir,
		AlertCheckInterval: alertCheckInterval,
		LogLevel:           logLevel,
		LogToFile:          tc.LogToFile,
		AuthSecretKey:      authSecretKey,
		FCMKey:             tc.FCMKey,
	}, nil
}
