package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"librolink/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	path := writeConfig(t, `auth_secret_key = "test-secret-key"`)
	c, err := GetConfig(path)
	if err != nil {
		t.Fatalf("GetConfig() error: %v", err)
	}
	if c.ServerAddress != "localhost:8888" {
		t.Fatalf("ServerAddress = %q", c.ServerAddress)
	}
	if c.DatabaseURI != "mongodb://localhost:27017" {
		t.Fatalf("DatabaseURI = %q", c.DatabaseURI)
	}
	if c.RedisURI != "redis://localhost:6379" {
		t.Fatalf("RedisURI = %q", c.RedisURI)
	}
	if c.UploadDir != "uploads" {
		t.Fatalf("UploadDir = %q", c.UploadDir)
	}
	if c.AlertCheckInterval != 5*time.Minute {
		t.Fatalf("AlertCheckInterval = %v", c.AlertCheckInterval)
	}
	if c.LogLevel != logger.LevelInfo {
		t.Fatalf("LogLevel = %v", c.LogLevel)
	}
	if c.AuthSecretKey == nil {
		t.Fatal("AuthSecretKey is nil")
	}
}

func TestGetConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server_address = "0.0.0.0:9000"
database_uri = "mongodb://db:27017"
redis_uri = "redis://cache:6379"
upload_dir = "/var/lib/librolink/uploads"
alert_check_interval = "30s"
log_level = "DEBUG"
log_to_file = true
auth_secret_key = "test-secret-key"
fcm_key = "fcm-test"
`)
	c, err := GetConfig(path)
	if err != nil {
		t.Fatalf("GetConfig() error: %v", err)
	}
	if c.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("ServerAddress = %q", c.ServerAddress)
	}
	if c.AlertCheckInterval != 30*time.Second {
		t.Fatalf("AlertCheckInterval = %v", c.AlertCheckInterval)
	}
	if c.LogLevel != logger.LevelDebug {
		t.Fatalf("LogLevel = %v", c.LogLevel)
	}
	if !c.LogToFile {
		t.Fatal("LogToFile = false")
	}
	if c.FCMKey != "fcm-test" {
		t.Fatalf("FCMKey = %q", c.FCMKey)
	}
}

func TestGetConfigMissingSecretKey(t *testing.T) {
	path := writeConfig(t, `server_address = "localhost:8888"`)
	if _, err := GetConfig(path); err == nil {
		t.Fatal("GetConfig() did not fail without auth_secret_key")
	}
}

func TestGetConfigIntervalTooShort(t *testing.T) {
	path := writeConfig(t, `
alert_check_interval = "5s"
auth_secret_key = "test-secret-key"
`)
	if _, err := GetConfig(path); err == nil {
		t.Fatal("GetConfig() did not reject a 5s alert interval")
	}
}
