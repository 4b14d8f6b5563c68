package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "")
	t.Setenv("DOCSTORE_DRIVER", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("LOG_RETENTION", "")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "postgres", cfg.DocstoreDriver)
	assert.Equal(t, int64(900*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 100, cfg.SheetPreviewRows)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.LogRetention)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("DOCSTORE_DRIVER", "sqlite")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("LOG_RETENTION", "168h")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "sqlite", cfg.DocstoreDriver)
	assert.True(t, cfg.S3PathStyle)
	assert.Equal(t, 7*24*time.Hour, cfg.LogRetention)
}

func TestParseFallbacks(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("garbage", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, int64(7), parseInt64("abc", 7))
	assert.Equal(t, int64(7), parseInt64("0", 7))
	assert.Equal(t, int64(42), parseInt64("42", 7))
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
