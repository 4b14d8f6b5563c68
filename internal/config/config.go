package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database (accounts, system logs, postgres docstore)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret       string
	JWTAccessExpiry time.Duration

	// Session gate
	SessionIdleTimeout time.Duration

	// Document store
	DocstoreDriver  string
	DocstoreTimeout time.Duration
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	FirebaseProject string
	FirebaseCreds   string

	// Uploads
	MaxUploadBytes   int64
	SheetPreviewRows int
	BlobDriver       string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3PathStyle      bool

	// Logging
	LogFile      string
	LogRetention time.Duration

	// Server
	Port        string
	CORSOrigins string

	// Tenant registry
	TenantsConfigPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "breeza_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTAccessExpiry: parseDuration(getEnv("JWT_ACCESS_EXPIRY", "12h"), 12*time.Hour),

		SessionIdleTimeout: parseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"), 30*time.Minute),

		DocstoreDriver:  getEnv("DOCSTORE_DRIVER", "postgres"),
		DocstoreTimeout: parseDuration(getEnv("DOCSTORE_TIMEOUT", "10s"), 10*time.Second),
		SQLitePath:      getEnv("SQLITE_PATH", "data/breeza.db"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "breeza"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCreds:   getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		MaxUploadBytes:   parseInt64(getEnv("MAX_UPLOAD_BYTES", "921600"), 900*1024),
		SheetPreviewRows: int(parseInt64(getEnv("SHEET_PREVIEW_ROWS", "100"), 100)),
		BlobDriver:       getEnv("BLOB_DRIVER", "inline"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3PathStyle:      getEnv("S3_PATH_STYLE", "false") == "true",

		LogFile:      getEnv("LOG_FILE", ""),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		TenantsConfigPath: getEnv("TENANTS_CONFIG_PATH", "tenants.json"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
