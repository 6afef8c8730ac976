// Package config provides centralized default values for the wireviz plugin backend
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

// loadEnvFile applies .env overrides without clobbering the real environment
func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

// getEnvSecret behaves like getEnvString but never logs the value
func getEnvSecret(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		log.Printf("Config override: %s=****", key)
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	log.Printf("Config override: %s=%s", key, strings.Join(out, ","))
	return out
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	AllowedOrigins     []string
	MaxUploadBytes     int

	// Storage
	MediaRoot   string
	WirevizPath string
	HarnessPath string

	// Diagram previews
	PreviewWidth   int
	PreviewQuality int

	// Plugin settings defaults (persisted values take precedence)
	ExtractBOM    bool
	PartURLPrefix string

	// Database
	DBDriver                 string
	DatabaseURL              string
	DatabaseAuthToken        string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Auth
	JWTSecret      string
	AdminPassword  string
	EditorPassword string
	TokenTTL       time.Duration

	// Rendering
	Renderer      string
	WirevizBinary string
	DotBinary     string
	RenderTimeout time.Duration

	// Context cache
	CacheBackend    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ContextCacheTTL time.Duration

	CacheCleanupInterval time.Duration
	CacheCleanupVerbose  bool

	// Realtime
	HubPingInterval time.Duration

	// Logging
	LogDirectory  string
	LogToFile     bool
	LogJSONFormat bool
	LogLevel      string
	LogStream     bool
)

func init() {
	loadEnvFile()
	Load()
}

// Load (re)reads every setting from the environment
func Load() {
	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	AllowedOrigins = getEnvList("ALLOWED_ORIGINS", []string{
		"http://localhost:8000",
		"http://127.0.0.1:8000",
		"http://localhost:5173",
		"http://[::1]:8000",
	})
	MaxUploadBytes = getEnvInt("MAX_UPLOAD_BYTES", 10<<20)

	// Storage
	MediaRoot = getEnvString("MEDIA_ROOT", "media")
	WirevizPath = getEnvString("WIREVIZ_PATH", "wireviz")
	HarnessPath = getEnvString("HARNESS_PATH", "harness")

	// Diagram previews
	PreviewWidth = getEnvInt("PREVIEW_WIDTH", 600)
	PreviewQuality = getEnvInt("PREVIEW_QUALITY", 85)

	// Plugin settings
	ExtractBOM = getEnvBool("EXTRACT_BOM", true)
	PartURLPrefix = getEnvString("PART_URL_PREFIX", "/part/")

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DatabaseURL = getEnvString("DATABASE_URL", "wireviz.db")
	DatabaseAuthToken = getEnvSecret("DATABASE_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Auth
	JWTSecret = getEnvSecret("JWT_SECRET", "")
	AdminPassword = getEnvSecret("ADMIN_PASSWORD", "")
	EditorPassword = getEnvSecret("EDITOR_PASSWORD", "")
	TokenTTL = time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour

	// Rendering
	Renderer = getEnvString("RENDERER", "auto")
	WirevizBinary = getEnvString("WIREVIZ_BIN", "wireviz")
	DotBinary = getEnvString("DOT_BIN", "dot")
	RenderTimeout = getEnvDuration("RENDER_TIMEOUT", 30*time.Second)

	// Context cache
	CacheBackend = getEnvString("CACHE_BACKEND", "memory")
	RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	RedisPassword = getEnvSecret("REDIS_PASSWORD", "")
	RedisDB = getEnvInt("REDIS_DB", 0)
	ContextCacheTTL = time.Duration(getEnvInt("CONTEXT_CACHE_TTL_MINUTES", 10)) * time.Minute
	CacheCleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute)
	CacheCleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", false)

	// Realtime
	HubPingInterval = time.Duration(getEnvInt("HUB_PING_INTERVAL_SECONDS", 30)) * time.Second

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogJSONFormat = getEnvBool("LOG_JSON", true)
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogStream = getEnvBool("LOG_STREAM", true)
}
