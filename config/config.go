package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-dq/internal/logger"
	"github.com/joho/godotenv"
)

var (
	customLog = logger.NewLogger()
)

// DefaultEntityNamePattern mirrors the catalog's shared naming convention:
// word characters, spaces and a small set of punctuation, 1-128 characters.
const DefaultEntityNamePattern = `^[\w\s\-.'&()]{1,128}$`

// Config holds application configuration values
type Config struct {
	ServerPort     string
	MetadataDbDir  string
	MetadataDbFile string

	// Remote catalog. When CatalogURL is empty the local sqlite catalog is used.
	CatalogURL     string
	CatalogToken   string
	CatalogTimeout time.Duration

	EntityNamePattern  string
	PageSizeLarge      int
	RateLimitPerMinute int
	CORSAllowedOrigins []string

	// Open forms idle longer than this are swept.
	FormIdleTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	// Attempt to load .env file if in development environment (skip in production)
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", "8080")
	dbDir := getEnv("DATABASE_DIRECTORY", "data")
	dbFile := getEnv("DATABASE_DIRECTORY_FILE", "catalog.db")
	catalogURL := strings.TrimRight(getEnv("CATALOG_URL", ""), "/")
	catalogToken := getEnv("CATALOG_TOKEN", "")
	namePattern := getEnv("ENTITY_NAME_PATTERN", DefaultEntityNamePattern)
	origins := splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	// --- Validation and Parsing ---
	if catalogToken != "" && catalogURL == "" {
		return nil, errors.New("CATALOG_TOKEN is set but CATALOG_URL is empty")
	}

	cfg := &Config{
		ServerPort:         strings.TrimPrefix(port, ":"),
		MetadataDbDir:      dbDir,
		MetadataDbFile:     dbFile,
		CatalogURL:         catalogURL,
		CatalogToken:       catalogToken,
		CatalogTimeout:     time.Duration(getPositiveInt("CATALOG_TIMEOUT_SECONDS", 15)) * time.Second,
		EntityNamePattern:  namePattern,
		PageSizeLarge:      getPositiveInt("PAGE_SIZE_LARGE", 100),
		RateLimitPerMinute: getPositiveInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: origins,
		FormIdleTimeout:    time.Duration(getPositiveInt("FORM_IDLE_MINUTES", 30)) * time.Minute,
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, Remote catalog: %t", cfg.ServerPort, cfg.UsesRemoteCatalog())
	return cfg, nil
}

// UsesRemoteCatalog reports whether reference data comes from a remote catalog API.
func (c *Config) UsesRemoteCatalog() bool {
	return c.CatalogURL != ""
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getPositiveInt parses an integer variable, falling back on bad or non-positive input.
func getPositiveInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		customLog.Warnf("Invalid %s '%s'. Using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
