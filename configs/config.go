// config.go - Configuration loaded from environment variables

package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model providers understood by the gateway factory
const (
	ProviderVertex  = "vertex"
	ProviderGemini  = "gemini"
	ProviderMistral = "mistral"
)

// Country configuration sources
const (
	CountrySourceFile    = "file"
	CountrySourceMongoDB = "mongodb"
)

// Config holds every setting the gateway reads at startup.
// It is built once by Load and passed to the components that need it.
type Config struct {
	// Server Configuration
	Port           string
	GinMode        string
	AllowedOrigins string
	MaxUploadMB    int

	// Model Gateway Configuration
	ModelProvider    string
	GCPProjectID     string
	GCPRegion        string
	ModelName        string
	GeminiAPIKey     string
	MistralAPIKey    string
	MistralModelName string
	ModelMaxAttempts int
	ModelTimeout     time.Duration

	// Country configuration
	CountryConfigSource string
	CountryConfigFile   string
	MongoURI            string
	MongoDBName         string
	MongoCollection     string

	// Input normalization
	EnableImagePreprocessing bool
	MaxImageDimension        int
	PDFRenderDPI             int
	PdftoppmPath             string
}

// Load reads configuration from environment variables (and a local .env file if present).
func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", ""),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 20),

		ModelProvider:    strings.ToLower(getEnv("MODEL_PROVIDER", ProviderVertex)),
		GCPProjectID:     getEnv("GCP_PROJECT_ID", ""),
		GCPRegion:        getEnv("GCP_REGION", "us-central1"),
		ModelName:        getEnv("MODEL_NAME", "gemini-2.0-flash-001"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		MistralAPIKey:    getEnv("MISTRAL_API_KEY", ""),
		MistralModelName: getEnv("MISTRAL_MODEL_NAME", "pixtral-12b-2409"),
		ModelMaxAttempts: getEnvInt("MODEL_MAX_ATTEMPTS", 1),
		ModelTimeout:     getEnvDuration("MODEL_TIMEOUT", 120*time.Second),

		CountryConfigSource: strings.ToLower(getEnv("COUNTRY_CONFIG_SOURCE", CountrySourceFile)),
		CountryConfigFile:   getEnv("COUNTRY_CONFIG_FILE", "configs/country_config.json"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:         getEnv("MONGO_DB_NAME", "document_gateway"),
		MongoCollection:     getEnv("MONGO_COUNTRY_COLLECTION", "country_configs"),

		EnableImagePreprocessing: getEnvBool("ENABLE_IMAGE_PREPROCESSING", false),
		MaxImageDimension:        getEnvInt("MAX_IMAGE_DIMENSION", 2500),
		PDFRenderDPI:             getEnvInt("PDF_RENDER_DPI", 150),
		PdftoppmPath:             getEnv("PDFTOPPM_PATH", "pdftoppm"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Println("✓ Configuration loaded successfully")
	return cfg, nil
}

// Validate checks the settings that must be present before traffic is accepted.
func (c *Config) Validate() error {
	switch c.ModelProvider {
	case ProviderVertex:
		// Required: the project the Vertex AI calls are billed to
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID environment variable is required for provider %q", ProviderVertex)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required for provider %q", ProviderGemini)
		}
	case ProviderMistral:
		if c.MistralAPIKey == "" {
			return fmt.Errorf("MISTRAL_API_KEY environment variable is required for provider %q", ProviderMistral)
		}
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER: %s (supported: vertex, gemini, mistral)", c.ModelProvider)
	}

	switch c.CountryConfigSource {
	case CountrySourceFile, CountrySourceMongoDB:
	default:
		return fmt.Errorf("unsupported COUNTRY_CONFIG_SOURCE: %s (supported: file, mongodb)", c.CountryConfigSource)
	}

	if c.ModelMaxAttempts < 1 {
		c.ModelMaxAttempts = 1
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		// Plain integers are read as seconds, like the old *_TIMEOUT settings
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
