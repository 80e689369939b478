package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Supabase SupabaseConfig
	Gemini   GeminiConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	MaxRequests     int
	RequestTimeout  time.Duration
	CacheExpiration time.Duration
	Environment     string
	AllowedOrigins  string
}

// DatabaseConfig points at the Supabase Postgres instance. An empty URL
// runs the data layer in memory.
type DatabaseConfig struct {
	URL string
}

type SupabaseConfig struct {
	URL string
	Key string
}

// Enabled reports whether both the endpoint and the key are set.
func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.Key != ""
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether the generative model can be called at all.
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

type KafkaConfig struct {
	Broker       string
	Topic        string
	Group        string
	RetryMax     int
	RetryBackoff time.Duration
}

// Enabled reports whether async analysis jobs are available.
func (c KafkaConfig) Enabled() bool {
	return c.Broker != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type StorageConfig struct {
	Backend       string // local, supabase or s3
	LocalDir      string
	PublicBaseURL string
	Bucket        string
	AWSRegion     string
	TTL           time.Duration
	MaxImageSize  int64
}

// DemoMode reports whether both external credentials are absent.
func (c *Config) DemoMode() bool {
	return !c.Supabase.Enabled() && !c.Gemini.Enabled()
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:            loadEnv("PORT", ":8080"),
			ShutdownTimeout: time.Duration(loadEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 5)) * time.Second,
			MaxRequests:     loadEnvAsInt("SERVER_MAX_REQUESTS", 100),
			RequestTimeout:  time.Duration(loadEnvAsInt("SERVER_REQUEST_TIMEOUT", 60)) * time.Second,
			CacheExpiration: time.Duration(loadEnvAsInt("SERVER_CACHE_EXPIRATION", 300)) * time.Second,
			Environment:     loadEnv("GO_ENV", "development"),
			AllowedOrigins:  loadEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL: loadEnv("DATABASE_URL", ""),
		},
		Supabase: SupabaseConfig{
			URL: loadEnv("SUPABASE_URL", ""),
			Key: loadEnv("SUPABASE_KEY", ""),
		},
		Gemini: GeminiConfig{
			APIKey:  loadEnv("GEMINI_API_KEY", ""),
			Model:   loadEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout: time.Duration(loadEnvAsInt("GEMINI_TIMEOUT", 60)) * time.Second,
		},
		Kafka: KafkaConfig{
			Broker:       loadEnv("KAFKA_BROKER", ""),
			Topic:        loadEnv("KAFKA_TOPIC", "analysis-jobs"),
			Group:        loadEnv("KAFKA_GROUP", "analysis-workers"),
			RetryMax:     loadEnvAsInt("KAFKA_RETRY_MAX", 3),
			RetryBackoff: time.Duration(loadEnvAsInt("KAFKA_RETRY_BACKOFF", 500)) * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     loadEnv("REDIS_ADDR", "localhost:6379"),
			Password: loadEnv("REDIS_PASSWORD", ""),
			DB:       loadEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     loadEnv("JWT_SECRET", "supersecretkey"),
			Expiration: time.Duration(loadEnvAsInt("JWT_EXPIRATION", 72)) * time.Hour,
		},
		Storage: StorageConfig{
			Backend:       loadEnv("STORAGE_BACKEND", "local"),
			LocalDir:      loadEnv("STORAGE_LOCAL_DIR", "/tmp/glowup"),
			PublicBaseURL: loadEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			Bucket:        loadEnv("STORAGE_BUCKET", "glow-up-images"),
			AWSRegion:     loadEnv("AWS_REGION", "us-east-1"),
			TTL:           time.Duration(loadEnvAsInt("STORAGE_TTL", 86400)) * time.Second, // 24h
			MaxImageSize:  loadEnvAsInt64("STORAGE_MAX_IMAGE_SIZE", 5242880),             // 5MB
		},
	}
}

func loadEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func loadEnvAsInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func loadEnvAsInt64(key string, defaultVal int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}
