package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Document store backends.
const (
	DocumentStorePostgres = "postgres"
	DocumentStoreMongo    = "mongo"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Speech    SpeechConfig
	Render    RenderConfig
	RateLimit RateLimitConfig
	// DocumentStore selects where video records and drafts live: "postgres" (default) or "mongo".
	DocumentStore string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/draftcast?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig holds MongoDB settings (used when DOCUMENT_STORE=mongo).
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds bearer token validation settings. Empty secret disables verification.
type JWTConfig struct {
	Secret string
}

// AWSConfig holds AWS credentials and the bucket receiving generated audio and video.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	AssetsBucket    string
	AssetsPrefix    string
}

// SpeechConfig holds ElevenLabs text-to-speech settings.
type SpeechConfig struct {
	APIURL       string
	APIKey       string
	VoiceID      string
	ModelID      string
	OutputFormat string // mono, medium bitrate MP3
}

// RenderConfig holds slideshow renderer settings.
type RenderConfig struct {
	FFmpegPath  string // render engine entry point
	Concurrency int
	ScratchDir  string // parent of per-request scratch dirs; empty = os.TempDir()
	TimeoutSec  int    // 0 = no deadline on the compose stage
}

// RateLimitConfig bounds /video/generate calls per user.
type RateLimitConfig struct {
	Max       int // 0 disables
	WindowSec int
}

// Error lists required settings that are missing or invalid.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return "config: missing or invalid " + strings.Join(e.Missing, ", ")
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 300),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "draftcast"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "draftcast"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			AssetsBucket:    getEnv("VIDEO_ASSETS_BUCKET", ""),
			AssetsPrefix:    getEnv("VIDEO_ASSETS_PREFIX", "generated-videos"),
		},
		Speech: SpeechConfig{
			APIURL:       getEnv("ELEVENLABS_API_URL", "https://api.elevenlabs.io/v1"),
			APIKey:       getEnv("ELEVENLABS_API_KEY", ""),
			VoiceID:      getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
			ModelID:      getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
			OutputFormat: getEnv("ELEVENLABS_OUTPUT_FORMAT", "mp3_22050_32"),
		},
		Render: RenderConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			Concurrency: getEnvInt("RENDER_CONCURRENCY", 2),
			ScratchDir:  getEnv("RENDER_SCRATCH_DIR", ""),
			TimeoutSec:  getEnvInt("RENDER_TIMEOUT_SEC", 0),
		},
		RateLimit: RateLimitConfig{
			Max:       getEnvInt("RATE_LIMIT_MAX", 5),
			WindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		},
		DocumentStore: strings.ToLower(getEnv("DOCUMENT_STORE", DocumentStorePostgres)),
	}
	return cfg, cfg.Validate()
}

// Validate reports every required setting that is absent so startup fails before serving traffic.
func (c *Config) Validate() error {
	var missing []string
	if c.AWS.AssetsBucket == "" {
		missing = append(missing, "VIDEO_ASSETS_BUCKET")
	}
	if c.AWS.Region == "" {
		missing = append(missing, "AWS_REGION")
	}
	if c.Speech.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if c.Render.FFmpegPath == "" {
		missing = append(missing, "FFMPEG_PATH")
	}
	if c.Render.Concurrency < 1 {
		missing = append(missing, "RENDER_CONCURRENCY")
	}
	switch c.DocumentStore {
	case DocumentStorePostgres:
	case DocumentStoreMongo:
		if c.Mongo.URI == "" {
			missing = append(missing, "MONGODB_URI")
		}
	default:
		missing = append(missing, "DOCUMENT_STORE")
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
