package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Case store and archive driver names accepted by Load.
const (
	StoreDriverFile = "file"
	StoreDriverS3   = "s3"

	ArchiveDriverOff        = "off"
	ArchiveDriverLocal      = "local"
	ArchiveDriverS3         = "s3"
	ArchiveDriverCloudinary = "cloudinary"

	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	AllowedOrigins string

	CaseStoreDriver string
	DataDir         string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	ArchiveDriver       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	MaxUploadMB int

	AIProvider   string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	RedisURL string
	NATSURL  string

	JWTSecret string

	StatsCacheTTL time.Duration

	SeedEnabled bool
	SeedToken   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// NeedsS3 reports whether any configured driver requires an S3 client.
func (c Config) NeedsS3() bool {
	return c.CaseStoreDriver == StoreDriverS3 || c.ArchiveDriver == ArchiveDriverS3
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AIJUDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "AI Judge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("case_store.driver", StoreDriverFile)
	v.SetDefault("data.dir", "./data")
	v.SetDefault("archive.driver", ArchiveDriverOff)
	v.SetDefault("cloudinary.folder", "aijudge/documents")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("ai.provider", AIProviderOpenAI)
	v.SetDefault("stats.cache_ttl", "2m")

	ttlString := v.GetString("stats.cache_ttl")
	if ttlString == "" {
		ttlString = "2m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		AllowedOrigins: v.GetString("cors.allowed_origins"),

		CaseStoreDriver: strings.ToLower(v.GetString("case_store.driver")),
		DataDir:         v.GetString("data.dir"),

		S3Region:    v.GetString("s3.region"),
		S3Bucket:    v.GetString("s3.bucket"),
		S3AccessKey: v.GetString("s3.access_key"),
		S3SecretKey: v.GetString("s3.secret_key"),

		ArchiveDriver:       strings.ToLower(v.GetString("archive.driver")),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),

		MaxUploadMB: v.GetInt("max_upload_mb"),

		AIProvider:   strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey: v.GetString("openai_api_key"),
		OpenAIModel:  v.GetString("openai_model"),
		GeminiAPIKey: v.GetString("gemini_api_key"),
		GeminiModel:  v.GetString("gemini_model"),

		RedisURL: v.GetString("redis.url"),
		NATSURL:  v.GetString("nats.url"),

		JWTSecret: v.GetString("jwt.secret"),

		StatsCacheTTL: ttl,

		SeedEnabled: v.GetBool("seed.enabled"),
		SeedToken:   v.GetString("seed.token"),
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}

	switch cfg.CaseStoreDriver {
	case StoreDriverFile, StoreDriverS3:
	default:
		return Config{}, fmt.Errorf("unknown case store driver %q", cfg.CaseStoreDriver)
	}

	switch cfg.ArchiveDriver {
	case ArchiveDriverOff, ArchiveDriverLocal, ArchiveDriverS3, ArchiveDriverCloudinary:
	default:
		return Config{}, fmt.Errorf("unknown archive driver %q", cfg.ArchiveDriver)
	}

	switch cfg.AIProvider {
	case AIProviderOpenAI, AIProviderGemini:
	default:
		return Config{}, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}

	if cfg.NeedsS3() && cfg.S3Bucket == "" {
		return Config{}, fmt.Errorf("s3 bucket must be provided for driver %q", StoreDriverS3)
	}

	return cfg, nil
}
