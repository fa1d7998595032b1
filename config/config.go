package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage providers accepted by STORAGE_PROVIDER
const (
	StorageNone  = "none"
	StorageS3    = "s3"
	StorageMinio = "minio"
)

type Config struct {
	Port               string
	GinMode            string
	DBUrl              string
	FrontendURL        string
	CORSAllowedOrigins []string
	// SMTP Configuration (team notifications)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	NotifyEmailTo string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitSubmitThreshold int
	// Blob storage for audit documentation
	StorageProvider    string
	S3Endpoint         string
	S3Region           string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3Bucket           string
	S3PublicBaseURL    string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MinioPublicBaseURL string
	// Antivirus (empty disables scanning)
	ClamAVAddress string
	// Logging
	LogLevel       string
	LogDevelopment bool
	LogFile        string
	// Request limits
	MaxMultipartBytes int64
	MaxJSONBytes      int64
}

func LoadConfig() (*Config, error) {
	// Load .env file (only present locally)
	_ = godotenv.Load()

	frontendURL := strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		DBUrl:              getEnv("DATABASE_URL", ""),
		FrontendURL:        frontendURL,
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{frontendURL}),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM_EMAIL", ""),
		NotifyEmailTo: getEnv("NOTIFY_EMAIL_TO", ""),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),  // 1 minute window
		RateLimitSubmitThreshold: getEnvInt("RATE_LIMIT_SUBMIT_THRESHOLD", 5), // 5 submissions per window
		// Blob storage
		StorageProvider:    strings.ToLower(getEnv("STORAGE_PROVIDER", StorageNone)),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3PublicBaseURL:    strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getEnv("MINIO_BUCKET", "audit-documents"),
		MinioUseSSL:        getEnvBool("MINIO_USE_SSL", false),
		MinioPublicBaseURL: strings.TrimRight(getEnv("MINIO_PUBLIC_BASE_URL", ""), "/"),
		// Antivirus
		ClamAVAddress: getEnv("CLAMAV_ADDRESS", ""),
		// Logging
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),
		LogFile:        getEnv("LOG_FILE", ""),
		// Request limits
		MaxMultipartBytes: int64(getEnvInt("MAX_MULTIPART_BYTES", 25<<20)),
		MaxJSONBytes:      int64(getEnvInt("MAX_JSON_BYTES", 1<<20)),
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Submissions will only be logged.")
	}

	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	switch cfg.StorageProvider {
	case StorageNone, StorageS3, StorageMinio:
	default:
		log.Printf("WARNING: unknown STORAGE_PROVIDER %q, attachments are disabled", cfg.StorageProvider)
		cfg.StorageProvider = StorageNone
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks and trailing slashes
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimRight(strings.TrimSpace(item), "/"); item != "" {
			out = append(out, item)
		}
	}
	return out
}
