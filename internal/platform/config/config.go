package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. It is built once at process start
// and passed by reference into each component; business logic never reads the
// environment directly.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	CORSOrigin   string

	// Token config. Access and refresh tokens use distinct secrets and TTLs.
	JWTIssuer                  string
	AccessTokenSecret          string
	AccessTokenExpiryDuration  time.Duration
	RefreshTokenSecret         string
	RefreshTokenExpiryDuration time.Duration
	AccessTokenCookieName      string
	RefreshTokenCookieName     string
	CookieDomain               string

	// Media store (S3-compatible) config.
	MediaS3Region      string
	MediaS3Endpoint    string
	MediaS3Bucket      string
	MediaS3AccessKey   string
	MediaS3SecretKey   string
	MediaPublicBaseURL string
	TempUploadDir      string

	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	viper.SetDefault("JWT_ISSUER", "vidstream-backend")
	viper.SetDefault("ACCESS_TOKEN_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("ACCESS_TOKEN_EXPIRY_DURATION", "15m")
	viper.SetDefault("REFRESH_TOKEN_SECRET", "default_insecure_refresh_secret_please_change_this_!@#$")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "240h")
	viper.SetDefault("ACCESS_TOKEN_COOKIE_NAME", "accessToken")
	viper.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "refreshToken")
	viper.SetDefault("COOKIE_DOMAIN", "")
	viper.SetDefault("MEDIA_S3_REGION", "us-east-1")
	viper.SetDefault("MEDIA_S3_ENDPOINT", "")
	viper.SetDefault("MEDIA_S3_BUCKET", "vidstream-media")
	viper.SetDefault("MEDIA_S3_ACCESS_KEY", "")
	viper.SetDefault("MEDIA_S3_SECRET_KEY", "")
	viper.SetDefault("MEDIA_PUBLIC_BASE_URL", "")
	viper.SetDefault("TEMP_UPLOAD_DIR", "./public/temp")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	accessExpiryStr := viper.GetString("ACCESS_TOKEN_EXPIRY_DURATION")
	accessExpiry, err := time.ParseDuration(accessExpiryStr)
	if err != nil {
		accessExpiry = 15 * time.Minute
		log.Printf("Warning: Invalid value for ACCESS_TOKEN_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", accessExpiryStr, accessExpiry)
	}

	refreshExpiryStr := viper.GetString("REFRESH_TOKEN_EXPIRY_DURATION")
	refreshExpiry, err := time.ParseDuration(refreshExpiryStr)
	if err != nil {
		refreshExpiry = 10 * 24 * time.Hour
		log.Printf("Warning: Invalid value for REFRESH_TOKEN_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", refreshExpiryStr, refreshExpiry)
	}

	if viper.GetString("ACCESS_TOKEN_SECRET") == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: ACCESS_TOKEN_SECRET not set. Using default insecure key.")
	}
	if viper.GetString("REFRESH_TOKEN_SECRET") == "default_insecure_refresh_secret_please_change_this_!@#$" {
		log.Println("Warning: REFRESH_TOKEN_SECRET not set. Using default insecure key.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.CORSOrigin = viper.GetString("CORS_ORIGIN")
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.AccessTokenSecret = viper.GetString("ACCESS_TOKEN_SECRET")
	cfg.AccessTokenExpiryDuration = accessExpiry
	cfg.RefreshTokenSecret = viper.GetString("REFRESH_TOKEN_SECRET")
	cfg.RefreshTokenExpiryDuration = refreshExpiry
	cfg.AccessTokenCookieName = viper.GetString("ACCESS_TOKEN_COOKIE_NAME")
	cfg.RefreshTokenCookieName = viper.GetString("REFRESH_TOKEN_COOKIE_NAME")
	cfg.CookieDomain = viper.GetString("COOKIE_DOMAIN")

	cfg.MediaS3Region = viper.GetString("MEDIA_S3_REGION")
	cfg.MediaS3Endpoint = viper.GetString("MEDIA_S3_ENDPOINT")
	cfg.MediaS3Bucket = viper.GetString("MEDIA_S3_BUCKET")
	cfg.MediaS3AccessKey = viper.GetString("MEDIA_S3_ACCESS_KEY")
	cfg.MediaS3SecretKey = viper.GetString("MEDIA_S3_SECRET_KEY")
	cfg.MediaPublicBaseURL = viper.GetString("MEDIA_PUBLIC_BASE_URL")
	cfg.TempUploadDir = viper.GetString("TEMP_UPLOAD_DIR")

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	if cfg.MediaS3AccessKey == "" || cfg.MediaS3SecretKey == "" {
		log.Println("Warning: MEDIA_S3_ACCESS_KEY / MEDIA_S3_SECRET_KEY not set. Media uploads will not function.")
	}

	return cfg, nil
}
