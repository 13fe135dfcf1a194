// Package config reads server settings from LARDER_* environment variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/dukerupert/larder/internal/objectstore"
)

// ErrNoAuth is returned by Load when no way to verify identity tokens is set.
var ErrNoAuth = errors.New("set LARDER_AUTH_SECRET or LARDER_AUTH_PUBLIC_KEY_FILE")

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	AuthSecret        string
	AuthPublicKeyFile string
	AuthIssuer        string

	IngestProvider  string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string

	S3 objectstore.Config

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// AllowedOrigins are host patterns accepted on the WebSocket handshake
	// besides the server's own origin.
	AllowedOrigins []string
}

// Load reads the environment. It fails only when identity tokens could not
// be verified; every other subsystem is optional.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getenv("LARDER_PORT", "8080"),
		DBPath:    getenv("LARDER_DB_PATH", "larder.db"),
		LogLevel:  getenv("LARDER_LOG_LEVEL", "info"),
		LogFormat: getenv("LARDER_LOG_FORMAT", "text"),

		AuthSecret:        os.Getenv("LARDER_AUTH_SECRET"),
		AuthPublicKeyFile: os.Getenv("LARDER_AUTH_PUBLIC_KEY_FILE"),
		AuthIssuer:        os.Getenv("LARDER_AUTH_ISSUER"),

		IngestProvider:  strings.ToLower(getenv("LARDER_INGEST_PROVIDER", "anthropic")),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("LARDER_ANTHROPIC_MODEL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("LARDER_GEMINI_MODEL"),

		S3: S3(),

		VAPIDPublicKey:  os.Getenv("LARDER_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("LARDER_VAPID_PRIVATE_KEY"),
		VAPIDSubject:    os.Getenv("LARDER_VAPID_SUBJECT"),

		AllowedOrigins: splitList(os.Getenv("LARDER_ALLOWED_ORIGINS")),
	}

	if cfg.AuthSecret == "" && cfg.AuthPublicKeyFile == "" {
		return nil, ErrNoAuth
	}
	return cfg, nil
}

// S3 reads the object storage settings shared by the server and larderctl.
func S3() objectstore.Config {
	return objectstore.Config{
		Endpoint:  os.Getenv("LARDER_S3_ENDPOINT"),
		Bucket:    os.Getenv("LARDER_S3_BUCKET"),
		Region:    getenv("LARDER_S3_REGION", "auto"),
		AccessKey: os.Getenv("LARDER_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("LARDER_S3_SECRET_KEY"),
		PublicURL: os.Getenv("LARDER_S3_PUBLIC_URL"),
	}
}

// PushEnabled reports whether both VAPID keys are set.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
