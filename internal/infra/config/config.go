package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Gateway GatewayConfig `yaml:"gateway"`
	Card    CardConfig    `yaml:"card"`
	Storage StorageConfig `yaml:"storage"`
	Geocode GeocodeConfig `yaml:"geocode"`
	Meta    MetaConfig    `yaml:"meta"`
	Audit   AuditConfig   `yaml:"audit"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// GatewayConfig contains AI gateway connection settings.
type GatewayConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	APIKey     string `yaml:"apiKey"`
	ImageModel string `yaml:"imageModel"`
	TextModel  string `yaml:"textModel"`
}

// CardConfig controls the weather card domain.
type CardConfig struct {
	PromptVersion string        `yaml:"promptVersion"`
	Enrichment    bool          `yaml:"enrichment"`
	CDNBaseURL    string        `yaml:"cdnBaseUrl"`
	AspectRatio   string        `yaml:"aspectRatio"`
	ImageSize     string        `yaml:"imageSize"`
	NormalizeWebP bool          `yaml:"normalizeWebp"`
	MetaTTL       time.Duration `yaml:"metaTtl"`
}

// StorageConfig contains R2/S3 credentials for the card bucket.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// GeocodeConfig controls the reverse geocoding proxy.
type GeocodeConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	UserAgent string `yaml:"userAgent"`
	Zoom      int    `yaml:"zoom"`
}

// MetaConfig controls the card descriptor cache backend.
type MetaConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the descriptor store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AuditConfig contains DSN and pooling settings for the generation log.
type AuditConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from .env, a YAML file, and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("GATEWAY_IMAGE_MODEL"); v != "" {
		cfg.Gateway.ImageModel = v
	}
	if v := os.Getenv("GATEWAY_TEXT_MODEL"); v != "" {
		cfg.Gateway.TextModel = v
	}
	if v := os.Getenv("CARD_PROMPT_VERSION"); v != "" {
		cfg.Card.PromptVersion = strings.TrimSpace(v)
	}
	if v := os.Getenv("CARD_ENRICHMENT"); v != "" {
		cfg.Card.Enrichment = isTruthy(v)
	}
	if v := os.Getenv("CARD_CDN_BASE_URL"); v != "" {
		cfg.Card.CDNBaseURL = v
	}
	if v := os.Getenv("CARD_ASPECT_RATIO"); v != "" {
		cfg.Card.AspectRatio = v
	}
	if v := os.Getenv("CARD_IMAGE_SIZE"); v != "" {
		cfg.Card.ImageSize = v
	}
	if v := os.Getenv("CARD_NORMALIZE_WEBP"); v != "" {
		cfg.Card.NormalizeWebP = isTruthy(v)
	}
	if v := os.Getenv("CARD_META_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Card.MetaTTL = parsed
		}
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("GEOCODE_BASE_URL"); v != "" {
		cfg.Geocode.BaseURL = v
	}
	if v := os.Getenv("GEOCODE_USER_AGENT"); v != "" {
		cfg.Geocode.UserAgent = v
	}
	if v := os.Getenv("GEOCODE_ZOOM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Geocode.Zoom = parsed
		}
	}
	if v := os.Getenv("META_VALKEY_ENABLED"); v != "" {
		cfg.Meta.Valkey.Enabled = isTruthy(v)
	}
	if v := os.Getenv("META_VALKEY_ADDR"); v != "" {
		cfg.Meta.Valkey.Addr = v
	}
	if v := os.Getenv("AUDIT_POSTGRES_DSN"); v != "" {
		cfg.Audit.Postgres.DSN = v
	}
	if v := os.Getenv("AUDIT_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Audit.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("AUDIT_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Audit.Postgres.MinConns = int32(parsed)
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Gateway: GatewayConfig{
			BaseURL:    "https://generativelanguage.googleapis.com",
			ImageModel: "gemini-3.1-flash-image-preview",
			TextModel:  "gemini-3.1-flash",
		},
		Card: CardConfig{
			PromptVersion: "v2",
			Enrichment:    true,
			CDNBaseURL:    "https://card-r2.undownding.dev",
			AspectRatio:   "1:1",
			ImageSize:     "2k",
			NormalizeWebP: true,
			MetaTTL:       48 * time.Hour,
		},
		Storage: StorageConfig{
			Bucket: "weather-cards",
			Region: "auto",
		},
		Geocode: GeocodeConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "city-card/1.0 (contact: support@city-card.local)",
			Zoom:      10,
		},
		Meta: MetaConfig{
			Valkey: ValkeyConfig{
				Enabled: false,
				Addr:    "",
			},
		},
		Audit: AuditConfig{
			Postgres: PostgresConfig{
				DSN:      "",
				MaxConns: 4,
				MinConns: 0,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.baseUrl cannot be empty")
	}
	if c.Gateway.ImageModel == "" {
		return errors.New("gateway.imageModel cannot be empty")
	}
	if c.Card.Enrichment && c.Gateway.TextModel == "" {
		return errors.New("gateway.textModel cannot be empty when card.enrichment is on")
	}
	if c.Card.CDNBaseURL == "" {
		return errors.New("card.cdnBaseUrl cannot be empty")
	}
	if strings.Contains(c.Card.PromptVersion, "/") {
		return errors.New("card.promptVersion cannot contain '/'")
	}
	if c.Card.MetaTTL < 0 {
		return errors.New("card.metaTtl cannot be negative")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket cannot be empty")
	}
	if c.Geocode.BaseURL == "" {
		return errors.New("geocode.baseUrl cannot be empty")
	}
	if c.Geocode.Zoom <= 0 {
		return errors.New("geocode.zoom must be positive")
	}
	if c.Meta.Valkey.Enabled && strings.TrimSpace(c.Meta.Valkey.Addr) == "" {
		return errors.New("meta.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if clean := strings.TrimSpace(p); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
