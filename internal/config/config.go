// Package config builds the immutable runtime configuration of the API.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is constructed once at startup and passed by reference.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Owner     OwnerConfig     `yaml:"owner"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Chat      ChatConfig      `yaml:"chat"`
	Media     MediaConfig     `yaml:"media"`
	Mail      MailConfig      `yaml:"mail"`

	PortfolioDataPath string `yaml:"portfolio_data_path"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	GRPCHealthPort int      `yaml:"grpc_health_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	BodyLimit      string   `yaml:"body_limit"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// OwnerConfig holds the owner passkey and session settings.
type OwnerConfig struct {
	Passkey     string        `yaml:"passkey"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	Pepper      string        `yaml:"pepper"`
	DisplayName string        `yaml:"display_name"`
}

// RateLimitConfig expresses every limit as requests per minute.
type RateLimitConfig struct {
	GlobalPerMinute int `yaml:"global_per_minute"`
	GlobalBurst     int `yaml:"global_burst"`
	ChatPerMinute   int `yaml:"chat_per_minute"`
	LoginPerMinute  int `yaml:"login_per_minute"`
}

type ChatConfig struct {
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	Temperature  float32       `yaml:"temperature"`
	MaxTokens    int32         `yaml:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
	HistoryLimit int           `yaml:"history_limit"`
}

type MediaConfig struct {
	CloudName string        `yaml:"cloud_name"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Enabled reports whether all media host credentials are present.
func (m MediaConfig) Enabled() bool {
	return m.CloudName != "" && m.APIKey != "" && m.APISecret != ""
}

type MailConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	To       string        `yaml:"to"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether outbound notification mail can be sent.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Port > 0 && m.User != "" && m.Password != "" && m.To != ""
}

const defaultSystemPrompt = "You are a helpful assistant on a developer's portfolio website. " +
	"Answer questions about their skills, experience and projects concisely."

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Environment: "production",
		LogLevel:    "info",
		Server: ServerConfig{
			Port: 5000,
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
				"http://localhost:3000",
			},
			BodyLimit: "10M",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://127.0.0.1:27017/portfolio",
			Database: "portfolio",
		},
		Owner: OwnerConfig{
			SessionTTL:  168 * time.Hour,
			DisplayName: "Owner",
		},
		RateLimit: RateLimitConfig{
			// 100 requests per 15 minutes
			GlobalPerMinute: 7,
			GlobalBurst:     100,
			ChatPerMinute:   10,
			LoginPerMinute:  10,
		},
		Chat: ChatConfig{
			Model:        "gemini-2.0-flash",
			Temperature:  0.7,
			MaxTokens:    500,
			Timeout:      30 * time.Second,
			SystemPrompt: defaultSystemPrompt,
			HistoryLimit: 10,
		},
		Media: MediaConfig{Timeout: 15 * time.Second},
		Mail:  MailConfig{Timeout: 10 * time.Second},

		PortfolioDataPath: "data/portfolio.json",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// process environment, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	seconds := func(key string, dst *time.Duration) {
		var n int
		num(key, &n)
		if n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}

	str("ENVIRONMENT", &cfg.Environment)
	str("LOG_LEVEL", &cfg.LogLevel)

	num("PORT", &cfg.Server.Port)
	num("GRPC_HEALTH_PORT", &cfg.Server.GRPCHealthPort)
	if v, ok := lookup("FRONTEND_URL"); ok {
		if origins := splitList(v); len(origins) > 0 {
			cfg.Server.AllowedOrigins = origins
		}
	}

	str("MONGODB_URI", &cfg.Mongo.URI)
	str("MONGODB_DATABASE", &cfg.Mongo.Database)

	str("OWNER_PASSKEY", &cfg.Owner.Passkey)
	str("OWNER_SESSION_PEPPER", &cfg.Owner.Pepper)
	str("OWNER_DISPLAY_NAME", &cfg.Owner.DisplayName)
	var ttlHours int
	num("OWNER_SESSION_TTL_HOURS", &ttlHours)
	if ttlHours > 0 {
		cfg.Owner.SessionTTL = time.Duration(ttlHours) * time.Hour
	}

	var windowMS, maxRequests int
	num("RATE_LIMIT_WINDOW_MS", &windowMS)
	num("RATE_LIMIT_MAX_REQUESTS", &maxRequests)
	if windowMS > 0 || maxRequests > 0 {
		if windowMS <= 0 {
			windowMS = 15 * 60 * 1000
		}
		if maxRequests <= 0 {
			maxRequests = 100
		}
		cfg.RateLimit.GlobalBurst = maxRequests
		cfg.RateLimit.GlobalPerMinute = perMinute(maxRequests, time.Duration(windowMS)*time.Millisecond)
	}
	num("CHAT_RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.ChatPerMinute)
	num("LOGIN_RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.LoginPerMinute)

	str("GEMINI_API_KEY", &cfg.Chat.APIKey)
	str("AI_MODEL", &cfg.Chat.Model)
	str("AI_SYSTEM_PROMPT", &cfg.Chat.SystemPrompt)
	if v, ok := lookup("AI_TEMPERATURE"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 32); err == nil && f >= 0 {
			cfg.Chat.Temperature = float32(f)
		}
	}
	var maxTokens int
	num("AI_MAX_TOKENS", &maxTokens)
	if maxTokens > 0 {
		cfg.Chat.MaxTokens = int32(maxTokens)
	}
	seconds("AI_TIMEOUT_SECONDS", &cfg.Chat.Timeout)

	str("CLOUDINARY_CLOUD_NAME", &cfg.Media.CloudName)
	str("CLOUDINARY_API_KEY", &cfg.Media.APIKey)
	str("CLOUDINARY_API_SECRET", &cfg.Media.APISecret)
	seconds("MEDIA_TIMEOUT_SECONDS", &cfg.Media.Timeout)

	str("EMAIL_HOST", &cfg.Mail.Host)
	num("EMAIL_PORT", &cfg.Mail.Port)
	str("EMAIL_USER", &cfg.Mail.User)
	str("EMAIL_PASSWORD", &cfg.Mail.Password)
	str("EMAIL_TO", &cfg.Mail.To)
	seconds("MAIL_TIMEOUT_SECONDS", &cfg.Mail.Timeout)

	str("PORTFOLIO_DATA_PATH", &cfg.PortfolioDataPath)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("mongo uri must be set")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo database must be set")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Owner.SessionTTL <= 0 {
		return errors.New("owner session ttl must be positive")
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 10
	}
	return nil
}

// perMinute converts "max requests per window" into a per-minute refill rate,
// never less than one.
func perMinute(max int, window time.Duration) int {
	n := int(float64(max) / window.Minutes())
	if n < 1 {
		return 1
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
