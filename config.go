package studycompanion

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Log       LogConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string // debug | release
}

type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	StrictQuiz    bool          `mapstructure:"strict_quiz"`
}

// APIKey returns the key for the configured provider.
func (c AIConfig) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	LLMFile    string `mapstructure:"llm_file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// LoadConfig reads config.yaml from path if present, then applies STUDY_*
// environment variables and the well-known provider variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("STUDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.BindEnv("server.port", "STUDY_SERVER_PORT", "PORT")
	v.BindEnv("server.mode", "STUDY_SERVER_MODE", "SERVER_MODE")
	v.BindEnv("ai.provider", "STUDY_AI_PROVIDER", "AI_PROVIDER")
	v.BindEnv("ai.model", "STUDY_AI_MODEL", "AI_MODEL")
	v.BindEnv("ai.gemini_api_key", "STUDY_AI_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("ai.openai_api_key", "STUDY_AI_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("ai.openai_base_url", "STUDY_AI_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	v.BindEnv("database.path", "STUDY_DATABASE_PATH", "DATABASE_PATH")
	v.BindEnv("session.secret", "STUDY_SESSION_SECRET", "SESSION_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.strict_quiz", false)
	v.SetDefault("database.path", "./study.db")
	v.SetDefault("session.cookie_name", "study-session")
	v.SetDefault("session.max_age_days", 30)
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.llm_file", "log/llm.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)
}

// Validate checks the provider and its credentials.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}
	if c.AI.APIKey() == "" {
		return fmt.Errorf("api key for provider %q is required", c.AI.Provider)
	}
	if c.Server.Mode == "release" && len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret is too short (%d chars), must be at least 32 characters in release mode", len(c.Session.Secret))
	}
	return nil
}
