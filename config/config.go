package config

import (
	"errors"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"time"
)

const (
	AssistantProviderGemini = "gemini"
	AssistantProviderOpenAI = "openai"

	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
)

var (
	ErrUnknownAssistantProvider = errors.New("unknown assistant provider")
	ErrUnknownStorageBackend    = errors.New("unknown storage backend")
	ErrMissingOpenAIKey         = errors.New("openai provider requires OPENAI_API_KEY")
	ErrMissingRedisEndpoint     = errors.New("redis storage requires redis endpoint")
	ErrMissingTelegramToken     = errors.New("telegram shell requires TELEGRAM_APITOKEN")
)

type Gemini struct {
	APIKey         string        `yaml:"-" env:"GEMINI_API_KEY" env-required:"true"`
	ImageModel     string        `yaml:"image_model" env:"GEMINI_IMAGE_MODEL" env-default:"gemini-2.5-flash-image"`
	ChatModel      string        `yaml:"chat_model" env:"GEMINI_CHAT_MODEL" env-default:"gemini-3-pro-preview"`
	AspectRatio    string        `yaml:"aspect_ratio" env-default:"1:1"`
	GoogleSearch   bool          `yaml:"google_search" env:"GEMINI_GOOGLE_SEARCH" env-default:"true"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"GEMINI_REQUEST_TIMEOUT"`
}

type OpenAI struct {
	OpenAIAPIKey     string  `yaml:"-" env:"OPENAI_API_KEY"`
	OpenAIModel      string  `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL    string  `yaml:"open_ai_base_url" env:"OPENAI_BASE_URL"`
	ModelTemperature float32 `yaml:"model_temperature" env:"MODEL_TEMPERATURE" env-default:"0.7"`
	MaxHistoryTokens int     `yaml:"max_history_tokens" env:"OPENAI_MAX_HISTORY_TOKENS" env-default:"3500"`
}

type Assistant struct {
	Provider string `yaml:"provider" env:"ASSISTANT_PROVIDER" env-default:"gemini"`
	Persona  string `yaml:"persona" env:"ASSISTANT_PERSONA" env-default:"You are Lumina, a professional interior design consultant. You help users refine their room designs. Be helpful, professional, and descriptive. Use web search to find real shoppable links for the furniture or decor items mentioned in the conversation."`
	Language string `yaml:"language" env:"ASSISTANT_LANGUAGE" env-default:"en"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"30s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"HTTP_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

type Redis struct {
	Endpoint   string        `yaml:"endpoint" env:"REDIS_ENDPOINT"`
	Password   string        `yaml:"-" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"REDIS_DB"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"REDIS_SESSION_TTL" env-default:"24h"`
}

type Storage struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"memory"`
}

type Telegram struct {
	Enabled           bool    `yaml:"enabled" env:"TELEGRAM_ENABLED"`
	TelegramAPIToken  string  `yaml:"-" env:"TELEGRAM_APITOKEN"`
	AllowedTelegramID []int64 `yaml:"allowed_telegram_id" env:"ALLOWED_TELEGRAM_ID" env-separator:","`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type Config struct {
	Gemini    Gemini    `yaml:"gemini"`
	OpenAI    OpenAI    `yaml:"openai"`
	Assistant Assistant `yaml:"assistant"`
	HTTP      HTTP      `yaml:"http"`
	Redis     Redis     `yaml:"redis"`
	Storage   Storage   `yaml:"storage"`
	Telegram  Telegram  `yaml:"telegram"`
	Log       Log       `yaml:"log"`
}

// LoadConfig reads the YAML file at cfgPath (when given) and applies environment overrides.
func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Assistant.Provider {
	case AssistantProviderGemini:
	case AssistantProviderOpenAI:
		if c.OpenAI.OpenAIAPIKey == "" {
			return ErrMissingOpenAIKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAssistantProvider, c.Assistant.Provider)
	}

	switch c.Storage.Backend {
	case StorageBackendMemory:
	case StorageBackendRedis:
		if c.Redis.Endpoint == "" {
			return ErrMissingRedisEndpoint
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageBackend, c.Storage.Backend)
	}

	if c.Telegram.Enabled && c.Telegram.TelegramAPIToken == "" {
		return ErrMissingTelegramToken
	}
	return nil
}
