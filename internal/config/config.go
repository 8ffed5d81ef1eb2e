package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read once from the environment
type Config struct {
	BotToken string
	LogLevel string

	VisionProvider    string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	OllamaURL         string
	OllamaModel       string
	GeminiAPIKey      string
	GeminiModel       string
	VisionMaxTokens   int
	VisionTemperature float64
	VisionTimeout     time.Duration

	DomainURL         string
	StaticServerPort  string
	UploadPath        string
	MaxFileSize       int64
	AllowedExtensions []string

	GoogleCredentialsFile string
	GoogleSheetID         string
	CatalogBackend        string
	CatalogJournal        string

	VocabularyFile string
	Vocabulary     Vocabulary

	PhotoRatePerMinute int
	PhotoTimeout       time.Duration
}

// Load reads the environment and the optional vocabulary file
func Load() (Config, error) {
	cfg := Config{
		BotToken: env("BOT_TOKEN", ""),
		LogLevel: env("LOG_LEVEL", "info"),

		VisionProvider:    strings.ToLower(env("VISION_PROVIDER", "openai")),
		OpenAIAPIKey:      env("OPENAI_API_KEY", ""),
		OpenAIModel:       env("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:     env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OllamaURL:         env("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:       env("OLLAMA_MODEL", "mistral-small3.2:24b"),
		GeminiAPIKey:      env("GEMINI_API_KEY", ""),
		GeminiModel:       env("GEMINI_MODEL", "gemini-1.5-flash"),
		VisionMaxTokens:   envInt("VISION_MAX_TOKENS", 500),
		VisionTemperature: envFloat("VISION_TEMPERATURE", 0.1),
		VisionTimeout:     time.Duration(envInt("VISION_TIMEOUT_SECONDS", 60)) * time.Second,

		DomainURL:         strings.TrimRight(env("DOMAIN_URL", ""), "/"),
		StaticServerPort:  env("STATIC_SERVER_PORT", "8000"),
		UploadPath:        env("UPLOAD_PATH", "static_server/uploads"),
		MaxFileSize:       int64(envInt("MAX_FILE_SIZE", 10*1024*1024)),
		AllowedExtensions: envList("ALLOWED_EXTENSIONS", []string{"jpg", "jpeg", "png", "webp"}),

		GoogleCredentialsFile: env("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GoogleSheetID:         env("GOOGLE_SHEET_ID", ""),
		CatalogBackend:        strings.ToLower(env("CATALOG_BACKEND", "sheets")),
		CatalogJournal:        env("CATALOG_JOURNAL", "catalog.parquet"),

		VocabularyFile: env("VOCABULARY_FILE", ""),

		PhotoRatePerMinute: envInt("PHOTO_RATE_PER_MINUTE", 10),
		PhotoTimeout:       time.Duration(envInt("PHOTO_TIMEOUT_SECONDS", 120)) * time.Second,
	}

	if cfg.DomainURL == "" {
		cfg.DomainURL = "http://localhost:" + cfg.StaticServerPort
	}

	vocab := DefaultVocabulary()
	if cfg.VocabularyFile != "" {
		var err error
		vocab, err = LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return Config{}, err
		}
	}
	cfg.Vocabulary = vocab

	switch cfg.VisionProvider {
	case "openai", "ollama", "gemini":
	default:
		return Config{}, fmt.Errorf("unsupported VISION_PROVIDER: %s", cfg.VisionProvider)
	}
	switch cfg.CatalogBackend {
	case "sheets", "parquet":
	default:
		return Config{}, fmt.Errorf("unsupported CATALOG_BACKEND: %s", cfg.CatalogBackend)
	}

	return cfg, nil
}

// VisionModel returns the model identifier of the configured provider
func (c Config) VisionModel() string {
	switch c.VisionProvider {
	case "ollama":
		return c.OllamaModel
	case "gemini":
		return c.GeminiModel
	default:
		return c.OpenAIModel
	}
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
