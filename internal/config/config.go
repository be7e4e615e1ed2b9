package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Tagging TaggingConfig
	Store   StoreConfig
	Log     LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	tagging, err := loadTaggingConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Tagging: tagging,
		Store:   store,
		Log:     loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origin := getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*")

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

// Provider names a chat model backend.
type Provider string

const (
	ProviderArk  Provider = "ark"
	ProviderMock Provider = "mock"
)

// AIConfig describes the completion gateway.
type AIConfig struct {
	Provider    Provider
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// HasCredentials reports whether the ark credentials and model are present.
func (c AIConfig) HasCredentials() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the configured chat model.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider == ProviderMock {
		return nil, fmt.Errorf("mock provider has no remote chat model")
	}
	if !c.HasCredentials() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		zero := 0.0
		temperature = &zero
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	modelName := strings.TrimSpace(os.Getenv("ARK_MODEL"))
	if modelName == "" {
		modelName = strings.TrimSpace(os.Getenv("Model"))
	}

	cfg := AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       modelName,
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}

	switch provider := Provider(strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))); provider {
	case "":
		if cfg.HasCredentials() {
			cfg.Provider = ProviderArk
		} else {
			cfg.Provider = ProviderMock
		}
	case ProviderArk, ProviderMock:
		cfg.Provider = provider
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	if cfg.Provider == ProviderArk && !cfg.HasCredentials() {
		return AIConfig{}, fmt.Errorf("LLM_PROVIDER=ark requires ARK_MODEL and ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY)")
	}

	return cfg, nil
}

// TaggerMode selects how emotion and topic labels are produced.
type TaggerMode string

const (
	TaggerStatic  TaggerMode = "static"
	TaggerKeyword TaggerMode = "keyword"
	TaggerLLM     TaggerMode = "llm"
)

// TaggingConfig describes session tag derivation.
type TaggingConfig struct {
	Mode TaggerMode
}

func loadTaggingConfig() (TaggingConfig, error) {
	mode := TaggerMode(strings.ToLower(getEnvOrDefault("TAGGER", string(TaggerStatic))))
	switch mode {
	case TaggerStatic, TaggerKeyword, TaggerLLM:
		return TaggingConfig{Mode: mode}, nil
	default:
		return TaggingConfig{}, fmt.Errorf("invalid TAGGER value %q", mode)
	}
}

// StoreConfig describes the session store driver.
type StoreConfig struct {
	Driver        string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string
}

func loadStoreConfig() (StoreConfig, error) {
	redisDB := 0
	if db, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return StoreConfig{}, err
	} else if db != nil {
		redisDB = *db
	}

	cfg := StoreConfig{
		Driver:        strings.ToLower(getEnvOrDefault("SESSION_STORE", "sqlite")),
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "core_sessions.db"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		SupabaseURL:   strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		SupabaseKey:   strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
		SupabaseTable: getEnvOrDefault("SUPABASE_TABLE", "chat_sessions"),
	}

	switch cfg.Driver {
	case "memory", "sqlite", "redis":
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return StoreConfig{}, fmt.Errorf("SESSION_STORE=supabase requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", cfg.Driver)
	}

	return cfg, nil
}

// LogConfig describes logging and trace output.
type LogConfig struct {
	Level     string
	File      string
	TraceFile string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:     getEnvOrDefault("LOG_LEVEL", "info"),
		File:      strings.TrimSpace(os.Getenv("LOG_FILE")),
		TraceFile: strings.TrimSpace(os.Getenv("TRACE_FILE")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
