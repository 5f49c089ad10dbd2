package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Storage   StorageConfig   `toml:"storage"`
	Redis     RedisConfig     `toml:"redis"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	RAG       RAGConfig       `toml:"rag"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
	VectorsDir string `toml:"vectors_dir"`
	HistoryDir string `toml:"history_dir"`
}

type RedisConfig struct {
	// Addr left empty disables the history cache entirely.
	Addr                   string `toml:"addr"`
	Password               string `toml:"password"`
	DB                     int    `toml:"db"`
	HistoryTTLSeconds      int    `toml:"history_ttl_seconds"`
	HistoryDirtyTTLSeconds int    `toml:"history_dirty_ttl_seconds"`
}

type LLMConfig struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	MaxContextMessage int    `toml:"max_context_message"`
}

type EmbeddingConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type RAGConfig struct {
	ChunkMaxTokens  int     `toml:"chunk_max_tokens"`
	OverlapFraction float64 `toml:"overlap_fraction"`
	// RetrieveAll keeps the product default of handing the model the
	// whole session index; TopK applies only when it is false.
	RetrieveAll bool `toml:"retrieve_all"`
	TopK        int  `toml:"top_k"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "studyrag",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8000,
			GinMode: "debug",
		},
		Storage: StorageConfig{
			SQLitePath: "data/studyrag.db",
			VectorsDir: "data/vectors",
			HistoryDir: "data/history",
		},
		Redis: RedisConfig{
			Addr:                   "",
			Password:               "",
			DB:                     0,
			HistoryTTLSeconds:      60,
			HistoryDirtyTTLSeconds: 5,
		},
		LLM: LLMConfig{
			BaseURL:           "http://localhost:11434/v1",
			APIKey:            "",
			Model:             "llama3:latest",
			MaxContextMessage: 20,
		},
		Embedding: EmbeddingConfig{
			BaseURL: "http://localhost:11434/v1",
			APIKey:  "",
			Model:   "nomic-embed-text",
		},
		RAG: RAGConfig{
			ChunkMaxTokens:  1000,
			OverlapFraction: 0.2,
			RetrieveAll:     true,
			TopK:            5,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Storage.SQLitePath = getEnv("STORAGE_SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.VectorsDir = getEnv("STORAGE_VECTORS_DIR", cfg.Storage.VectorsDir)
	cfg.Storage.HistoryDir = getEnv("STORAGE_HISTORY_DIR", cfg.Storage.HistoryDir)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.HistoryTTLSeconds = getEnvAsInt("REDIS_HISTORY_TTL_SECONDS", cfg.Redis.HistoryTTLSeconds)
	cfg.Redis.HistoryDirtyTTLSeconds = getEnvAsInt("REDIS_HISTORY_DIRTY_TTL_SECONDS", cfg.Redis.HistoryDirtyTTLSeconds)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxContextMessage = getEnvAsInt("LLM_MAX_CONTEXT_MESSAGE", cfg.LLM.MaxContextMessage)

	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)

	cfg.RAG.ChunkMaxTokens = getEnvAsInt("RAG_CHUNK_MAX_TOKENS", cfg.RAG.ChunkMaxTokens)
	cfg.RAG.OverlapFraction = getEnvAsFloat("RAG_OVERLAP_FRACTION", cfg.RAG.OverlapFraction)
	cfg.RAG.RetrieveAll = getEnvAsBool("RAG_RETRIEVE_ALL", cfg.RAG.RetrieveAll)
	cfg.RAG.TopK = getEnvAsInt("RAG_TOP_K", cfg.RAG.TopK)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
