package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the YAML config path
const ConfigPathEnv = "LEXAI_CONFIG"

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port string `yaml:"port" validate:"required,numeric"`
}

// DatabaseConfig configures the Postgres connection
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig selects the backend holding the dataset and checkpoint
type StorageConfig struct {
	Type            string `yaml:"type" validate:"oneof=local s3"`
	LocalPath       string `yaml:"local_path"`
	S3Bucket        string `yaml:"s3_bucket" validate:"required_if=Type s3"`
	S3Region        string `yaml:"s3_region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// IngestionConfig configures chunking and checkpointing
type IngestionConfig struct {
	DatasetPath       string `yaml:"dataset_path" validate:"required"`
	CheckpointBackend string `yaml:"checkpoint_backend" validate:"oneof=storage postgres"`
	CheckpointKey     string `yaml:"checkpoint_key" validate:"required"`
	MaxTokens         int    `yaml:"max_tokens" validate:"gt=0"`
	OverlapSentences  int    `yaml:"overlap_sentences" validate:"gte=0"`
	MinChunkTokens    int    `yaml:"min_chunk_tokens" validate:"gte=0"`
	MaxRecordBytes    int    `yaml:"max_record_bytes" validate:"gte=0"`
}

// EmbeddingConfig configures the embedding model and sweep
type EmbeddingConfig struct {
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model" validate:"required"`
	Dimension         int     `yaml:"dimension" validate:"gt=0"`
	QueryPrefix       string  `yaml:"query_prefix"`
	PassagePrefix     string  `yaml:"passage_prefix"`
	Encoding          string  `yaml:"encoding" validate:"required"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	MaxRetries        int     `yaml:"max_retries" validate:"gte=0"`
	Workers           int     `yaml:"workers" validate:"gte=1"`
}

// SearchConfig configures the similarity search boundary
type SearchConfig struct {
	DefaultK     int `yaml:"default_k" validate:"gte=1"`
	MaxK         int `yaml:"max_k" validate:"gtefield=DefaultK"`
	PreviewChars int `yaml:"preview_chars" validate:"gt=0"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the root application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads .env, the optional YAML file at path, and environment overrides.
// An empty path falls back to LEXAI_CONFIG; a missing file yields defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../../.env")
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Storage: StorageConfig{Type: "local", LocalPath: "./data", S3Region: "us-east-1"},
		Ingestion: IngestionConfig{
			DatasetPath:       "sc_decisions.jsonl",
			CheckpointBackend: "storage",
			CheckpointKey:     "chunking_checkpoint.txt",
			MaxTokens:         350,
			OverlapSentences:  2,
			MinChunkTokens:    15,
			MaxRecordBytes:    16 * 1024 * 1024,
		},
		Embedding: EmbeddingConfig{
			Model:         "text-embedding-004",
			Dimension:     768,
			QueryPrefix:   "query: ",
			PassagePrefix: "passage: ",
			Encoding:      "cl100k_base",
			MaxRetries:    3,
			Workers:       1,
		},
		Search: SearchConfig{DefaultK: 5, MaxK: 50, PreviewChars: 300},
		Log:    LogConfig{Level: "info"},
	}
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.LocalPath, "STORAGE_LOCAL_PATH")
	setString(&cfg.Storage.S3Bucket, "AWS_S3_BUCKET")
	setString(&cfg.Storage.S3Region, "AWS_REGION")
	setString(&cfg.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&cfg.Ingestion.DatasetPath, "DATASET_PATH")
	setString(&cfg.Ingestion.CheckpointBackend, "CHECKPOINT_BACKEND")
	setString(&cfg.Embedding.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.JSON = b
		}
	}
	if v := os.Getenv("EMBEDDING_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Workers = n
		}
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.Server.Port) == "" {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = def.Storage.Type
	}
	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = def.Storage.LocalPath
	}
	if cfg.Ingestion.CheckpointBackend == "" {
		cfg.Ingestion.CheckpointBackend = def.Ingestion.CheckpointBackend
	}
	if cfg.Ingestion.CheckpointKey == "" {
		cfg.Ingestion.CheckpointKey = def.Ingestion.CheckpointKey
	}
	if cfg.Ingestion.MaxTokens == 0 {
		cfg.Ingestion.MaxTokens = def.Ingestion.MaxTokens
	}
	if cfg.Ingestion.MaxRecordBytes == 0 {
		cfg.Ingestion.MaxRecordBytes = def.Ingestion.MaxRecordBytes
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = def.Embedding.Dimension
	}
	if cfg.Embedding.Encoding == "" {
		cfg.Embedding.Encoding = def.Embedding.Encoding
	}
	if cfg.Embedding.Workers == 0 {
		cfg.Embedding.Workers = def.Embedding.Workers
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = def.Search.DefaultK
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = def.Search.MaxK
	}
	if cfg.Search.PreviewChars == 0 {
		cfg.Search.PreviewChars = def.Search.PreviewChars
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
