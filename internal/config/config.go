package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application information.
type AppInfo struct {
	Name        string `yaml:"name"`        // Application name
	Version     string `yaml:"version"`     // Application version
	Environment string `yaml:"environment"` // Runtime environment (e.g. "development", "production")
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // Log level (e.g. "info", "debug", "warn", "error")
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"` // Listen address (e.g. ":8080")
}

// StorageConfig configures where uploaded files live on disk.
type StorageConfig struct {
	UploadRoot string `yaml:"uploadRoot"` // Root directory for uploaded documents
}

// MySQLConfig configures the MySQL connection holding document records.
type MySQLConfig struct {
	Address         string `yaml:"address"`         // Server address
	Username        string `yaml:"username"`        // User name
	Password        string `yaml:"password"`        // Password (DOCUVAULT_MYSQL_PASSWORD overrides)
	Database        string `yaml:"database"`        // Database name
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // Max open connections
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // Max idle connections
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // Connection max lifetime in seconds
}

// MilvusConfig configures the vector store connection. Milvus exposes two
// endpoints: an HTTP one used for administrative health probes and a gRPC
// one carrying schema operations and bulk vector writes.
type MilvusConfig struct {
	Host           string `yaml:"host"`           // Milvus host
	HTTPPort       int    `yaml:"httpPort"`       // HTTP (admin/health) port
	GRPCPort       int    `yaml:"grpcPort"`       // gRPC (data) port
	HTTPTLS        bool   `yaml:"httpTLS"`        // TLS on the HTTP endpoint
	GRPCTLS        bool   `yaml:"grpcTLS"`        // TLS on the gRPC endpoint
	CollectionName string `yaml:"collectionName"` // Collection holding document chunks
}

// MinIOConfig configures the object store for extraction artifacts.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO endpoint
	AccessKey string `yaml:"accessKey"` // Access key
	SecretKey string `yaml:"secretKey"` // Secret key (DOCUVAULT_MINIO_SECRET_KEY overrides)
	Bucket    string `yaml:"bucket"`    // Bucket for derived artifacts
	Secure    bool   `yaml:"secure"`    // Use HTTPS
}

// ExtractionConfig configures the extraction engine.
type ExtractionConfig struct {
	OCREngine      string   `yaml:"ocrEngine"`      // "rapidocr" or "tesseract"
	OCREndpoint    string   `yaml:"ocrEndpoint"`    // RapidOCR service URL (rapidocr only)
	Device         string   `yaml:"device"`         // "auto", "cpu" or "gpu"
	ImageScale     float64  `yaml:"imageScale"`     // Scale factor for rendered images
	AllowedFormats []string `yaml:"allowedFormats"` // Glob patterns of accepted filenames (e.g. "*.pdf")
}

// ChunkingConfig configures the chunker.
type ChunkingConfig struct {
	MaxTokens int `yaml:"maxTokens"` // Token budget per chunk
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`  // "ollama", "openai" or "gemini"
	Model     string `yaml:"model"`     // Model identifier; fixes the vector dimension
	Dimension int    `yaml:"dimension"` // Vector width the model produces
	APIKey    string `yaml:"apiKey"`    // API key (DOCUVAULT_EMBEDDING_API_KEY overrides)
	BaseURL   string `yaml:"baseURL"`   // Service base URL (ollama/openai-compatible)
	BatchSize int    `yaml:"batchSize"` // Texts per inference request
}

// PipelineConfig configures the processing orchestrator.
type PipelineConfig struct {
	Timeout string `yaml:"timeout"` // Overall deadline per attempt (e.g. "10m"); empty = none
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// LoadConfig reads and parses the YAML configuration file at path.
// Secrets can be supplied through environment variables instead of the file.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("DOCUVAULT_MYSQL_PASSWORD"); v != "" {
		cfg.MySQL.Password = v
	}
	if v := os.Getenv("DOCUVAULT_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("DOCUVAULT_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
}
