package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
app:
  name: "docuvault"
  environment: "test"
logger:
  level: "debug"
server:
  address: ":9090"
mysql:
  address: "db:3306"
  username: "svc"
  password: "file-secret"
  database: "docuvault"
milvus:
  host: "vectors"
  httpPort: 9091
  grpcPort: 19530
  collectionName: "document_chunks"
minio:
  endpoint: "minio:9000"
  accessKey: "ak"
  secretKey: "sk"
  bucket: "artifacts"
extraction:
  ocrEngine: "tesseract"
  device: "cpu"
  allowedFormats:
    - "*.pdf"
chunking:
  maxTokens: 256
embedding:
  provider: "openai"
  model: "text-embedding-3-small"
  dimension: 1536
pipeline:
  timeout: "5m"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, testConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.Name != "docuvault" {
		t.Errorf("app name = %q, want docuvault", cfg.App.Name)
	}
	if cfg.Milvus.HTTPPort != 9091 || cfg.Milvus.GRPCPort != 19530 {
		t.Errorf("milvus ports = %d/%d, want 9091/19530", cfg.Milvus.HTTPPort, cfg.Milvus.GRPCPort)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("embedding dimension = %d, want 1536", cfg.Embedding.Dimension)
	}
	if cfg.Chunking.MaxTokens != 256 {
		t.Errorf("max tokens = %d, want 256", cfg.Chunking.MaxTokens)
	}
	if len(cfg.Extraction.AllowedFormats) != 1 || cfg.Extraction.AllowedFormats[0] != "*.pdf" {
		t.Errorf("allowed formats = %v, want [*.pdf]", cfg.Extraction.AllowedFormats)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DOCUVAULT_MYSQL_PASSWORD", "env-secret")
	t.Setenv("DOCUVAULT_EMBEDDING_API_KEY", "env-key")

	cfg, err := LoadConfig(writeTestConfig(t, testConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MySQL.Password != "env-secret" {
		t.Errorf("mysql password = %q, want env override", cfg.MySQL.Password)
	}
	if cfg.Embedding.APIKey != "env-key" {
		t.Errorf("embedding api key = %q, want env override", cfg.Embedding.APIKey)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
