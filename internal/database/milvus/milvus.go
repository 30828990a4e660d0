package milvus

import (
	"context"
	"fmt"
	"net/http"

	"docuvault/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
)

// Milvus is addressed through two endpoints: the gRPC one carries schema
// operations and bulk vector writes, the HTTP one serves administrative
// health probes. This package only translates configuration into
// connections; collection management lives with the vector index.

// GRPCAddress returns the data-plane endpoint in host:port form.
func GRPCAddress(cfg *config.MilvusConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.GRPCPort)
}

// httpBaseURL returns the admin endpoint base URL.
func httpBaseURL(cfg *config.MilvusConfig) string {
	scheme := "http"
	if cfg.HTTPTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.HTTPPort)
}

// Dial opens a gRPC connection to Milvus. Callers own the returned client
// and must Close it; the vector index acquires one per batch of operations.
func Dial(ctx context.Context, cfg *config.MilvusConfig) (client.Client, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:       GRPCAddress(cfg),
		EnableTLSAuth: cfg.GRPCTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to Milvus at %s: %w", GRPCAddress(cfg), err)
	}
	return c, nil
}

// HealthCheck probes the Milvus HTTP admin endpoint.
func HealthCheck(ctx context.Context, cfg *config.MilvusConfig) error {
	url := httpBaseURL(cfg) + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Milvus health check returned status %d", resp.StatusCode)
	}
	return nil
}
