package extraction

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"docuvault/pkg/logger"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"
)

// ArtifactStore persists derived extraction artifacts (the markdown
// rendering and extracted images) in MinIO. Object keys are prefixed with
// tenant and document identity so tenants can never collide.
type ArtifactStore struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewArtifactStore creates an ArtifactStore writing into the given bucket.
func NewArtifactStore(client *minio.Client, bucket string, log *logger.Logger) *ArtifactStore {
	return &ArtifactStore{client: client, bucket: bucket, log: log}
}

// Artifacts lists the object keys written for one document.
type Artifacts struct {
	MarkdownKey string
	ImageKeys   []string
}

func artifactPrefix(tenantID, documentID string) string {
	return fmt.Sprintf("%s/%s/", tenantID, documentID)
}

// Save uploads the markdown rendering and all images for a document.
// Uploads run concurrently; any failure aborts the rest.
func (s *ArtifactStore) Save(ctx context.Context, tenantID, documentID string, markdown string, images [][]byte) (*Artifacts, error) {
	prefix := artifactPrefix(tenantID, documentID)
	artifacts := &Artifacts{
		MarkdownKey: prefix + "markdown/document.md",
		ImageKeys:   make([]string, len(images)),
	}
	for i := range images {
		artifacts.ImageKeys[i] = fmt.Sprintf("%simages/%03d%s", prefix, i, imageExtension(images[i]))
	}

	eg, gCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return s.put(gCtx, artifacts.MarkdownKey, []byte(markdown), "text/markdown")
	})
	for i, img := range images {
		key, data := artifacts.ImageKeys[i], img
		eg.Go(func() error {
			return s.put(gCtx, key, data, http.DetectContentType(data))
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to store artifacts: %w", err)
	}

	s.log.Debug(fmt.Sprintf("Stored %d artifact objects under %s", 1+len(images), prefix))
	return artifacts, nil
}

func (s *ArtifactStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every artifact stored for a document.
func (s *ArtifactStore) DeleteAll(ctx context.Context, tenantID, documentID string) error {
	prefix := artifactPrefix(tenantID, documentID)
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objects {
		if object.Err != nil {
			return fmt.Errorf("failed to list artifacts under %s: %w", prefix, object.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove artifact %s: %w", object.Key, err)
		}
	}
	return nil
}

func imageExtension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ".bin"
	}
}
