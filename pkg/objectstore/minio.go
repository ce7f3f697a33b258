// Package objectstore provides the MinIO-backed artifact store used to
// publish aggregated results behind time-limited presigned URLs.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enrichkit/contact-pipeline/pkg/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client wraps a minio client scoped to a single artifact bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	region string
	logger *slog.Logger
}

// NewClient creates a MinIO client for the configured artifact bucket.
func NewClient(cfg config.ObjectStoreConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &Client{
		mc:     mc,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: slog.Default().With("component", "objectstore", "bucket", cfg.Bucket),
	}, nil
}

// EnsureBucket creates the artifact bucket if it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", c.bucket, err)
	}
	c.logger.Info("artifact bucket created")
	return nil
}

// Upload writes an object to the artifact bucket, overwriting any previous
// object under the same key.
func (c *Client) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("uploading object %s: %w", key, err)
	}
	c.logger.Debug("object uploaded", "key", key, "size", len(body))
	return nil
}

// PresignGet returns a time-limited GET URL for an object in the artifact
// bucket.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presigning object %s: %w", key, err)
	}
	return u.String(), nil
}

// Ping verifies the artifact bucket is reachable, for health checks.
func (c *Client) Ping(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", c.bucket, err)
	}
	if !exists {
		return fmt.Errorf("artifact bucket missing: %s", c.bucket)
	}
	return nil
}
