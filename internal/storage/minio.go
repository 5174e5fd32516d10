package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
)

// ObjectStore persists raw invoice documents and returns a stable URL for
// the stored object.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, objectName, contentType string) (string, error)
}

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // optional; defaults to the endpoint
}

type minioStore struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
}

// NewMinioStore connects to the object store and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg Config, logger *slog.Logger) (ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, common.WrapError(err, "connect object store")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, common.WrapError(err, "check bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, common.WrapError(err, "create bucket")
		}
		logger.Info("storage.bucket_created", "bucket", cfg.Bucket)
	}

	return &minioStore{client: client, cfg: cfg, logger: logger}, nil
}

func (s *minioStore) Upload(ctx context.Context, data []byte, objectName, contentType string) (string, error) {
	start := time.Now()
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.logger.Error("storage.upload_failed",
			"object", objectName, "bucket", s.cfg.Bucket, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: upload %s: %v", common.ErrStorage, objectName, err)
	}

	s.logger.Info("storage.upload_ok",
		"object", objectName, "bucket", s.cfg.Bucket, "bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds())
	return s.objectURL(objectName), nil
}

func (s *minioStore) objectURL(objectName string) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if s.cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, s.cfg.Endpoint)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), s.cfg.Bucket, objectName)
}
