package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"academic-assist/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore keeps uploads as objects keyed "<dir>/<name>" in a single bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	region string
	logger *slog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIOStore(cfg config.MinIOConfig, logger *slog.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOStore{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: logger,
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Not fatal: the bucket is checked again on first use.
	if err := store.ensureBucket(ctx); err != nil {
		logger.Warn("MinIO not ready during startup", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket, "error", err)
	} else {
		logger.Info("connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket, "ssl", cfg.UseSSL)
	}

	return store, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info("created bucket", "bucket", s.bucket)
	}

	s.bucketEnsured = true
	return nil
}

func (s *MinIOStore) Save(ctx context.Context, dir, name string, content io.Reader, size int64) error {
	if !ValidDir(dir) {
		return ErrUnknownDir
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, objectKey(dir, name), content, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.DebugContext(ctx, "file uploaded to MinIO", "key", info.Key, "etag", info.ETag, "size", info.Size)
	return nil
}

func (s *MinIOStore) Open(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	if !ValidDir(dir) {
		return nil, ErrUnknownDir
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	key := objectKey(dir, name)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return object, nil
}

func (s *MinIOStore) Exists(ctx context.Context, dir, name string) (bool, error) {
	if !ValidDir(dir) {
		return false, ErrUnknownDir
	}
	if err := s.ensureBucket(ctx); err != nil {
		return false, err
	}

	_, err := s.client.StatObject(ctx, s.bucket, objectKey(dir, name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// EnsureDirs only needs the bucket; object stores have no directories.
func (s *MinIOStore) EnsureDirs(ctx context.Context, dirs ...string) error {
	return s.ensureBucket(ctx)
}
