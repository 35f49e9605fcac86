package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/arzan03/devcamper/internal/config"
)

// MinioStore keeps bootcamp photos in one MinIO bucket.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

// NewMinioStore connects to MinIO and makes sure the photo bucket exists.
func NewMinioStore(ctx context.Context, logger *zerolog.Logger, minioCfg config.MinioConfig, bucket string) (*MinioStore, error) {
	client, err := minio.New(minioCfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioCfg.AccessKey, minioCfg.SecretKey, ""),
		Secure: minioCfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to MinIO: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		logger.Warn().Err(err).Str("bucket", bucket).Msg("failed to check bucket existence")
	} else if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		logger.Info().Str("bucket", bucket).Msg("created bucket")
	}

	return &MinioStore{
		client:   client,
		bucket:   bucket,
		endpoint: minioCfg.Endpoint,
		secure:   minioCfg.UseSSL,
	}, nil
}

// Put uploads size bytes from r under name, replacing any existing object.
func (s *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", name, err)
	}
	return nil
}

// Remove deletes the object. Removing a missing object is not an error.
func (s *MinioStore) Remove(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", name, err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// URL is the public address of the object.
func (s *MinioStore) URL(name string) string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, name)
}
