package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"mediadl/config"
	"mediadl/logger"
)

// MinIOUploader pushes finished artifacts to an S3-compatible bucket and
// hands back presigned GET URLs. It implements task.Uploader.
type MinIOUploader struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinIOUploader(cfg *config.Config) (*MinIOUploader, error) {
	if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
		return nil, fmt.Errorf("object storage requires S3_ENDPOINT and S3_BUCKET")
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create object storage client: %w", err)
	}

	logger.Info("object storage uploader initialized",
		zap.String("endpoint", cfg.S3Endpoint),
		zap.String("bucket", cfg.S3Bucket),
	)
	return &MinIOUploader{
		client: client,
		bucket: cfg.S3Bucket,
		expiry: cfg.S3URLExpiry,
	}, nil
}

// Upload stores a local file under a collision-free key and returns a
// time-limited retrieval URL.
func (u *MinIOUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := fmt.Sprintf("downloads/%s_%s", shortuuid.New(), filepath.Base(localPath))
	if _, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("upload of %s failed: %w", filepath.Base(localPath), err)
	}

	url, err := u.client.PresignedGetObject(ctx, u.bucket, key, u.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("could not presign object URL: %w", err)
	}

	logger.Info("artifact uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
	)
	return url.String(), nil
}

// ensureBucket creates the bucket if it does not exist yet. Uploads are
// independently keyed, so no coordination beyond this check is needed.
func (u *MinIOUploader) ensureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("could not check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("could not create bucket %s: %w", u.bucket, err)
	}
	return nil
}
