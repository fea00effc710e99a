package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/resoul/awstranscribe/config"
)

// ObjectStore is the subset of bucket operations the workflow needs. Both the
// MinIO client and the native S3 client satisfy it.
type ObjectStore interface {
	MakeBucket(ctx context.Context, bucket string) error
	UploadFile(ctx context.Context, bucket, object, localPath, contentType string) error
	DownloadFile(ctx context.Context, bucket, object, localPath string) error
	ListObjects(ctx context.Context, bucket string) ([]string, error)
	RemoveObjects(ctx context.Context, bucket string, keys []string) error
	RemoveBucket(ctx context.Context, bucket string) error
}

// NewObjectStore builds the backend selected by STORAGE_BACKEND.
func NewObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return NewS3Service(awsCfg), nil
	case config.BackendMinio:
		return NewMinioService(cfg.Minio, cfg.AWS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// prepareLocalFile makes sure the parent directory exists and any previous
// copy of the file is gone.
func prepareLocalFile(localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create local dir failed (path=%s): %w", localPath, err)
	}
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale file failed (path=%s): %w", localPath, err)
	}
	return nil
}

// CleanupBucket deletes every object in bucket and then the bucket itself.
// It returns the number of objects removed.
func CleanupBucket(ctx context.Context, store ObjectStore, bucket string) (int, error) {
	keys, err := store.ListObjects(ctx, bucket)
	if err != nil {
		return 0, fmt.Errorf("list objects: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"bucket":  bucket,
		"objects": keys,
	}).Debug("Listed bucket objects")

	if len(keys) > 0 {
		if err := store.RemoveObjects(ctx, bucket, keys); err != nil {
			return 0, fmt.Errorf("remove objects: %w", err)
		}
	}

	if err := store.RemoveBucket(ctx, bucket); err != nil {
		return len(keys), fmt.Errorf("remove bucket: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"bucket":  bucket,
		"removed": len(keys),
	}).Debug("Removed bucket")

	return len(keys), nil
}
