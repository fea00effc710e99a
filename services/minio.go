package services

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/resoul/awstranscribe/config"
)

type MinioService struct {
	client *minio.Client
	region string
}

// NewMinioService connects to any S3-compatible endpoint. Without explicit
// MinIO keys it falls back to the AWS keys, then to the standard AWS
// environment and IAM credential chain.
func NewMinioService(cfg config.MinioConfig, awsCfg config.AWSConfig) (*MinioService, error) {
	var creds *credentials.Credentials
	switch {
	case cfg.AccessKey != "":
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	case awsCfg.AccessKeyID != "":
		creds = credentials.NewStaticV4(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, awsCfg.SessionToken)
	default:
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.Secure,
		Region: awsCfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{client: client, region: awsCfg.Region}, nil
}

func (s *MinioService) MakeBucket(ctx context.Context, bucket string) error {
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket failed (bucket=%s): %w", bucket, err)
	}
	return nil
}

func (s *MinioService) DownloadFile(ctx context.Context, bucket, object, localPath string) error {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get object failed (bucket=%s, object=%s): %w", bucket, object, err)
	}
	defer obj.Close()

	if err := prepareLocalFile(localPath); err != nil {
		return err
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file failed (path=%s): %w", localPath, err)
	}
	defer out.Close()

	if _, err = out.ReadFrom(obj); err != nil {
		return fmt.Errorf("write to local file failed: %w", err)
	}

	return nil
}

func (s *MinioService) UploadFile(ctx context.Context, bucket, object, localPath, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file failed (path=%s): %w", localPath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat file failed: %w", err)
	}

	_, err = s.client.PutObject(ctx, bucket, object, file, stat.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object failed (bucket=%s, object=%s): %w", bucket, object, err)
	}

	return nil
}

func (s *MinioService) ListObjects(ctx context.Context, bucket string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects failed (bucket=%s): %w", bucket, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *MinioService) RemoveObjects(ctx context.Context, bucket string, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, key := range keys {
			select {
			case objectsCh <- minio.ObjectInfo{Key: key}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for rErr := range s.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			return fmt.Errorf("remove object failed (bucket=%s, object=%s): %w", bucket, rErr.ObjectName, rErr.Err)
		}
	}
	return ctx.Err()
}

func (s *MinioService) RemoveBucket(ctx context.Context, bucket string) error {
	if err := s.client.RemoveBucket(ctx, bucket); err != nil {
		return fmt.Errorf("remove bucket failed (bucket=%s): %w", bucket, err)
	}
	return nil
}
