package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/user/cinereview/internal/config"
)

// Bucket 对象存储桶
type Bucket interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

type MinIOBucket struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

func NewMinIOBucket(cfg config.MinIO) (*MinIOBucket, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinIOBucket{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// EnsureBucket 桶不存在时创建
func (b *MinIOBucket) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	return nil
}

func (b *MinIOBucket) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("上传到 MinIO 失败: %w", err)
	}
	return nil
}

// PublicURL {publicURL}/{bucket}/{key}
func (b *MinIOBucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.publicURL, b.bucket, key)
}
