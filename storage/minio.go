package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"podforge/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	minioBucket string
)

// InitMinio 初始化 MinIO 客户端并确保存储桶存在
func InitMinio(cfg *config.Config) error {
	log.Printf("正在连接 MinIO 服务器: %s (bucket=%s)", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 检查存储桶是否存在，不存在则创建
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		log.Printf("成功创建存储桶: %s", cfg.MinioBucket)
	}

	minioClient = client
	minioBucket = cfg.MinioBucket
	log.Println("MinIO 客户端初始化成功")
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例
func GetMinioClient() *minio.Client {
	return minioClient
}

// MinioStore exposes the asset operations the pipeline and handlers depend on:
// save raw bytes under a name, delete, existence check and streamed reads.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore returns a store bound to the globally initialized client.
func NewMinioStore() *MinioStore {
	return &MinioStore{client: minioClient, bucket: minioBucket}
}

// Save uploads data under the given object name and returns the stored path.
func (s *MinioStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}

	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", name, err)
	}
	return name, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *MinioStore) Delete(ctx context.Context, path string) error {
	if s.client == nil {
		return fmt.Errorf("minio client not initialized")
	}

	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// Exists reports whether an object is present in the bucket.
func (s *MinioStore) Exists(ctx context.Context, path string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("minio client not initialized")
	}

	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", path, err)
	}
	return true, nil
}

// Open returns a streamed reader over the object body.
func (s *MinioStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("minio client not initialized")
	}

	object, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", path, err)
	}
	return object, nil
}
