package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/tammmikel/task-botv2/internal/config"
	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

var ErrFileTooLarge = errors.New("file exceeds size limit")

// MinioFileStore хранит вложения задач в S3-совместимом хранилище.
type MinioFileStore struct {
	client *minio.Client
	bucket string
	logger *zerolog.Logger
}

func NewFileStore(ctx context.Context, cfg config.StorageConfig, logger *zerolog.Logger) (*MinioFileStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioFileStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Upload загружает вложение и возвращает ключ объекта. Для поддерживаемых
// изображений дополнительно создается миниатюра; ошибка миниатюры не
// считается фатальной.
func (s *MinioFileStore) Upload(ctx context.Context, taskID, fileName, contentType string, size int64, body io.Reader) (string, string, error) {
	if size > models.MaxFileSize {
		return "", "", ErrFileTooLarge
	}

	key := objectKey(taskID, fileName)

	if !isSupportedImage(contentType) {
		opts := minio.PutObjectOptions{ContentType: contentType}
		if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, opts); err != nil {
			return "", "", fmt.Errorf("failed to upload file: %w", err)
		}
		return key, "", nil
	}

	// Изображение читаем целиком: оно нужно и для загрузки, и для миниатюры
	data, err := io.ReadAll(io.LimitReader(body, models.MaxFileSize+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > models.MaxFileSize {
		return "", "", ErrFileTooLarge
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	thumbData, thumbContentType, err := makeThumbnail(data, contentType)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", fileName).Msg("thumbnail generation failed")
		return key, "", nil
	}

	tKey := thumbKey(key, thumbContentType)
	thumbOpts := minio.PutObjectOptions{ContentType: thumbContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, tKey, bytes.NewReader(thumbData), int64(len(thumbData)), thumbOpts); err != nil {
		s.logger.Warn().Err(err).Str("file", fileName).Msg("thumbnail upload failed")
		return key, "", nil
	}

	return key, tKey, nil
}

func (s *MinioFileStore) PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign url: %w", err)
	}
	return u.String(), nil
}

func (s *MinioFileStore) Remove(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}

func objectKey(taskID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("tasks/%s/%s%s", taskID, uuid.New().String(), ext)
}

// thumbKey строит ключ миниатюры рядом с оригиналом: суффикс _thumb и
// расширение по фактическому формату миниатюры.
func thumbKey(key, thumbContentType string) string {
	base := strings.TrimSuffix(key, filepath.Ext(key))
	return base + "_thumb" + extForContentType(thumbContentType)
}
