package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/config"
)

// StorageService кладёт картинки вопросов в объектное хранилище и возвращает
// постоянный URL, который хранится на записи вопроса как есть.
type StorageService struct {
	client *s3.Client
	bucket string
	region string
}

func NewStorageService(ctx context.Context, cfg *config.Config) (*StorageService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	return &StorageService{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		region: cfg.AWSRegion,
	}, nil
}

// UploadImage загружает картинку под уникальным ключом и возвращает её URL.
func (s *StorageService) UploadImage(ctx context.Context, field string, data []byte, contentType string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("%w: бакет не настроен", apperrors.ErrUpstream)
	}

	key := fmt.Sprintf("images/%s-%s", field, uuid.New().String())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
