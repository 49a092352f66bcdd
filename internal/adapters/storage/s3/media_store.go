// Package s3 implements the media upload collaborator against any
// S3-compatible object store (AWS S3, MinIO).
package s3

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/platform/config"
)

type MediaStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

var _ portssvc.MediaSvcFacade = (*MediaStore)(nil)

// NewMediaStore builds an S3 client from the application config. A custom
// endpoint with path-style addressing is used when MEDIA_S3_ENDPOINT is set
// (MinIO and friends).
func NewMediaStore(ctx context.Context, cfg *config.Config) (*MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.MediaS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.MediaS3AccessKey,
			cfg.MediaS3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load media store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.MediaS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.MediaS3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := cfg.MediaPublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.MediaS3Bucket, cfg.MediaS3Region)
	}

	return &MediaStore{
		client:        client,
		bucket:        cfg.MediaS3Bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// UploadFile puts the local file into the bucket and returns its public URL.
// The local temp file is removed whether the upload succeeds or fails, so no
// orphaned files accumulate in the upload directory.
func (m *MediaStore) UploadFile(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open local file for upload: %w", err)
	}
	defer f.Close()

	key := storageKey(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media object: %w", err)
	}

	return m.publicBaseURL + "/" + key, nil
}

func storageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}
