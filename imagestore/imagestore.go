// Package imagestore uploads post images to an S3-compatible bucket and
// hands back the public URL the post row stores. It is optional: when no
// object store is configured the create screen accepts direct URLs only.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultContentType = "application/octet-stream"

// ClientMinio is the slice of the minio API the store uses; tests mock it.
type ClientMinio interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
}

type MinioStore struct {
	endpoint   string
	bucketName string
	useSSL     bool
	client     ClientMinio
}

func NewMinioStore(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*MinioStore, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{
		endpoint:   endpoint,
		bucketName: bucketName,
		useSSL:     useSSL,
		client:     minioClient,
	}, nil
}

// Upload stores the object and returns its public URL.
func (s *MinioStore) Upload(ctx context.Context, objectName string, object io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, object, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", objectName, err)
	}
	return s.publicURL(objectName), nil
}

func (s *MinioStore) publicURL(objectName string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucketName, strings.TrimPrefix(objectName, "/"))
}
