package imagestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func TestUpload(t *testing.T) {
	mockClient := new(MockMinioClient)
	store := &MinioStore{
		endpoint:   "s3.test:9000",
		bucketName: "glimpse",
		useSSL:     true,
		client:     mockClient,
	}

	content := []byte("jpeg-bytes")
	mockClient.On(
		"PutObject", mock.Anything, "glimpse", "u1/pic.jpg", int64(len(content)),
		minio.PutObjectOptions{ContentType: "image/jpeg"},
	).Return(minio.UploadInfo{Key: "u1/pic.jpg"}, nil)

	url, err := store.Upload(context.Background(), "u1/pic.jpg", bytes.NewReader(content), int64(len(content)), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test:9000/glimpse/u1/pic.jpg", url)
	mockClient.AssertExpectations(t)
}

func TestUploadDefaultsContentType(t *testing.T) {
	mockClient := new(MockMinioClient)
	store := &MinioStore{
		endpoint:   "s3.test:9000",
		bucketName: "glimpse",
		client:     mockClient,
	}

	mockClient.On(
		"PutObject", mock.Anything, "glimpse", "u1/raw", int64(3),
		minio.PutObjectOptions{ContentType: defaultContentType},
	).Return(minio.UploadInfo{}, nil)

	url, err := store.Upload(context.Background(), "u1/raw", bytes.NewReader([]byte("abc")), 3, "")
	require.NoError(t, err)
	assert.Equal(t, "http://s3.test:9000/glimpse/u1/raw", url)
}

func TestUploadError(t *testing.T) {
	mockClient := new(MockMinioClient)
	store := &MinioStore{
		endpoint:   "s3.test:9000",
		bucketName: "glimpse",
		client:     mockClient,
	}

	mockClient.On("PutObject", mock.Anything, "glimpse", "u1/pic.jpg", mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	_, err := store.Upload(context.Background(), "u1/pic.jpg", bytes.NewReader(nil), 0, "image/jpeg")
	assert.Error(t, err)
}
