package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/solstice-app/wallet-server/internal/model"
)

// objectStore is the subset of the MinIO client the backup store uses,
// extracted so tests can run without a real server.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

type clientWrapper struct{ c *minio.Client }

func (w clientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w clientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w clientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w clientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}

var _ model.BackupStorage = (*BackupStore)(nil)

// BackupStore writes sealed wallet snapshots to an object storage bucket.
// Snapshots hold only ciphertext, so the bucket never needs to be trusted
// with key material.
type BackupStore struct {
	api    objectStore
	bucket string
	prefix string
}

// NewBackupStore creates a backup store over a real MinIO client and ensures
// the target bucket exists.
func NewBackupStore(ctx context.Context, client *minio.Client, bucket string) (*BackupStore, error) {
	return newBackupStore(ctx, clientWrapper{c: client}, bucket)
}

func newBackupStore(ctx context.Context, api objectStore, bucket string) (*BackupStore, error) {
	s := &BackupStore{
		api:    api,
		bucket: bucket,
		prefix: "wallets/",
	}

	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return s, nil
}

// Upload stores a snapshot under the given key, overwriting any previous
// snapshot for the same key.
func (s *BackupStore) Upload(ctx context.Context, key string, reader io.Reader) error {
	opts := minio.PutObjectOptions{ContentType: "application/json"}
	if _, err := s.api.PutObject(ctx, s.bucket, s.prefix+key, reader, -1, opts); err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot is present for the given key.
func (s *BackupStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.StatObject(ctx, s.bucket, s.prefix+key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return true, nil
}
