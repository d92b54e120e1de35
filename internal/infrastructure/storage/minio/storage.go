package miniostore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

// Storage is the MinIO blob store. Containers map to buckets, created on
// first use.
type Storage struct {
	client *minio.Client
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func New(opts Options) (*Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &Storage{client: client}, nil
}

func (s *Storage) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		// Concurrent creators race here; the bucket existing is fine.
		if exists, checkErr := s.client.BucketExists(ctx, bucket); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *Storage) Put(ctx context.Context, container, key string, data io.Reader, size int64, contentType string) error {
	if err := s.ensureBucket(ctx, container); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, container, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", container, key, err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, container, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, container, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", container, key, err)
	}
	// GetObject is lazy; Stat forces the first round trip so absence surfaces
	// here, not on first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get object", err)
		}
		return nil, fmt.Errorf("stat object %s/%s: %w", container, key, err)
	}
	return obj, nil
}

func (s *Storage) Exists(ctx context.Context, container, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, container, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s/%s: %w", container, key, err)
}

func (s *Storage) List(ctx context.Context, container string) ([]ports.ObjectInfo, error) {
	exists, err := s.client.BucketExists(ctx, container)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", container, err)
	}
	if !exists {
		return []ports.ObjectInfo{}, nil
	}

	infos := []ports.ObjectInfo{}
	for obj := range s.client.ListObjects(ctx, container, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", container, obj.Err)
		}
		infos = append(infos, ports.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			CreatedOn:    obj.LastModified,
			LastModified: obj.LastModified,
		})
	}
	return infos, nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
	}
	return false
}
