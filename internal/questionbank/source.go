package questionbank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"quizwhiz-service/internal/domain"
)

// Source provides the raw CSV question bank.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads the bank from a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.Path, domain.ErrNoQuestionSource)
	}
	return f, err
}

func (s FileSource) String() string {
	return "file:" + s.Path
}

// MinioConfig locates a bank object in S3-compatible storage.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// MinioSource reads the bank from an object in MinIO or any S3-compatible store.
type MinioSource struct {
	client *minio.Client
	bucket string
	object string
}

func NewMinioSource(cfg MinioConfig) (*MinioSource, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioSource{client: client, bucket: cfg.Bucket, object: cfg.Object}, nil
}

func (s *MinioSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing bucket or key before parsing starts.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			return nil, fmt.Errorf("%s: %w", s, domain.ErrNoQuestionSource)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (s *MinioSource) String() string {
	return fmt.Sprintf("minio:%s/%s", s.bucket, s.object)
}
