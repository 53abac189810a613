package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/configuration"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectClient is the subset of an S3-compatible API the remote backend
// needs.
type ObjectClient interface {
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) (*Body, error)
	RemoveObject(ctx context.Context, key string) error
	CheckConnection(ctx context.Context) error
}

// MinioService talks to R2, MinIO or S3 through minio-go.
type MinioService struct {
	Client     *minio.Client
	BucketName string
}

// NewMinioService builds a client for cfg. It does not contact the server.
func NewMinioService(cfg configuration.RemoteConfig) (*MinioService, error) {
	host, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioService{Client: client, BucketName: cfg.Bucket}, nil
}

// parseEndpoint accepts either a bare host[:port] or a URL. A URL's scheme
// decides TLS; bare hosts use the configured default.
func parseEndpoint(raw string, defaultSecure bool) (string, bool, error) {
	if raw == "" {
		return "s3.amazonaws.com", true, nil
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimSuffix(raw, "/"), defaultSecure, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("invalid remote endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid remote endpoint %q: missing host", raw)
	}
	return u.Host, u.Scheme == "https", nil
}

// CheckConnection verifies the bucket is reachable.
func (m *MinioService) CheckConnection(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("minio service not initialized")
	}
	exists, err := m.Client.BucketExists(ctx, m.BucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.BucketName)
	}
	return nil
}

func (m *MinioService) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.BucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// GetObject stats the object before returning so a missing key fails here
// rather than on the first read.
func (m *MinioService) GetObject(ctx context.Context, key string) (*Body, error) {
	obj, err := m.Client.GetObject(ctx, m.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return ReaderBody(obj), nil
}

func (m *MinioService) RemoveObject(ctx context.Context, key string) error {
	return m.Client.RemoveObject(ctx, m.BucketName, key, minio.RemoveObjectOptions{})
}

var notFoundPattern = regexp.MustCompile(`(?i)NoSuchKey|NotFound`)

// isRemoteNotFound recognizes a missing object by status code, S3 error
// code, or message.
func isRemoteNotFound(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.StatusCode == 404 || resp.Code == "NoSuchKey") {
		return true
	}
	return notFoundPattern.MatchString(err.Error())
}

var _ ObjectClient = (*MinioService)(nil)
