package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"filedrive/config"
	"filedrive/internal/domain/blob"
)

type objectAPI interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts miniogo.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Client is the MinIO-native blob store driver.
type Client struct {
	logger *zap.Logger
	api    objectAPI
	bucket string
}

func New(ctx context.Context, logger *zap.Logger, cfg config.S3) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid minio endpoint %q", cfg.Endpoint)
	}

	mc, err := miniogo.New(u.Host, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: u.Scheme == "https",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.BucketUploads)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err = mc.MakeBucket(ctx, cfg.BucketUploads, miniogo.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("minio bucket created", zap.String("bucket", cfg.BucketUploads))
	}

	return &Client{logger: logger, api: mc, bucket: cfg.BucketUploads}, nil
}

func (c *Client) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	info, err := c.api.PutObject(ctx, c.bucket, key, body, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", blob.NewError(blob.OpUpload, key, classify(err), err)
	}
	if info.Key != "" {
		return info.Key, nil
	}

	return key, nil
}

func (c *Client) CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := c.api.PresignedGetObject(ctx, c.bucket, key, ttl, nil)
	if err != nil {
		return "", blob.NewError(blob.OpSignedURL, key, classify(err), err)
	}

	return u.String(), nil
}

func (c *Client) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		err := c.api.RemoveObject(ctx, c.bucket, k, miniogo.RemoveObjectOptions{})
		if err == nil {
			continue
		}
		kind := classify(err)
		if kind == blob.KindNotFound {
			continue
		}
		return blob.NewError(blob.OpRemove, k, kind, err)
	}

	return nil
}

func classify(err error) blob.Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return blob.KindUnavailable
	}

	resp := miniogo.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchObject":
		return blob.KindNotFound
	case "InvalidArgument", "EntityTooLarge", "NoSuchBucket", "AccessDenied", "XMinioInvalidObjectName":
		return blob.KindInvalid
	case "SlowDown", "XMinioServerNotInitialized", "InternalError", "RequestTimeout":
		return blob.KindUnavailable
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return blob.KindNotFound
	case resp.StatusCode >= 500:
		return blob.KindUnavailable
	case resp.StatusCode >= 400:
		return blob.KindInvalid
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return blob.KindUnavailable
	}

	return blob.KindUnknown
}
