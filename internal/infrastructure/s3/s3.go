package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"filedrive/config"
	"filedrive/internal/domain/blob"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Client talks to any S3-compatible endpoint (AWS, Supabase storage, MinIO).
type Client struct {
	logger  *zap.Logger
	api     objectAPI
	presign presignAPI
	bucket  string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.S3,
) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("s3 client configured",
		zap.String("bucket", cfg.BucketUploads),
		zap.String("endpoint", cfg.Endpoint),
	)

	return newClient(logger, api, s3.NewPresignClient(api), cfg.BucketUploads), nil
}

func newClient(logger *zap.Logger, api objectAPI, presign presignAPI, bucket string) *Client {
	return &Client{
		logger:  logger,
		api:     api,
		presign: presign,
		bucket:  bucket,
	}
}

func (c *Client) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := c.api.PutObject(ctx, in); err != nil {
		return "", blob.NewError(blob.OpUpload, key, classify(err), err)
	}

	return key, nil
}

func (c *Client) CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", blob.NewError(blob.OpSignedURL, key, classify(err), err)
	}

	return req.URL, nil
}

func (c *Client) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		kind := classify(err)
		if kind == blob.KindNotFound {
			return nil
		}
		return blob.NewError(blob.OpRemove, keys[0], kind, err)
	}

	for _, e := range out.Errors {
		code := aws.ToString(e.Code)
		if code == "NoSuchKey" {
			continue
		}
		return blob.NewError(
			blob.OpRemove,
			aws.ToString(e.Key),
			kindFromCode(code),
			fmt.Errorf("%s: %s", code, aws.ToString(e.Message)),
		)
	}

	return nil
}

func classify(err error) blob.Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return blob.KindUnavailable
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return kindFromCode(apiErr.ErrorCode())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return blob.KindUnavailable
	}
	return blob.KindUnknown
}

func kindFromCode(code string) blob.Kind {
	switch code {
	case "NoSuchKey", "NotFound":
		return blob.KindNotFound
	case "InvalidArgument", "InvalidRequest", "EntityTooLarge", "KeyTooLongError", "NoSuchBucket", "AccessDenied":
		return blob.KindInvalid
	case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout", "RequestTimeTooSkewed":
		return blob.KindUnavailable
	default:
		return blob.KindUnknown
	}
}
