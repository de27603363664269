package storage

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

// Uploader is the part of s3manager.Uploader used by S3Sink.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Config configures an S3Sink.
type S3Config struct {
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string
}

// S3Sink uploads documents to an S3 bucket.
type S3Sink struct {
	bucket   string
	prefix   string
	uploader Uploader
	logger   *zap.Logger
}

// NewS3Sink opens an AWS session from the default credential chain.
func NewS3Sink(cfg S3Config, logger *zap.Logger) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, &Error{Op: "configure", Location: "s3", Err: errors.New("bucket required")}
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, &Error{Op: "session", Location: "s3://" + cfg.Bucket, Err: err}
	}
	return NewS3SinkWithUploader(cfg, s3manager.NewUploader(sess), logger), nil
}

// NewS3SinkWithUploader wires a sink around an existing uploader.
func NewS3SinkWithUploader(cfg S3Config, uploader Uploader, logger *zap.Logger) *S3Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Sink{
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		uploader: uploader,
		logger:   logger,
	}
}

// Key returns the object key used for name.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Save uploads data under the sink prefix and returns the object location.
func (s *S3Sink) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.Key(name)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &Error{Op: "upload", Location: "s3://" + s.bucket + "/" + key, Err: err}
	}
	s.logger.Info("document uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return out.Location, nil
}
