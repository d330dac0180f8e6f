package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds construction parameters for the S3 sink.
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string // optional; set for MinIO or other S3-compatible stores
	AccessKeyID     string // optional; falls back to the default credential chain
	SecretAccessKey string
	PathStyle       bool
}

// S3Sink uploads documents to a single bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Sink creates an S3 sink from cfg.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, now: time.Now}, nil
}

// Put implements Sink. It returns an s3:// URI.
func (s *S3Sink) Put(ctx context.Context, doc Document) (string, error) {
	key := s.prefix + ObjectKey(doc, s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(doc.Body),
		ContentType:   aws.String(doc.ContentType),
		ContentLength: aws.Int64(int64(len(doc.Body))),
		Metadata:      map[string]string{"rows": fmt.Sprint(doc.Rows)},
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
