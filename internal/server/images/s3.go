package images

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/foodgram/internal/server/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// URLValidity is the lifetime of presigned GET urls.
const URLValidity = time.Hour

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config holds the MinIO/S3 connection settings.
type S3Config struct {
	Region       string
	RootUser     string
	RootPassword string
	BaseEndpoint string
	Bucket       string
}

// S3Store writes images to an S3 compatible bucket. Uploads go through a
// circuit breaker so a dead storage fails requests fast.
type S3Store struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
	breaker *gobreaker.CircuitBreaker[any]
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.RootUser,     // MINIO_ROOT_USER
			c.RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		bucket:  c.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
		breaker: newBreaker("s3-images"),
	}, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

func (s *S3Store) Save(ctx context.Context, img *Image) (string, error) {
	key := NewStorageKey(img.Ext)

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, putObject(s.client, ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(img.Data),
			ContentType:   aws.String(img.ContentType),
			ContentLength: aws.Int64(int64(len(img.Data))),
		})
	})
	metrics.RecordImageUpload(err)
	if err != nil {
		return "", fmt.Errorf("image upload: %w", err)
	}

	return key, nil
}

// Delete removes the object under key. An empty key is a no-op.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, deleteObject(s.client, ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	})
	metrics.RecordImageDelete(err)
	if err != nil {
		return fmt.Errorf("image delete: %w", err)
	}
	return nil
}

// URL presigns a GET for key. Presigning is local, no breaker needed.
func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(URLValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
