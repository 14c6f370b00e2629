// Package storage hands out presigned URLs for meeting attachments kept in
// an S3-compatible bucket. File bytes never pass through the API server.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const DefaultTTL = 15 * time.Minute

var ErrNoBucket = errors.New("s3 bucket is required")

// Swapped out in tests.
var (
	loadAWSConfig = config.LoadDefaultConfig

	presignPut = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGet = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

type Options struct {
	Endpoint string
	Region   string
	Bucket   string
	User     string
	Password string
	TTL      time.Duration
}

type Presigned struct {
	Key       string    `json:"storage_key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Presigner struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

func New(ctx context.Context, opts Options) (*Presigner, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	cfg, err := loadAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.User, opts.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		// MinIO and most self-hosted stores only speak path-style.
		o.UsePathStyle = true
	})
	return &Presigner{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		ttl:     opts.TTL,
		now:     time.Now,
	}, nil
}

// NewKey returns a fresh object key under the meeting's prefix.
func NewKey(meetingID int64) string {
	return fmt.Sprintf("meetings/%d/%s", meetingID, uuid.NewString())
}

func (p *Presigner) PresignUpload(ctx context.Context, key, contentType string) (*Presigned, error) {
	in := &s3.PutObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := presignPut(p.presign, ctx, in, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}
	return &Presigned{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: p.now().Add(p.ttl)}, nil
}

func (p *Presigner) PresignDownload(ctx context.Context, key, fileName string) (*Presigned, error) {
	in := &s3.GetObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)}
	if fileName != "" {
		in.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", fileName))
	}
	req, err := presignGet(p.presign, ctx, in, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}
	return &Presigned{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: p.now().Add(p.ttl)}, nil
}

// Remove deletes the object. Deleting a missing key is not an error in S3.
func (p *Presigner) Remove(ctx context.Context, key string) error {
	if err := deleteObject(p.client, ctx, &s3.DeleteObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
