package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 stores objects in an Amazon S3 (or S3-compatible) bucket.
type S3 struct {
	client s3iface.S3API
	bucket string
}

// NewS3 creates an S3 backend. Without static keys the default AWS
// credential chain is used.
func NewS3(cfg *models.S3Config) (*S3, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg := &aws.Config{}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3WithClient(s3.New(sess), cfg.Bucket), nil
}

// NewS3WithClient creates an S3 backend over an existing client (useful for testing).
func NewS3WithClient(client s3iface.S3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

// Put uploads body to the bucket. opts.Encryption is sent as the
// server-side encryption header.
func (b *S3) Put(ctx context.Context, key string, body io.ReadSeeker, opts models.PutOptions) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.Encryption != "" {
		input.ServerSideEncryption = aws.String(opts.Encryption)
	}

	if _, err := b.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s: %w", b.URI(key), err)
	}
	return nil
}

// List pages through every object under prefix.
func (b *S3) List(ctx context.Context, prefix string) ([]models.ObjectInfo, error) {
	var objects []models.ObjectInfo

	err := b.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			objects = append(objects, models.ObjectInfo{
				Key:          aws.StringValue(obj.Key),
				LastModified: aws.TimeValue(obj.LastModified),
				Size:         aws.Int64Value(obj.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", b.bucket, prefix, err)
	}

	return objects, nil
}

// Delete removes key from the bucket.
func (b *S3) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", b.URI(key), err)
	}
	return nil
}

// URI returns s3://bucket/key.
func (b *S3) URI(key string) string {
	return "s3://" + b.bucket + "/" + key
}
