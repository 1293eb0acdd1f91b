// Package archive mirrors accepted documents into object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/mindkeeper/internal/server/config"
)

type Archiver interface {
	Archive(ctx context.Context, key string, body []byte) error
}

// Nop discards everything. It is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, []byte) error { return nil }

// ObjectKey lays objects out by database, collection and archive date.
func ObjectKey(database, collection, id string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d/%02d/%02d/%s.json", database, collection, at.Year(), at.Month(), at.Day(), id)
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archiver writes JSON objects into one bucket of an S3-compatible store.
type S3Archiver struct {
	client objectPutter
	bucket string
}

var _ Archiver = (*S3Archiver)(nil)

func NewS3Archiver(ctx context.Context, c *sc.Config) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Archiver{client: client, bucket: c.S3Bucket}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
