// Package storage provides the blob-storage gateway backing event images
// and result/timetable documents. It wraps the AWS S3 SDK so the portal can
// talk to any S3-compatible object store and derive public URLs for
// uploaded objects.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cscinfonest/portal-api/pkg/config"
)

// Client provides object storage operations against a set of portal buckets.
type Client struct {
	s3         *s3.Client
	publicBase string
}

// New creates a blob storage client from portal configuration.
func New(ctx context.Context, cfg config.StorageConfig) (*Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage: access key id and secret key are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimRight(cfg.Endpoint, "/")
	}

	return &Client{s3: client, publicBase: publicBase}, nil
}

// Upload stores an object under the given bucket and key.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes an object. Missing objects are not reported as errors.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL returns the publicly reachable URL for a stored object.
func (c *Client) PublicURL(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicBase, bucket, strings.Join(segments, "/"))
}
