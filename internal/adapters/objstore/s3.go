package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Store writes objects to an S3-compatible bucket.
type S3Store struct {
	Client *s3.Client
	Bucket string

	// Prefix is prepended to every key, with no leading slash but
	// optionally (typically) with trailing slash, e.g. "uploads/" or "".
	Prefix string

	// PublicBaseURL is the URL root objects are served from, e.g. the
	// bucket website endpoint or a CDN domain.
	PublicBaseURL string
}

// Put uploads the object to the bucket.
// PRE: Client and Bucket are configured
// POST: Object exists at Prefix+key; returns the public URL
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	fullKey := s.Prefix + key
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(fullKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put s3 object %s: %w", fullKey, err)
	}
	return strings.TrimSuffix(s.PublicBaseURL, "/") + "/" + fullKey, nil
}

// Delete removes the object from the bucket. NotFound is not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	fullKey := s.Prefix + key
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "NotFound" {
			return nil
		}
		return fmt.Errorf("delete s3 object %s: %w", fullKey, err)
	}
	return nil
}
