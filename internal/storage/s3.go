package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const contentTypeWAV = "audio/wav"

// S3Client abstracts the S3 API operations used by [S3Mirror].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror uploads renders to a bucket under an optional prefix.
type S3Mirror struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Mirror creates a mirror using a pre-configured client.
func NewS3Mirror(client S3Client, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// An empty region uses the chain's region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func (m *S3Mirror) key(name string) string {
	if m.prefix == "" {
		return name
	}
	return m.prefix + "/" + name
}

// Save uploads data under the base name of name and returns its s3:// URI.
func (m *S3Mirror) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := m.key(path.Base(strings.ReplaceAll(name, "\\", "/")))
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeWAV),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload s3://%s/%s: %s", m.bucket, key, describeS3Error(err))
	}
	return "s3://" + m.bucket + "/" + key, nil
}

// describeS3Error renders service errors by code.
func describeS3Error(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	return err.Error()
}

var _ Sink = (*S3Mirror)(nil)
