// Package publish uploads release artifacts to remote destinations.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/utils"
)

// s3API is the subset of the S3 client the publisher needs
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures an S3Publisher. Credentials normally come from the
// AWS default chain; AccessKeyID/SecretAccessKey override it for
// S3-compatible stores that only hand out static keys.
type S3Options struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Retrier         *Retrier
	Logger          *utils.Logger
}

// S3Publisher uploads artifacts to an S3 (or S3-compatible) bucket
type S3Publisher struct {
	client  s3API
	bucket  string
	prefix  string
	retrier *Retrier
	logger  *utils.Logger
}

var _ domain.Publisher = (*S3Publisher)(nil)

// NewS3Publisher creates a publisher for the given bucket
func NewS3Publisher(ctx context.Context, opts S3Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 publisher requires a bucket")
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// MinIO and friends route by path, not virtual host
			o.UsePathStyle = true
		}
	})

	return newS3Publisher(client, opts), nil
}

func newS3Publisher(client s3API, opts S3Options) *S3Publisher {
	if opts.Retrier == nil {
		opts.Retrier = NewRetrier(DefaultRetrierOptions())
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}
	return &S3Publisher{
		client:  client,
		bucket:  opts.Bucket,
		prefix:  opts.Prefix,
		retrier: opts.Retrier,
		logger:  opts.Logger.WithComponent("publish"),
	}
}

// Name returns the publisher name
func (p *S3Publisher) Name() string {
	return "s3"
}

// Upload publishes one artifact under the release version
func (p *S3Publisher) Upload(ctx context.Context, art *domain.Artifact, version string) error {
	key := Key(p.prefix, version, art.Name)

	err := p.retrier.Retry(ctx, func() error {
		f, err := os.Open(art.Path)
		if err != nil {
			// A missing local file never heals on retry
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(p.bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(info.Size()),
		})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return &domain.RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		return domain.NewPublishError(key, err)
	}

	p.logger.Info().Str("bucket", p.bucket).Str("key", key).Msg("uploaded artifact")
	return nil
}

// Key builds the object key for an artifact: <prefix>/<version>/<name>
func Key(prefix, version, name string) string {
	return path.Join(prefix, version, name)
}
