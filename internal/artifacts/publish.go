package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PublishConfig selects the bucket that receives published artifacts.
type PublishConfig struct {
	Bucket    string `yaml:"bucket" json:"bucket" toml:"bucket"`
	Prefix    string `yaml:"prefix" json:"prefix" toml:"prefix"`
	Region    string `yaml:"region" json:"region" toml:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint" toml:"endpoint"`
	AccessKey string `yaml:"accessKey" json:"accessKey" toml:"accessKey"`
	SecretKey string `yaml:"secretKey" json:"secretKey" toml:"secretKey"`
}

// Uploader is the subset of the S3 transfer manager used for publishing.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher uploads artifact pairs to a bucket.
type S3Publisher struct {
	bucket   string
	prefix   string
	uploader Uploader
}

// NewS3Publisher builds a publisher from cfg using the default AWS credential
// chain unless static keys are configured.
func NewS3Publisher(ctx context.Context, cfg PublishConfig) (*S3Publisher, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("artifacts: publish bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("artifacts: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewPublisherWithUploader(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

// NewPublisherWithUploader wires a publisher to an existing uploader.
func NewPublisherWithUploader(bucket, prefix string, uploader Uploader) *S3Publisher {
	return &S3Publisher{bucket: bucket, prefix: strings.Trim(prefix, "/"), uploader: uploader}
}

// Key returns the object key for an artifact name.
func (p *S3Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads the documents artifact and then the index artifact.
func (p *S3Publisher) Publish(ctx context.Context, pair Pair) error {
	docs, index, err := pair.Encode()
	if err != nil {
		return err
	}
	for _, object := range []struct {
		name string
		body []byte
	}{
		{DocsFile, docs},
		{IndexFile, index},
	} {
		_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(p.Key(object.name)),
			Body:        bytes.NewReader(object.body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("artifacts: upload %s: %w", object.name, err)
		}
	}
	return nil
}
