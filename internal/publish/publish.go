// Package publish uploads written proposal files to S3.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// objectPutter is the subset of *s3.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads proposals to s3://<Bucket>/<Prefix>/<runID>/<file>.
type S3Publisher struct {
	Bucket string
	Prefix string
	client objectPutter
}

// NewS3Publisher loads AWS credentials from the default chain. It returns
// nil when no bucket is configured.
func NewS3Publisher(ctx context.Context, cfg types.PublishConfig) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Publisher{
		Bucket: cfg.Bucket,
		Prefix: cfg.Prefix,
		client: s3.NewFromConfig(awsCfg),
	}, nil
}

// Publish uploads the Markdown and HTML files and returns their s3:// URLs.
// Empty paths are skipped.
func (p *S3Publisher) Publish(ctx context.Context, runID string, files types.ProposalFiles) ([]string, error) {
	var urls []string
	for _, f := range []string{files.Markdown, files.HTML} {
		if f == "" {
			continue
		}
		key := p.Key(runID, filepath.Base(f))
		if err := p.put(ctx, f, key); err != nil {
			return urls, err
		}
		urls = append(urls, "s3://"+p.Bucket+"/"+key)
	}
	return urls, nil
}

// Key returns the object key for a file of a run.
func (p *S3Publisher) Key(runID, name string) string {
	prefix := strings.Trim(p.Prefix, "/")
	if prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(prefix, runID, name)
}

func (p *S3Publisher) put(ctx context.Context, file, key string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", p.Bucket, key, err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}
