// Package s3 writes each flushed buffer of collector records to Amazon S3
// (or an S3-compatible service) as one JSON-lines object.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/storage"
)

// ContentType is set on every written object.
const ContentType = "application/x-ndjson"

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(_ storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("s3: expected *s3.Config, got %T", providerCfg)
			}
			c = pc
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewStorage(context.Background(), c, log)
	})
}

// API is the subset of the S3 client the backend uses.
type API interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Storage implements storage.Storage using Amazon S3 (or S3-compatible services).
type Storage struct {
	client API
	bucket string
	prefix string
	log    *logger.Logger
	now    func() time.Time
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Pinger  = (*Storage)(nil)
	_ API             = (*awss3.Client)(nil)
)

// NewStorage creates a new S3 storage client from the given config.
func NewStorage(ctx context.Context, cfg *Config, log *logger.Logger) (*Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return New(awss3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.KeyPrefix, log), nil
}

// New creates a storage over an existing client.
func New(client API, bucket, keyPrefix string, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Storage{
		client: client,
		bucket: bucket,
		prefix: keyPrefix,
		log:    log.WithComponent("s3"),
		now:    time.Now,
	}
}

// ObjectKey builds the key of a new object for table.
func (s *Storage) ObjectKey(table string) string {
	return fmt.Sprintf("%s%s/%s-%s.jsonl", s.prefix, table, s.now().UTC().Format("20060102T150405Z"), uuid.NewString())
}

// InsertData writes records as one JSON-lines object and returns their ids.
func (s *Storage) InsertData(ctx context.Context, table string, records []storage.Record) ([]string, error) {
	if len(records) == 0 {
		return []string{}, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	ids := make([]string, len(records))
	for i, r := range records {
		var row storage.Record
		row, ids[i] = storage.WithID(r)
		if err := enc.Encode(row); err != nil {
			return nil, apperrors.InvalidInput(table, fmt.Sprintf("record %d is not serializable", i)).WithCause(err)
		}
	}

	key := s.ObjectKey(table)
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return nil, apperrors.ExternalServiceError("s3", err).WithDetail("key", key)
	}
	s.log.WithContext(ctx).Debug("object written", map[string]interface{}{
		"key":     key,
		"records": len(records),
		"bytes":   buf.Len(),
	})
	return ids, nil
}

// Ping checks that the bucket is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("storage: s3 head bucket: %w", err)
	}
	return nil
}

// Keys lists the object keys written for table.
func (s *Storage) Keys(ctx context.Context, table string) ([]string, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + table + "/"),
	}

	var keys []string
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("storage: s3 list: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return keys, nil
}
