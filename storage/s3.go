package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	currency "github.com/malusev998/currency-converter"
)

type (
	// s3API is the part of *s3.Client the storage uses.
	s3API interface {
		ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
		GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
		PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
		DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	}

	s3Storage struct {
		client s3API
		bucket string
	}
)

// NewS3Storage builds an S3 client from the default AWS credential chain.
// Endpoint switches to path-style addressing for S3 compatible services.
func NewS3Storage(c S3Config) (currency.Storage, error) {
	if c.Bucket == "" {
		return nil, ErrBucketRequired
	}

	opts := make([]func(*awsconfig.LoadOptions) error, 0, 1)

	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(contextOrBackground(c.Ctx), opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, c.Bucket), nil
}

func newS3Storage(client s3API, bucket string) *s3Storage {
	return &s3Storage{client: client, bucket: bucket}
}

// List issues a single ListObjectsV2 call; listings past the first page are not followed.
func (s *s3Storage) List(ctx context.Context, prefix string) ([]currency.Object, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, unreachable("list", prefix, err)
	}

	objects := make([]currency.Object, 0, len(out.Contents))

	for _, obj := range out.Contents {
		objects = append(objects, currency.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})

	return objects, nil
}

func (s *s3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, notFound(key)
		}

		return nil, unreachable("get", key, err)
	}

	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, unreachable("read", key, err)
	}

	return body, nil
}

func (s *s3Storage) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return unreachable("put", key, err)
	}

	return nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return unreachable("delete", key, err)
	}

	return nil
}

func (s *s3Storage) GetStorageProviderName() string {
	return string(S3)
}

func (s *s3Storage) Close() error {
	return nil
}
