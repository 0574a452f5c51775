package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"

	currency "github.com/malusev998/currency-converter"
)

type gcsStorage struct {
	service *storagev1.Service
	bucket  string
}

// NewGCSStorage talks to the Cloud Storage JSON API. Without CredentialsFile
// the application default credentials are used.
func NewGCSStorage(c GCSConfig) (currency.Storage, error) {
	if c.Bucket == "" {
		return nil, ErrBucketRequired
	}

	opts := make([]option.ClientOption, 0, 2)

	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}

	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}

	st, err := newGCSStorage(contextOrBackground(c.Ctx), c.Bucket, opts...)
	if err != nil {
		return nil, err
	}

	return st, nil
}

func newGCSStorage(ctx context.Context, bucket string, opts ...option.ClientOption) (*gcsStorage, error) {
	service, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &gcsStorage{service: service, bucket: bucket}, nil
}

func isGoogleNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func (g *gcsStorage) List(ctx context.Context, prefix string) ([]currency.Object, error) {
	res, err := g.service.Objects.List(g.bucket).Prefix(prefix).Context(ctx).Do()
	if err != nil {
		return nil, unreachable("list", prefix, err)
	}

	objects := make([]currency.Object, 0, len(res.Items))

	for _, item := range res.Items {
		updated, err := time.Parse(time.RFC3339, item.Updated)
		if err != nil {
			return nil, unreachable("list", item.Name, err)
		}

		objects = append(objects, currency.Object{
			Key:          item.Name,
			Size:         int64(item.Size),
			LastModified: updated,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})

	return objects, nil
}

func (g *gcsStorage) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := g.service.Objects.Get(g.bucket, key).Context(ctx).Download()
	if err != nil {
		if isGoogleNotFound(err) {
			return nil, notFound(key)
		}

		return nil, unreachable("get", key, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, unreachable("read", key, err)
	}

	return body, nil
}

func (g *gcsStorage) Put(ctx context.Context, key string, body []byte) error {
	object := &storagev1.Object{
		Name:        key,
		ContentType: "application/json",
	}

	_, err := g.service.Objects.Insert(g.bucket, object).
		Media(bytes.NewReader(body), googleapi.ContentType("application/json")).
		Context(ctx).
		Do()
	if err != nil {
		return unreachable("put", key, err)
	}

	return nil
}

// Delete treats a missing object as already deleted, matching S3.
func (g *gcsStorage) Delete(ctx context.Context, key string) error {
	err := g.service.Objects.Delete(g.bucket, key).Context(ctx).Do()
	if err != nil && !isGoogleNotFound(err) {
		return unreachable("delete", key, err)
	}

	return nil
}

func (g *gcsStorage) GetStorageProviderName() string {
	return string(GCS)
}

func (g *gcsStorage) Close() error {
	return nil
}
