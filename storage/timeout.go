package storage

import (
	"context"
	"time"

	currency "github.com/malusev998/currency-converter"
)

const DefaultTimeout = 10 * time.Second

type timeoutStorage struct {
	next    currency.Storage
	timeout time.Duration
}

// WithTimeout bounds every call made to st. A non-positive timeout falls back
// to DefaultTimeout.
func WithTimeout(st currency.Storage, timeout time.Duration) currency.Storage {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &timeoutStorage{next: st, timeout: timeout}
}

func (t *timeoutStorage) List(ctx context.Context, prefix string) ([]currency.Object, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.next.List(ctx, prefix)
}

func (t *timeoutStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.next.Get(ctx, key)
}

func (t *timeoutStorage) Put(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.next.Put(ctx, key, body)
}

func (t *timeoutStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.next.Delete(ctx, key)
}

func (t *timeoutStorage) GetStorageProviderName() string {
	return t.next.GetStorageProviderName()
}

func (t *timeoutStorage) Close() error {
	return t.next.Close()
}
