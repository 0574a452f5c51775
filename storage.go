package currency

import (
	"context"
	"time"
)

const (
	ConversionsPrefix = "conversions/"
	ReportsPrefix     = "reports/"
)

type (
	// Object is a single entry of a storage listing.
	Object struct {
		Key          string
		Size         int64
		LastModified time.Time
	}

	// StoredConversion is a decoded conversion together with the metadata of
	// the object it was read from.
	StoredConversion struct {
		Object
		Conversion
	}

	// Storage is a key based object store. Keys are opaque; List returns the
	// objects whose key starts with prefix ordered by key, and an empty listing
	// is not an error.
	Storage interface {
		List(ctx context.Context, prefix string) ([]Object, error)
		Get(ctx context.Context, key string) ([]byte, error)
		Put(ctx context.Context, key string, body []byte) error
		Delete(ctx context.Context, key string) error
		GetStorageProviderName() string
		Close() error
	}
)
