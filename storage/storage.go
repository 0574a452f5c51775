package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	currency "github.com/malusev998/currency-converter"
)

type (
	Provider   string
	BaseConfig struct {
		Ctx     context.Context
		Migrate bool
	}
	S3Config struct {
		BaseConfig
		Bucket   string
		Region   string
		Endpoint string
	}
	GCSConfig struct {
		BaseConfig
		Bucket          string
		CredentialsFile string
		Endpoint        string
	}
	MySQLConfig struct {
		BaseConfig
		ConnectionString string
		TableName        string
		IDGenerator      IDGenerator
	}
	PostgresConfig struct {
		BaseConfig
		ConnectionString string
		TableName        string
		IDGenerator      IDGenerator
	}
	MongoDBConfig struct {
		BaseConfig
		ConnectionString string
		Database         string
		Collection       string
	}
	MemoryConfig struct {
		Now func() time.Time
	}
)

const (
	S3       Provider = "s3"
	GCS      Provider = "gcs"
	MySQL    Provider = "mysql"
	Postgres Provider = "postgres"
	MongoDB  Provider = "mongodb"
	Memory   Provider = "memory"
)

var (
	ErrStorageNotFound = errors.New("storage is not found")
	ErrBucketRequired  = errors.New("bucket name is required")
)

func ConvertToProviderFromString(str string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "s3", "aws":
		return S3, nil
	case "gcs", "google":
		return GCS, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mongodb", "mongo":
		return MongoDB, nil
	case "memory":
		return Memory, nil
	}

	return "", fmt.Errorf("value %s is not valid Provider", str)
}

func NewStorage(provider Provider, config interface{}) (currency.Storage, error) {
	var (
		st  currency.Storage
		err error
		ok  bool
	)

	switch provider {
	case S3:
		var c S3Config
		if c, ok = config.(S3Config); ok {
			st, err = NewS3Storage(c)
		}
	case GCS:
		var c GCSConfig
		if c, ok = config.(GCSConfig); ok {
			st, err = NewGCSStorage(c)
		}
	case MySQL:
		var c MySQLConfig
		if c, ok = config.(MySQLConfig); ok {
			st, err = sqlOrNil(NewMySQLStorage(c))
		}
	case Postgres:
		var c PostgresConfig
		if c, ok = config.(PostgresConfig); ok {
			st, err = sqlOrNil(NewPostgresStorage(c))
		}
	case MongoDB:
		var c MongoDBConfig
		if c, ok = config.(MongoDBConfig); ok {
			st, err = NewMongoStorage(c)
		}
	case Memory:
		c, _ := config.(MemoryConfig)
		return NewMemoryStorage(c.Now), nil
	default:
		return nil, ErrStorageNotFound
	}

	if !ok {
		return nil, fmt.Errorf("storage %s got config of type %T", provider, config)
	}

	if err != nil {
		return nil, err
	}

	return st, nil
}

func sqlOrNil(st *SQLStorage, err error) (currency.Storage, error) {
	if err != nil {
		return nil, err
	}

	return st, nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}

	return ctx
}

func unreachable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", currency.ErrStoreUnreachable, op, key, err)
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", currency.ErrObjectNotFound, key)
}
