package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	currency "github.com/malusev998/currency-converter"
	"github.com/malusev998/currency-converter/fetchers"
	"github.com/malusev998/currency-converter/storage"
)

const envPrefix = "CURRENCY_CONVERTER"

type (
	FetchersConfig map[currency.Provider]interface{}
	StorageConfig  map[storage.Provider]interface{}
	Config         struct {
		Fetcher        currency.Provider
		Storage        storage.Provider
		FetchersConfig FetchersConfig
		StorageConfig  StorageConfig
		StorageTimeout time.Duration
		LogLevel       string
		LogPretty      bool
	}
)

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("api.provider", string(currency.ExchangeRateAPIProvider))
	v.SetDefault("api.timeout", fetchers.DefaultTimeout)
	v.SetDefault("storage.provider", string(storage.S3))
	v.SetDefault("storage.timeout", storage.DefaultTimeout)
	v.SetDefault("databases.mysql.table", "conversions")
	v.SetDefault("databases.postgres.table", "conversions")
	v.SetDefault("databases.mongodb.database", "currency_converter")
	v.SetDefault("databases.mongodb.collection", "objects")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("migrate", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		return v, nil
	}

	absolutePath, err := filepath.Abs(configFile)
	if err != nil {
		return nil, err
	}

	v.SetConfigFile(absolutePath)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error while reading config file %s: %w", absolutePath, err)
	}

	return v, nil
}

// loadEnv reads .env from the working directory when it exists. Values already
// present in the environment win.
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func getConfig(ctx context.Context, v *viper.Viper) (*Config, error) {
	fetcher, err := currency.ConvertToProviderFromString(v.GetString("api.provider"))
	if err != nil {
		return nil, fmt.Errorf("api.provider: %w", err)
	}

	st, err := storage.ConvertToProviderFromString(v.GetString("storage.provider"))
	if err != nil {
		return nil, fmt.Errorf("storage.provider: %w", err)
	}

	bucket := v.GetString("storage.bucket")

	if (st == storage.S3 || st == storage.GCS) && bucket == "" {
		return nil, fmt.Errorf("storage.bucket is required for %s: %w", st, storage.ErrBucketRequired)
	}

	if fetcher == currency.ExchangeRatesAPIProvider && v.GetString("api.key") == "" {
		return nil, fmt.Errorf("api.key is required for %s", fetcher)
	}

	storageBaseConfig := storage.BaseConfig{
		Ctx:     ctx,
		Migrate: v.GetBool("migrate"),
	}

	fetcherBaseConfig := fetchers.BaseConfig{
		URL:     v.GetString("api.url"),
		Timeout: v.GetDuration("api.timeout"),
	}

	return &Config{
		Fetcher:        fetcher,
		Storage:        st,
		StorageTimeout: v.GetDuration("storage.timeout"),
		LogLevel:       v.GetString("log.level"),
		LogPretty:      v.GetBool("log.pretty"),
		FetchersConfig: FetchersConfig{
			currency.ExchangeRateAPIProvider: fetchers.ExchangeRateAPIConfig{
				BaseConfig: fetcherBaseConfig,
			},
			currency.ExchangeRatesAPIProvider: fetchers.ExchangeRatesAPIConfig{
				BaseConfig: fetcherBaseConfig,
				APIKey:     v.GetString("api.key"),
			},
			currency.CoinbaseProvider: fetchers.CoinbaseConfig{
				BaseConfig: fetcherBaseConfig,
			},
		},
		StorageConfig: StorageConfig{
			storage.S3: storage.S3Config{
				BaseConfig: storageBaseConfig,
				Bucket:     bucket,
				Region:     v.GetString("storage.s3.region"),
				Endpoint:   v.GetString("storage.s3.endpoint"),
			},
			storage.GCS: storage.GCSConfig{
				BaseConfig:      storageBaseConfig,
				Bucket:          bucket,
				CredentialsFile: v.GetString("storage.gcs.credentials"),
				Endpoint:        v.GetString("storage.gcs.endpoint"),
			},
			storage.MySQL: storage.MySQLConfig{
				BaseConfig: storageBaseConfig,
				ConnectionString: storage.MySQLDSN(
					v.GetString("databases.mysql.user"),
					v.GetString("databases.mysql.password"),
					v.GetString("databases.mysql.addr"),
					v.GetString("databases.mysql.db"),
				),
				TableName: v.GetString("databases.mysql.table"),
			},
			storage.Postgres: storage.PostgresConfig{
				BaseConfig:       storageBaseConfig,
				ConnectionString: v.GetString("databases.postgres.url"),
				TableName:        v.GetString("databases.postgres.table"),
			},
			storage.MongoDB: storage.MongoDBConfig{
				BaseConfig:       storageBaseConfig,
				ConnectionString: v.GetString("databases.mongodb.uri"),
				Database:         v.GetString("databases.mongodb.database"),
				Collection:       v.GetString("databases.mongodb.collection"),
			},
			storage.Memory: storage.MemoryConfig{},
		},
	}, nil
}
