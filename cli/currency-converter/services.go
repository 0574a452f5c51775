package main

import (
	"fmt"

	"github.com/rs/zerolog"

	currency "github.com/malusev998/currency-converter"
	"github.com/malusev998/currency-converter/cli/cmd"
	"github.com/malusev998/currency-converter/fetchers"
	"github.com/malusev998/currency-converter/services"
	"github.com/malusev998/currency-converter/storage"
)

func createStorage(config *Config) (currency.Storage, error) {
	c, ok := config.StorageConfig[config.Storage]
	if !ok {
		return nil, fmt.Errorf("storage %s does not exist", config.Storage)
	}

	st, err := storage.NewStorage(config.Storage, c)
	if err != nil {
		return nil, err
	}

	return storage.WithTimeout(st, config.StorageTimeout), nil
}

func createFetcher(config *Config, logger zerolog.Logger) (currency.Fetcher, error) {
	c, ok := config.FetchersConfig[config.Fetcher]
	if !ok {
		return nil, fmt.Errorf("fetcher %s does not exist", config.Fetcher)
	}

	f, err := fetchers.NewCurrencyFetcher(config.Fetcher, c)
	if err != nil {
		return nil, err
	}

	return fetchers.NewLoggingFetcher(logger, config.Fetcher, f), nil
}

func createApp(config *Config, logger zerolog.Logger) (*cmd.App, error) {
	st, err := createStorage(config)
	if err != nil {
		return nil, err
	}

	fetcher, err := createFetcher(config, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	keys := currency.NewKeyGenerator(nil)

	logger.Debug().
		Str("fetcher", config.Fetcher.String()).
		Str("storage", st.GetStorageProviderName()).
		Msg("application configured")

	return &cmd.App{
		Converter: services.NewConversionService(fetcher, st, keys, logger),
		Aggregator: services.Aggregator{
			Storage: st,
			Logger:  logger,
		},
		Reporter: services.Reporter{
			Storage: st,
			Keys:    keys,
		},
		Close: st.Close,
	}, nil
}
