package fetchers

import (
	"fmt"
	"time"

	currency "github.com/malusev998/currency-converter"
)

type (
	BaseConfig struct {
		URL     string
		Timeout time.Duration
	}
	ExchangeRateAPIConfig struct {
		BaseConfig
	}
	ExchangeRatesAPIConfig struct {
		BaseConfig
		APIKey string
	}
	CoinbaseConfig struct {
		BaseConfig
	}
)

func NewCurrencyFetcher(provider currency.Provider, config interface{}) (currency.Fetcher, error) {
	switch provider {
	case currency.ExchangeRateAPIProvider:
		c, ok := config.(ExchangeRateAPIConfig)
		if !ok {
			return nil, fmt.Errorf("fetcher %s expects ExchangeRateAPIConfig, got %T", provider, config)
		}

		return ExchangeRateAPIFetcher{
			URL:    c.URL,
			Client: newHTTPClient(c.Timeout),
		}, nil
	case currency.ExchangeRatesAPIProvider:
		c, ok := config.(ExchangeRatesAPIConfig)
		if !ok {
			return nil, fmt.Errorf("fetcher %s expects ExchangeRatesAPIConfig, got %T", provider, config)
		}

		return ExchangeRatesAPIFetcher{
			URL:    c.URL,
			APIKey: c.APIKey,
			Client: newHTTPClient(c.Timeout),
		}, nil
	case currency.CoinbaseProvider:
		c, ok := config.(CoinbaseConfig)
		if !ok {
			return nil, fmt.Errorf("fetcher %s expects CoinbaseConfig, got %T", provider, config)
		}

		return CoinbaseFetcher{
			URL:    c.URL,
			Client: newHTTPClient(c.Timeout),
		}, nil
	}

	return nil, fmt.Errorf("fetcher %s does not exist", provider)
}
