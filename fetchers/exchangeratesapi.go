package fetchers

import (
	"context"
	"fmt"
	"net/http"

	currency "github.com/malusev998/currency-converter"
)

const missingAccessKeyCode = 101

// ExchangeRatesAPIFetcher reads https://api.exchangeratesapi.io/latest and
// passes APIKey through as access_key.
type ExchangeRatesAPIFetcher struct {
	URL    string
	APIKey string
	Client *http.Client
}

func (e ExchangeRatesAPIFetcher) FetchRates(ctx context.Context, base string) (currency.Rates, error) {
	endpoint := e.URL

	if endpoint == "" {
		endpoint = ExchangeRatesAPIURL
	}

	req, err := newRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("base", base)

	if e.APIKey != "" {
		q.Add("access_key", e.APIKey)
	}

	req.URL.RawQuery = q.Encode()

	client := e.Client
	if client == nil {
		client = newHTTPClient(DefaultTimeout)
	}

	var data exchangeRatesAPIResponse

	if err := getJSON(client, req, &data); err != nil {
		return nil, err
	}

	// The API answers some failures with 200 and success=false.
	if data.Success != nil && !*data.Success {
		if data.Error != nil && data.Error.Code == missingAccessKeyCode {
			return nil, fmt.Errorf("%w: %w", currency.ErrRateAPI, ErrUnAuthorized)
		}

		info := "unknown"
		if data.Error != nil {
			info = data.Error.Info
		}

		return nil, fmt.Errorf("%w: %s", currency.ErrRateAPI, info)
	}

	if data.Rates == nil {
		return nil, fmt.Errorf("%w: response for %s has no rates", currency.ErrRateAPI, base)
	}

	return currency.Rates(data.Rates), nil
}
