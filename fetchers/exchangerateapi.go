package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	currency "github.com/malusev998/currency-converter"
)

// ExchangeRateAPIFetcher reads https://api.exchangerate-api.com/v4/latest/{BASE}.
// The endpoint is public and takes no credential.
type ExchangeRateAPIFetcher struct {
	URL    string
	Client *http.Client
}

func (e ExchangeRateAPIFetcher) FetchRates(ctx context.Context, base string) (currency.Rates, error) {
	endpoint := e.URL

	if endpoint == "" {
		endpoint = ExchangeRateAPIURL
	}

	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	req, err := newRequest(ctx, endpoint+url.PathEscape(base))
	if err != nil {
		return nil, err
	}

	client := e.Client
	if client == nil {
		client = newHTTPClient(DefaultTimeout)
	}

	var data exchangeRateAPIResponse

	if err := getJSON(client, req, &data); err != nil {
		return nil, err
	}

	if data.Rates == nil {
		return nil, fmt.Errorf("%w: response for %s has no rates", currency.ErrRateAPI, base)
	}

	return currency.Rates(data.Rates), nil
}
