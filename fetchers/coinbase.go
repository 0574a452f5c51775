package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	currency "github.com/malusev998/currency-converter"
)

// CoinbaseFetcher reads https://api.coinbase.com/v2/exchange-rates. Rates
// arrive as strings and are parsed.
type CoinbaseFetcher struct {
	URL    string
	Client *http.Client
}

func (c CoinbaseFetcher) FetchRates(ctx context.Context, base string) (currency.Rates, error) {
	endpoint := c.URL

	if endpoint == "" {
		endpoint = CoinbaseURL
	}

	req, err := newRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("currency", base)
	req.URL.RawQuery = q.Encode()

	client := c.Client
	if client == nil {
		client = newHTTPClient(DefaultTimeout)
	}

	var data coinbaseResponse

	if err := getJSON(client, req, &data); err != nil {
		return nil, err
	}

	rates := make(currency.Rates, len(data.Data.Rates))

	for code, value := range data.Data.Rates {
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad rate value for %s: %v", currency.ErrRateAPI, code, err)
		}

		rates[code] = rate
	}

	return rates, nil
}
