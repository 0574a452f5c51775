package fetchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	currency "github.com/malusev998/currency-converter"
)

const (
	ExchangeRateAPIURL  = "https://api.exchangerate-api.com/v4/latest/"
	ExchangeRatesAPIURL = "https://api.exchangeratesapi.io/latest"
	CoinbaseURL         = "https://api.coinbase.com/v2/exchange-rates"

	DefaultTimeout = 5 * time.Second
)

var (
	ErrUnAuthorized = errors.New("unauthorized, API key is not provided or invalid")
	ErrClient       = errors.New("client error")
	ErrServer       = errors.New("server error")
	ErrUnknown      = errors.New("unknown error")
)

type (
	exchangeRateAPIResponse struct {
		Base  string             `json:"base,omitempty"`
		Rates map[string]float64 `json:"rates,omitempty"`
		Date  string             `json:"date,omitempty"`
	}

	exchangeRatesAPIResponse struct {
		Success *bool              `json:"success,omitempty"`
		Base    string             `json:"base,omitempty"`
		Rates   map[string]float64 `json:"rates,omitempty"`
		Date    string             `json:"date,omitempty"`
		Error   *struct {
			Code int    `json:"code"`
			Type string `json:"type"`
			Info string `json:"info"`
		} `json:"error,omitempty"`
	}

	coinbaseResponse struct {
		Data struct {
			Currency string            `json:"currency"`
			Rates    map[string]string `json:"rates"`
		} `json:"data"`
	}
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{Timeout: timeout}
}

func newRequest(ctx context.Context, url string) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}

	req.Header.Add("Accept", "application/json")

	return req, nil
}

func handleHTTPStatusCodeError(res *http.Response) error {
	switch {
	case res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusMultipleChoices:
		return nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w (status %d)", currency.ErrRateAPI, ErrUnAuthorized, res.StatusCode)
	case res.StatusCode >= http.StatusBadRequest && res.StatusCode < http.StatusInternalServerError:
		return fmt.Errorf("%w: %w (status %d)", currency.ErrRateAPI, ErrClient, res.StatusCode)
	case res.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w (status %d)", currency.ErrRateAPI, ErrServer, res.StatusCode)
	}

	return fmt.Errorf("%w: %w (status %d)", currency.ErrRateAPI, ErrUnknown, res.StatusCode)
}

// getJSON performs the request and decodes a successful JSON body into v.
// Transport failures wrap currency.ErrTransport, everything the API answers
// wrongly wraps currency.ErrRateAPI.
func getJSON(client *http.Client, req *http.Request, v interface{}) error {
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", currency.ErrTransport, err)
	}

	defer res.Body.Close()

	if err := handleHTTPStatusCodeError(res); err != nil {
		return err
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", currency.ErrTransport, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding json: %v", currency.ErrRateAPI, err)
	}

	return nil
}
