package currency

import "context"

type (
	// Fetcher loads the latest rates for a base currency from a rate API.
	Fetcher interface {
		FetchRates(ctx context.Context, base string) (Rates, error)
	}
)
