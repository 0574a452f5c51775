package fetchers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	currency "github.com/malusev998/currency-converter"
)

// loggingFetcher decorates a currency.Fetcher with logging
type loggingFetcher struct {
	next     currency.Fetcher
	logger   zerolog.Logger
	provider currency.Provider
}

func NewLoggingFetcher(logger zerolog.Logger, provider currency.Provider, f currency.Fetcher) currency.Fetcher {
	return &loggingFetcher{
		next:     f,
		logger:   logger,
		provider: provider,
	}
}

func (l *loggingFetcher) FetchRates(ctx context.Context, base string) (rates currency.Rates, err error) {
	defer func(begin time.Time) {
		event := l.logger.Debug()
		if err != nil {
			event = l.logger.Warn().Err(err)
		}

		event.
			Str("method", "fetch_rates").
			Str("provider", l.provider.String()).
			Str("base", base).
			Int("rates", len(rates)).
			Dur("took", time.Since(begin)).
			Msg("rates fetched")
	}(time.Now())

	return l.next.FetchRates(ctx, base)
}
