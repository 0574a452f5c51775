package currency

import (
	"fmt"
	"strings"
)

// Provider names a rate API.
type Provider string

const (
	ExchangeRateAPIProvider  Provider = "exchangerate-api"
	ExchangeRatesAPIProvider Provider = "exchangeratesapi"
	CoinbaseProvider         Provider = "coinbase"
	EmptyProvider            Provider = ""
)

func ConvertToProviderFromString(str string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "exchangerate-api", "exchangerateapi":
		return ExchangeRateAPIProvider, nil
	case "exchangeratesapi":
		return ExchangeRatesAPIProvider, nil
	case "coinbase":
		return CoinbaseProvider, nil
	}

	return EmptyProvider, fmt.Errorf("value %s is not valid Provider", str)
}

func (p Provider) String() string {
	return string(p)
}
