package currency

import "errors"

var (
	ErrTransport         = errors.New("rate API is unreachable")
	ErrRateAPI           = errors.New("rate API returned an invalid response")
	ErrCurrencyNotFound  = errors.New("currency is not found in the returned rates")
	ErrInvalidConversion = errors.New("invalid conversion")
	ErrDecode            = errors.New("stored record cannot be decoded")
	ErrStoreUnreachable  = errors.New("storage is unreachable")
	ErrObjectNotFound    = errors.New("object is not found in storage")
)

// Describe turns an error returned by a fetcher, storage or service into the
// message shown to the user. Unknown errors are returned as they are.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCurrencyNotFound):
		return "Currency not found: " + err.Error()
	case errors.Is(err, ErrTransport):
		return "API connection error: " + err.Error()
	case errors.Is(err, ErrRateAPI):
		return "API response error: " + err.Error()
	case errors.Is(err, ErrInvalidConversion):
		return "Invalid input: " + err.Error()
	case errors.Is(err, ErrStoreUnreachable):
		return "Storage error: " + err.Error()
	case errors.Is(err, ErrObjectNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, ErrDecode):
		return "Corrupt record: " + err.Error()
	}

	return "Error: " + err.Error()
}
