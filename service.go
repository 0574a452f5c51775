package currency

import "context"

type (
	Converter interface {
		Convert(ctx context.Context, from, to string, amount float64) (StoredConversion, error)
	}
)
