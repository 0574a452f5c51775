package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	currency "github.com/malusev998/currency-converter"
)

type ConversionService struct {
	Fetcher currency.Fetcher
	Storage currency.Storage
	Keys    *currency.KeyGenerator
	Now     func() time.Time
	Logger  zerolog.Logger
}

func NewConversionService(fetcher currency.Fetcher, storage currency.Storage, keys *currency.KeyGenerator, logger zerolog.Logger) *ConversionService {
	return &ConversionService{
		Fetcher: fetcher,
		Storage: storage,
		Keys:    keys,
		Now:     time.Now,
		Logger:  logger,
	}
}

// Convert fetches the rates for from, converts amount into to and persists
// the record. Nothing is stored when any step fails.
func (c *ConversionService) Convert(ctx context.Context, from, to string, amount float64) (currency.StoredConversion, error) {
	from = currency.NormalizeCode(from)
	to = currency.NormalizeCode(to)

	if err := currency.ValidateCode(from); err != nil {
		return currency.StoredConversion{}, err
	}

	if err := currency.ValidateCode(to); err != nil {
		return currency.StoredConversion{}, err
	}

	if !(amount > 0) || math.IsInf(amount, 0) {
		return currency.StoredConversion{}, fmt.Errorf("%w: amount must be positive, got %v", currency.ErrInvalidConversion, amount)
	}

	rates, err := c.Fetcher.FetchRates(ctx, from)
	if err != nil {
		return currency.StoredConversion{}, err
	}

	rate, ok := rates[to]
	if !ok {
		return currency.StoredConversion{}, fmt.Errorf("%w: %s is not quoted against %s", currency.ErrCurrencyNotFound, to, from)
	}

	if !(rate > 0) || math.IsInf(rate, 0) {
		return currency.StoredConversion{}, fmt.Errorf("%w: rate %s->%s is %v", currency.ErrRateAPI, from, to, rate)
	}

	now := c.now()

	conversion := currency.Conversion{
		From:      from,
		To:        to,
		Amount:    amount,
		Result:    convert(decimal.NewFromFloat(amount), rate),
		Rate:      rate,
		Timestamp: now.Truncate(time.Second),
	}

	if err := conversion.Validate(); err != nil {
		return currency.StoredConversion{}, err
	}

	body, err := currency.EncodeConversion(conversion)
	if err != nil {
		return currency.StoredConversion{}, err
	}

	key := c.keys().Next(currency.ConversionsPrefix)

	if err := c.Storage.Put(ctx, key, body); err != nil {
		return currency.StoredConversion{}, err
	}

	c.Logger.Info().
		Str("key", key).
		Str("pair", conversion.Pair().String()).
		Float64("amount", amount).
		Float64("rate", rate).
		Msg("conversion stored")

	return currency.StoredConversion{
		Object: currency.Object{
			Key:          key,
			Size:         int64(len(body)),
			LastModified: now,
		},
		Conversion: conversion,
	}, nil
}

func (c *ConversionService) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}

	return c.Now()
}

func (c *ConversionService) keys() *currency.KeyGenerator {
	if c.Keys == nil {
		c.Keys = currency.NewKeyGenerator(c.Now)
	}

	return c.Keys
}

func convert(value decimal.Decimal, rate float64) float64 {
	result, _ := value.Mul(decimal.NewFromFloat(rate)).Float64()

	return result
}
