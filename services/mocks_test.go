package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	currency "github.com/malusev998/currency-converter"
)

type (
	MockFetcher struct {
		mock.Mock
	}

	MockStorage struct {
		mock.Mock
	}
)

func (m *MockFetcher) FetchRates(ctx context.Context, base string) (currency.Rates, error) {
	args := m.Called(ctx, base)
	return1 := args.Get(0)

	if return1 == nil {
		return nil, args.Error(1)
	}

	return return1.(currency.Rates), args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]currency.Object, error) {
	args := m.Called(ctx, prefix)
	return1 := args.Get(0)

	if return1 == nil {
		return nil, args.Error(1)
	}

	return return1.([]currency.Object), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	return1 := args.Get(0)

	if return1 == nil {
		return nil, args.Error(1)
	}

	return return1.([]byte), args.Error(1)
}

func (m *MockStorage) Put(ctx context.Context, key string, body []byte) error {
	args := m.Called(ctx, key, body)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) GetStorageProviderName() string {
	return "MockStorage"
}

func (m *MockStorage) Close() error {
	return nil
}
