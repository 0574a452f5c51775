package storage_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	currency "github.com/malusev998/currency-converter"
	"github.com/malusev998/currency-converter/storage"
)

func TestMongoStorage(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI is not set")
	}

	assert := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := storage.NewStorage(storage.MongoDB, storage.MongoDBConfig{
		BaseConfig:       storage.BaseConfig{Ctx: ctx, Migrate: true},
		ConnectionString: uri,
		Database:         "currency_converter_test",
		Collection:       "objects_" + time.Now().Format("20060102150405"),
	})
	assert.Nil(err)
	defer st.Close()

	assert.Equal("mongodb", st.GetStorageProviderName())
	assert.Nil(st.Put(ctx, "conversions/a.json", []byte(`{"a":1}`)))
	assert.Nil(st.Put(ctx, "conversions/a.json", []byte(`{"a":2}`)))
	assert.Nil(st.Put(ctx, "reports/r.json", []byte(`{}`)))

	objects, err := st.List(ctx, currency.ConversionsPrefix)
	assert.Nil(err)
	assert.Len(objects, 1)
	assert.Equal(int64(7), objects[0].Size)

	body, err := st.Get(ctx, "conversions/a.json")
	assert.Nil(err)
	assert.Equal(`{"a":2}`, string(body))

	assert.Nil(st.Delete(ctx, "conversions/a.json"))
	assert.Nil(st.Delete(ctx, "conversions/a.json"))

	_, err = st.Get(ctx, "conversions/a.json")
	assert.True(errors.Is(err, currency.ErrObjectNotFound))
}
