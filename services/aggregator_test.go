package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	currency "github.com/malusev998/currency-converter"
	"github.com/malusev998/currency-converter/storage"
)

var baseTime = time.Date(2024, time.March, 7, 9, 5, 3, 0, time.Local)

func record(key string, modified time.Time, from, to string, amount, rate float64) currency.StoredConversion {
	return currency.StoredConversion{
		Object: currency.Object{
			Key:          key,
			Size:         120,
			LastModified: modified,
		},
		Conversion: currency.Conversion{
			From:      from,
			To:        to,
			Amount:    amount,
			Result:    amount * rate,
			Rate:      rate,
			Timestamp: modified.Truncate(time.Second),
		},
	}
}

// scenarioRecords holds two identical USD->EUR conversions made at T1 and T2
// and one USD->PLN conversion.
func scenarioRecords() []currency.StoredConversion {
	t1 := baseTime
	t2 := baseTime.Add(time.Minute)

	return []currency.StoredConversion{
		record(currency.FormatKey(currency.ConversionsPrefix, t1), t1, "USD", "EUR", 100, 0.92),
		record(currency.FormatKey(currency.ConversionsPrefix, t2), t2, "USD", "EUR", 100, 0.92),
		record(currency.FormatKey(currency.ConversionsPrefix, t2.Add(time.Second)), t2.Add(time.Second), "USD", "PLN", 50, 4.01),
	}
}

func TestComputeStatistics(t *testing.T) {
	t.Parallel()

	t.Run("Scenario", func(t *testing.T) {
		assert := require.New(t)
		stats := ComputeStatistics(scenarioRecords())

		assert.True(stats.HasData())
		assert.Equal(3, stats.Count)
		assert.Equal(PairCount{Pair: currency.Pair{From: "USD", To: "EUR"}, Count: 2}, stats.MostCommon)
		assert.Equal([]PairCount{
			{Pair: currency.Pair{From: "USD", To: "EUR"}, Count: 2},
			{Pair: currency.Pair{From: "USD", To: "PLN"}, Count: 1},
		}, stats.Pairs)
		assert.Equal(250.0, stats.Total)
		assert.InDelta(83.33, stats.Mean, 0.005)
		assert.Equal(100.0, stats.Max)
		assert.Equal(50.0, stats.Min)
	})

	t.Run("Empty", func(t *testing.T) {
		assert := require.New(t)
		stats := ComputeStatistics(nil)

		assert.False(stats.HasData())
		assert.Equal(0, stats.Count)
		assert.Equal(0.0, stats.Mean)
		assert.Empty(stats.Pairs)
	})

	t.Run("MeanIsTotalOverCount", func(t *testing.T) {
		assert := require.New(t)
		amounts := []float64{0.1, 0.2, 0.3, 1e6, 12.345678, 7}
		records := make([]currency.StoredConversion, 0, len(amounts))

		for i, amount := range amounts {
			ts := baseTime.Add(time.Duration(i) * time.Second)
			records = append(records, record(currency.FormatKey(currency.ConversionsPrefix, ts), ts, "EUR", "GBP", amount, 0.85))
		}

		stats := ComputeStatistics(records)
		assert.Equal(stats.Total/float64(stats.Count), stats.Mean)
		assert.Equal(1000019.945678, stats.Total)
	})

	t.Run("TieGoesToFirstSeen", func(t *testing.T) {
		assert := require.New(t)
		records := []currency.StoredConversion{
			record("conversions/1.json", baseTime, "GBP", "USD", 10, 1.27),
			record("conversions/2.json", baseTime, "USD", "GBP", 10, 0.79),
		}

		stats := ComputeStatistics(records)
		assert.Equal("GBP->USD", stats.MostCommon.Pair.String())
	})
}

func TestFindDuplicates(t *testing.T) {
	assert := require.New(t)
	records := scenarioRecords()

	groups := FindDuplicates(records)
	assert.Len(groups, 2)

	members := 0
	for _, group := range groups {
		members += len(group)
	}
	assert.Equal(len(records), members)

	sets := DuplicateSets(records)
	assert.Len(sets, 1)
	assert.Len(sets[0], 2)
	assert.Equal(records[0].Key, sets[0][0].Key)

	assert.Empty(FindDuplicates(nil))
	assert.Empty(DuplicateSets(nil))
}

func TestSelectSurvivors(t *testing.T) {
	t.Parallel()

	t.Run("LatestModifiedWins", func(t *testing.T) {
		assert := require.New(t)
		records := scenarioRecords()

		survivors, doomed := SelectSurvivors(records)
		assert.Len(survivors, 2)
		assert.Equal(records[1].Key, survivors[0].Key)
		assert.Equal(records[2].Key, survivors[1].Key)
		assert.Len(doomed, 1)
		assert.Equal(records[0].Key, doomed[0].Key)
	})

	t.Run("EqualTimesGoToGreatestKey", func(t *testing.T) {
		assert := require.New(t)
		records := []currency.StoredConversion{
			record("conversions/b.json", baseTime, "USD", "EUR", 100, 0.92),
			record("conversions/c.json", baseTime, "USD", "EUR", 100, 0.92),
			record("conversions/a.json", baseTime, "USD", "EUR", 100, 0.92),
		}

		survivors, doomed := SelectSurvivors(records)
		assert.Len(survivors, 1)
		assert.Equal("conversions/c.json", survivors[0].Key)
		assert.Equal([]string{"conversions/b.json", "conversions/a.json"}, keysOf(doomed))
	})
}

func keysOf(records []currency.StoredConversion) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Key)
	}

	return keys
}

func TestAggregator_ResolveDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("DeletesOlderCopy", func(t *testing.T) {
		assert := require.New(t)
		records := scenarioRecords()
		st := &MockStorage{}
		aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}

		st.On("Delete", ctx, records[0].Key).Return(nil).Once()

		result := aggregator.ResolveDuplicates(ctx, records)
		assert.Equal(1, result.Targeted)
		assert.Equal(1, result.Deleted)
		assert.Equal(1, result.Groups)
		assert.Empty(result.Failed)
		assert.Len(result.Survivors, 2)
		st.AssertExpectations(t)

		again := aggregator.ResolveDuplicates(ctx, result.Survivors)
		assert.Equal(0, again.Targeted)
		assert.Equal(0, again.Deleted)
		assert.Len(again.Survivors, 2)
		st.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("ContinuesAfterFailure", func(t *testing.T) {
		assert := require.New(t)
		records := []currency.StoredConversion{
			record("conversions/1.json", baseTime, "USD", "EUR", 100, 0.92),
			record("conversions/2.json", baseTime, "USD", "EUR", 100, 0.92),
			record("conversions/3.json", baseTime, "USD", "EUR", 100, 0.92),
		}
		st := &MockStorage{}
		aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}
		deleteErr := fmt.Errorf("%w: access denied", currency.ErrStoreUnreachable)

		st.On("Delete", ctx, "conversions/1.json").Return(deleteErr).Once()
		st.On("Delete", ctx, "conversions/2.json").Return(nil).Once()

		result := aggregator.ResolveDuplicates(ctx, records)
		assert.Equal(2, result.Targeted)
		assert.Equal(1, result.Deleted)
		assert.Len(result.Failed, 1)
		assert.Equal("conversions/1.json", result.Failed[0].Key)
		assert.True(errors.Is(result.Failed[0].Err, currency.ErrStoreUnreachable))
		st.AssertExpectations(t)
	})

	t.Run("StopsWhenCancelled", func(t *testing.T) {
		assert := require.New(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		st := &MockStorage{}
		aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}

		result := aggregator.ResolveDuplicates(cancelled, scenarioRecords())
		assert.Equal(1, result.Targeted)
		assert.Equal(0, result.Deleted)
		assert.Len(result.Failed, 1)
		assert.True(errors.Is(result.Failed[0].Err, context.Canceled))
		st.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestAggregator_LoadAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("SkipsCorruptRecord", func(t *testing.T) {
		assert := require.New(t)
		st := storage.NewMemoryStorage(nil)
		var logs bytes.Buffer
		aggregator := Aggregator{Storage: st, Logger: zerolog.New(&logs)}

		for i, rec := range scenarioRecords() {
			body, err := currency.EncodeConversion(rec.Conversion)
			assert.Nil(err)
			assert.Nil(st.Put(ctx, fmt.Sprintf("conversions/%d.json", i), body))
		}

		assert.Nil(st.Put(ctx, "conversions/3.json", []byte(`{"from_currency": "USD", "amount": 1`)))
		assert.Nil(st.Put(ctx, "conversions/4.json", []byte(`{"from_currency":"EUR","to_currency":"USD","amount":5,"result":5.4,"rate":1.08,"timestamp":"2024-03-07 10:00:00"}`)))
		assert.Nil(st.Put(ctx, "reports/r.json", []byte(`{}`)))

		records, err := aggregator.LoadAll(ctx)
		assert.Nil(err)
		assert.Len(records, 4)
		assert.Contains(logs.String(), "conversions/3.json")
		assert.Contains(logs.String(), "skipping corrupt record")

		for _, r := range records {
			assert.NotEqual("conversions/3.json", r.Key)
			assert.NotZero(r.Size)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		assert := require.New(t)
		aggregator := Aggregator{Storage: storage.NewMemoryStorage(nil), Logger: zerolog.Nop()}

		records, err := aggregator.LoadAll(ctx)
		assert.Nil(err)
		assert.Empty(records)
		assert.False(ComputeStatistics(records).HasData())
	})

	t.Run("ListFails", func(t *testing.T) {
		assert := require.New(t)
		st := &MockStorage{}
		aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}

		st.On("List", ctx, currency.ConversionsPrefix).Return(nil, fmt.Errorf("%w: timeout", currency.ErrStoreUnreachable))

		_, err := aggregator.LoadAll(ctx)
		assert.True(errors.Is(err, currency.ErrStoreUnreachable))
	})

	t.Run("SkipsUnreadableRecord", func(t *testing.T) {
		assert := require.New(t)
		st := &MockStorage{}
		aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}
		rec := scenarioRecords()[0]
		body, err := currency.EncodeConversion(rec.Conversion)
		assert.Nil(err)

		st.On("List", ctx, currency.ConversionsPrefix).Return([]currency.Object{
			{Key: "conversions/a.json", Size: int64(len(body))},
			{Key: "conversions/b.json", Size: 10},
		}, nil)
		st.On("Get", ctx, "conversions/a.json").Return(body, nil)
		st.On("Get", ctx, "conversions/b.json").Return(nil, fmt.Errorf("%w: conversions/b.json", currency.ErrObjectNotFound))

		records, err := aggregator.LoadAll(ctx)
		assert.Nil(err)
		assert.Len(records, 1)
		assert.Equal("conversions/a.json", records[0].Key)
		assert.Equal("USD->EUR", records[0].Pair().String())
	})
}

func TestFindExtremal(t *testing.T) {
	t.Parallel()
	objects := []currency.Object{
		{Key: "conversions/a.json", Size: 10, LastModified: baseTime.Add(time.Hour)},
		{Key: "conversions/b.json", Size: 30, LastModified: baseTime},
		{Key: "conversions/c.json", Size: 30, LastModified: baseTime.Add(time.Hour)},
		{Key: "conversions/d.json", Size: 20, LastModified: baseTime.Add(time.Minute)},
	}

	values := []struct {
		name     string
		by       ExtremalBy
		expected string
	}{
		{"Largest", ByLargest, "conversions/c.json"},
		{"Newest", ByNewest, "conversions/c.json"},
	}

	for _, value := range values {
		value := value
		t.Run(value.name, func(t *testing.T) {
			assert := require.New(t)
			obj, ok := FindExtremal(objects, value.by)
			assert.True(ok)
			assert.Equal(value.expected, obj.Key)
		})
	}

	t.Run("Empty", func(t *testing.T) {
		assert := require.New(t)
		_, ok := FindExtremal(nil, ByLargest)
		assert.False(ok)
		_, ok = FindExtremal([]currency.Object{}, ByNewest)
		assert.False(ok)
	})
}

func TestTotalStorageSize(t *testing.T) {
	assert := require.New(t)

	assert.Equal(int64(0), TotalStorageSize(nil))
	assert.Equal(int64(30), TotalStorageSize([]currency.Object{{Size: 10}, {Size: 20}}))
}

func TestAggregator_ListingOperations(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	now := baseTime
	st := storage.NewMemoryStorage(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}

	assert.Nil(st.Put(ctx, "conversions/a.json", []byte("12345")))
	assert.Nil(st.Put(ctx, "conversions/b.json", []byte("1234567890")))
	assert.Nil(st.Put(ctx, "conversions/c.json", []byte("123")))
	assert.Nil(st.Put(ctx, "reports/r.json", []byte("123456789012345")))

	count, err := aggregator.Count(ctx)
	assert.Nil(err)
	assert.Equal(3, count)

	size, err := aggregator.TotalSize(ctx)
	assert.Nil(err)
	assert.Equal(int64(18), size)

	largestObj, ok, err := aggregator.Largest(ctx)
	assert.Nil(err)
	assert.True(ok)
	assert.Equal("conversions/b.json", largestObj.Key)

	newest, ok, err := aggregator.Newest(ctx)
	assert.Nil(err)
	assert.True(ok)
	assert.Equal("conversions/c.json", newest.Key)

	result, err := aggregator.DeleteAll(ctx)
	assert.Nil(err)
	assert.Equal(3, result.Targeted)
	assert.Equal(3, result.Deleted)
	assert.Empty(result.Failed)

	count, err = aggregator.Count(ctx)
	assert.Nil(err)
	assert.Equal(0, count)

	_, ok, err = aggregator.Newest(ctx)
	assert.Nil(err)
	assert.False(ok)

	reports, err := st.List(ctx, currency.ReportsPrefix)
	assert.Nil(err)
	assert.Len(reports, 1)
}

func TestAggregator_DeleteAllContinuesAfterFailure(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	st := &MockStorage{}
	aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}

	st.On("List", ctx, currency.ConversionsPrefix).Return([]currency.Object{
		{Key: "conversions/a.json"}, {Key: "conversions/b.json"}, {Key: "conversions/c.json"},
	}, nil)
	st.On("Delete", ctx, "conversions/a.json").Return(nil)
	st.On("Delete", ctx, "conversions/b.json").Return(errors.New("boom"))
	st.On("Delete", ctx, "conversions/c.json").Return(nil)

	result, err := aggregator.DeleteAll(ctx)
	assert.Nil(err)
	assert.Equal(3, result.Targeted)
	assert.Equal(2, result.Deleted)
	assert.Equal("conversions/b.json", result.Failed[0].Key)
	st.AssertExpectations(t)
}

func TestAggregator_Deduplicate(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	now := baseTime
	st := storage.NewMemoryStorage(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	aggregator := Aggregator{Storage: st, Logger: zerolog.Nop()}

	for i, rec := range scenarioRecords() {
		body, err := currency.EncodeConversion(rec.Conversion)
		assert.Nil(err)
		assert.Nil(st.Put(ctx, fmt.Sprintf("conversions/%d.json", i), body))
	}

	result, err := aggregator.Deduplicate(ctx)
	assert.Nil(err)
	assert.Equal(1, result.Deleted)

	records, err := aggregator.LoadAll(ctx)
	assert.Nil(err)
	assert.Equal([]string{"conversions/1.json", "conversions/2.json"}, keysOf(records))

	result, err = aggregator.Deduplicate(ctx)
	assert.Nil(err)
	assert.Equal(0, result.Targeted)
}
