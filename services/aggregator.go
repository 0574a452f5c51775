package services

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	currency "github.com/malusev998/currency-converter"
)

// ExtremalBy selects the ordering used by FindExtremal.
type ExtremalBy int

const (
	ByLargest ExtremalBy = iota
	ByNewest
)

type (
	PairCount struct {
		Pair  currency.Pair `json:"pair"`
		Count int           `json:"count"`
	}

	// Statistics summarises a set of conversions. Pairs keeps the order in
	// which each pair was first seen.
	Statistics struct {
		Count      int
		Pairs      []PairCount
		MostCommon PairCount
		Total      float64
		Mean       float64
		Max        float64
		Min        float64
	}

	FailedDelete struct {
		Key string
		Err error
	}

	DedupeResult struct {
		Targeted  int
		Deleted   int
		Failed    []FailedDelete
		Survivors []currency.StoredConversion
		Groups    int
	}

	PurgeResult struct {
		Targeted int
		Deleted  int
		Failed   []FailedDelete
	}

	// Aggregator reads every stored conversion and derives statistics and
	// maintenance actions from them. Store calls are issued one at a time.
	Aggregator struct {
		Storage currency.Storage
		Logger  zerolog.Logger
	}
)

func (s Statistics) HasData() bool {
	return s.Count > 0
}

// LoadAll decodes every record under the conversions prefix. Records that
// cannot be read or decoded are logged and skipped.
func (a Aggregator) LoadAll(ctx context.Context) ([]currency.StoredConversion, error) {
	objects, err := a.Storage.List(ctx, currency.ConversionsPrefix)
	if err != nil {
		return nil, err
	}

	records := make([]currency.StoredConversion, 0, len(objects))

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		body, err := a.Storage.Get(ctx, obj.Key)
		if err != nil {
			a.Logger.Warn().Err(err).Str("key", obj.Key).Msg("skipping unreadable record")
			continue
		}

		c, err := currency.DecodeConversion(body)
		if err != nil {
			a.Logger.Warn().Err(err).Str("key", obj.Key).Msg("skipping corrupt record")
			continue
		}

		records = append(records, currency.StoredConversion{Object: obj, Conversion: c})
	}

	a.Logger.Debug().
		Int("listed", len(objects)).
		Int("loaded", len(records)).
		Msg("records loaded")

	return records, nil
}

func ComputeStatistics(records []currency.StoredConversion) Statistics {
	var stats Statistics

	if len(records) == 0 {
		return stats
	}

	index := make(map[currency.Pair]int)
	total := decimal.Zero

	stats.Count = len(records)
	stats.Max = records[0].Amount
	stats.Min = records[0].Amount

	for _, r := range records {
		pair := r.Pair()

		if i, ok := index[pair]; ok {
			stats.Pairs[i].Count++
		} else {
			index[pair] = len(stats.Pairs)
			stats.Pairs = append(stats.Pairs, PairCount{Pair: pair, Count: 1})
		}

		total = total.Add(decimal.NewFromFloat(r.Amount))

		if r.Amount > stats.Max {
			stats.Max = r.Amount
		}

		if r.Amount < stats.Min {
			stats.Min = r.Amount
		}
	}

	for _, pc := range stats.Pairs {
		if pc.Count > stats.MostCommon.Count {
			stats.MostCommon = pc
		}
	}

	stats.Total, _ = total.Float64()
	stats.Mean = stats.Total / float64(stats.Count)

	return stats
}

// FindDuplicates groups records by signature. Every record lands in exactly
// one group; groups with more than one member are duplicate sets.
func FindDuplicates(records []currency.StoredConversion) map[currency.Signature][]currency.StoredConversion {
	groups := make(map[currency.Signature][]currency.StoredConversion)

	for _, r := range records {
		sig := r.Signature()
		groups[sig] = append(groups[sig], r)
	}

	return groups
}

// DuplicateSets returns the groups with more than one member. Members are
// ordered by key and sets by their first key.
func DuplicateSets(records []currency.StoredConversion) [][]currency.StoredConversion {
	sets := make([][]currency.StoredConversion, 0)

	for _, group := range FindDuplicates(records) {
		if len(group) < 2 {
			continue
		}

		members := append([]currency.StoredConversion(nil), group...)
		sort.Slice(members, func(i, j int) bool {
			return members[i].Key < members[j].Key
		})

		sets = append(sets, members)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i][0].Key < sets[j][0].Key
	})

	return sets
}

func newer(a, b currency.Object) bool {
	if !a.LastModified.Equal(b.LastModified) {
		return a.LastModified.After(b.LastModified)
	}

	return a.Key > b.Key
}

// SelectSurvivors keeps the most recently modified record of every signature
// group; equal modification times fall back to the greatest key. Survivors
// follow the order in which groups first appear, doomed records keep input
// order.
func SelectSurvivors(records []currency.StoredConversion) (survivors, doomed []currency.StoredConversion) {
	best := make(map[currency.Signature]currency.StoredConversion)
	order := make([]currency.Signature, 0)

	for _, r := range records {
		sig := r.Signature()

		current, ok := best[sig]
		if !ok {
			order = append(order, sig)
			best[sig] = r
			continue
		}

		if newer(r.Object, current.Object) {
			best[sig] = r
		}
	}

	survivors = make([]currency.StoredConversion, 0, len(order))
	for _, sig := range order {
		survivors = append(survivors, best[sig])
	}

	doomed = make([]currency.StoredConversion, 0, len(records)-len(order))
	for _, r := range records {
		if best[r.Signature()].Key != r.Key {
			doomed = append(doomed, r)
		}
	}

	return survivors, doomed
}

// ResolveDuplicates deletes every record that is not the survivor of its
// group. A failed delete is recorded and the rest are still attempted; once
// ctx is done no further deletes are issued.
func (a Aggregator) ResolveDuplicates(ctx context.Context, records []currency.StoredConversion) DedupeResult {
	survivors, doomed := SelectSurvivors(records)

	result := DedupeResult{
		Targeted:  len(doomed),
		Survivors: survivors,
		Failed:    make([]FailedDelete, 0),
		Groups:    len(DuplicateSets(records)),
	}

	for _, r := range doomed {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, FailedDelete{Key: r.Key, Err: err})
			continue
		}

		if err := a.Storage.Delete(ctx, r.Key); err != nil {
			a.Logger.Warn().Err(err).Str("key", r.Key).Msg("duplicate not deleted")
			result.Failed = append(result.Failed, FailedDelete{Key: r.Key, Err: err})
			continue
		}

		a.Logger.Debug().Str("key", r.Key).Msg("duplicate deleted")
		result.Deleted++
	}

	return result
}

func (a Aggregator) Deduplicate(ctx context.Context) (DedupeResult, error) {
	records, err := a.LoadAll(ctx)
	if err != nil {
		return DedupeResult{}, err
	}

	return a.ResolveDuplicates(ctx, records), nil
}

// FindExtremal returns the largest or the newest object. Ties go to the
// greatest key. The boolean is false for an empty listing.
func FindExtremal(objects []currency.Object, by ExtremalBy) (currency.Object, bool) {
	if len(objects) == 0 {
		return currency.Object{}, false
	}

	better := newer
	if by == ByLargest {
		better = func(a, b currency.Object) bool {
			if a.Size != b.Size {
				return a.Size > b.Size
			}

			return a.Key > b.Key
		}
	}

	best := objects[0]
	for _, obj := range objects[1:] {
		if better(obj, best) {
			best = obj
		}
	}

	return best, true
}

func TotalStorageSize(objects []currency.Object) int64 {
	var total int64

	for _, obj := range objects {
		total += obj.Size
	}

	return total
}

func (a Aggregator) ListObjects(ctx context.Context) ([]currency.Object, error) {
	return a.Storage.List(ctx, currency.ConversionsPrefix)
}

func (a Aggregator) Count(ctx context.Context) (int, error) {
	objects, err := a.ListObjects(ctx)
	if err != nil {
		return 0, err
	}

	return len(objects), nil
}

func (a Aggregator) Largest(ctx context.Context) (currency.Object, bool, error) {
	return a.extremal(ctx, ByLargest)
}

func (a Aggregator) Newest(ctx context.Context) (currency.Object, bool, error) {
	return a.extremal(ctx, ByNewest)
}

func (a Aggregator) extremal(ctx context.Context, by ExtremalBy) (currency.Object, bool, error) {
	objects, err := a.ListObjects(ctx)
	if err != nil {
		return currency.Object{}, false, err
	}

	obj, ok := FindExtremal(objects, by)

	return obj, ok, nil
}

func (a Aggregator) TotalSize(ctx context.Context) (int64, error) {
	objects, err := a.ListObjects(ctx)
	if err != nil {
		return 0, err
	}

	return TotalStorageSize(objects), nil
}

// DeleteAll removes every conversion record, continuing past failures.
func (a Aggregator) DeleteAll(ctx context.Context) (PurgeResult, error) {
	objects, err := a.ListObjects(ctx)
	if err != nil {
		return PurgeResult{}, err
	}

	result := PurgeResult{
		Targeted: len(objects),
		Failed:   make([]FailedDelete, 0),
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, FailedDelete{Key: obj.Key, Err: err})
			continue
		}

		if err := a.Storage.Delete(ctx, obj.Key); err != nil {
			a.Logger.Warn().Err(err).Str("key", obj.Key).Msg("record not deleted")
			result.Failed = append(result.Failed, FailedDelete{Key: obj.Key, Err: err})
			continue
		}

		result.Deleted++
	}

	a.Logger.Info().
		Int("targeted", result.Targeted).
		Int("deleted", result.Deleted).
		Msg("records purged")

	return result, nil
}
