package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	currency "github.com/malusev998/currency-converter"
)

const (
	reportTopPairs   = 5
	reportTopAmounts = 3
	dayLayout        = "2006-01-02"
)

type (
	AmountSummary struct {
		Count int     `json:"count"`
		Mean  float64 `json:"mean"`
		Std   float64 `json:"std"`
		Min   float64 `json:"min"`
		P25   float64 `json:"25%"`
		P50   float64 `json:"50%"`
		P75   float64 `json:"75%"`
		Max   float64 `json:"max"`
	}

	CurrencySummary struct {
		Currency string  `json:"currency"`
		Sum      float64 `json:"sum"`
		Mean     float64 `json:"mean"`
		Count    int     `json:"count"`
	}

	PairRate struct {
		Pair currency.Pair `json:"pair"`
		Rate float64       `json:"average_rate"`
	}

	DayCount struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}

	Report struct {
		GeneratedAt     string                `json:"generated_at"`
		Total           int                   `json:"total_conversions"`
		FirstConversion string                `json:"first_conversion,omitempty"`
		LastConversion  string                `json:"last_conversion,omitempty"`
		TopPairs        []PairCount           `json:"top_pairs"`
		Amounts         AmountSummary         `json:"amounts"`
		ByCurrency      []CurrencySummary     `json:"by_currency"`
		AverageRates    []PairRate            `json:"average_rates"`
		PerDay          []DayCount            `json:"per_day"`
		Largest         []currency.Conversion `json:"largest"`
	}

	// Reporter builds a descriptive report over loaded conversions and can
	// snapshot it next to the records.
	Reporter struct {
		Storage currency.Storage
		Keys    *currency.KeyGenerator
		Now     func() time.Time
	}
)

func (r Reporter) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}

	return r.Now()
}

func (r Reporter) Build(records []currency.StoredConversion) Report {
	report := Report{
		GeneratedAt:  r.now().Format(currency.TimestampLayout),
		Total:        len(records),
		TopPairs:     make([]PairCount, 0, reportTopPairs),
		ByCurrency:   make([]CurrencySummary, 0),
		AverageRates: make([]PairRate, 0),
		PerDay:       make([]DayCount, 0),
		Largest:      make([]currency.Conversion, 0, reportTopAmounts),
	}

	if len(records) == 0 {
		return report
	}

	first, last := records[0].Timestamp, records[0].Timestamp
	amounts := make([]float64, 0, len(records))

	for _, rec := range records {
		if rec.Timestamp.Before(first) {
			first = rec.Timestamp
		}

		if rec.Timestamp.After(last) {
			last = rec.Timestamp
		}

		amounts = append(amounts, rec.Amount)
	}

	report.FirstConversion = first.Format(currency.TimestampLayout)
	report.LastConversion = last.Format(currency.TimestampLayout)
	report.TopPairs = topPairs(ComputeStatistics(records).Pairs, reportTopPairs)
	report.Amounts = describe(amounts)
	report.ByCurrency = byCurrency(records)
	report.AverageRates = averageRates(records)
	report.PerDay = perDay(records)
	report.Largest = largest(records, reportTopAmounts)

	return report
}

// Save writes the report as JSON under the reports prefix and returns its key.
func (r Reporter) Save(ctx context.Context, report Report) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	keys := r.Keys
	if keys == nil {
		keys = currency.NewKeyGenerator(r.Now)
	}

	key := keys.Next(currency.ReportsPrefix)

	if err := r.Storage.Put(ctx, key, body); err != nil {
		return "", err
	}

	return key, nil
}

func topPairs(pairs []PairCount, n int) []PairCount {
	sorted := append([]PairCount(nil), pairs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}

func describe(values []float64) AmountSummary {
	summary := AmountSummary{Count: len(values)}

	if len(values) == 0 {
		return summary
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	total := decimal.Zero
	for _, v := range sorted {
		total = total.Add(decimal.NewFromFloat(v))
	}

	sum, _ := total.Float64()
	summary.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var squares float64
		for _, v := range sorted {
			squares += (v - summary.Mean) * (v - summary.Mean)
		}

		summary.Std = math.Sqrt(squares / float64(len(sorted)-1))
	}

	summary.Min = sorted[0]
	summary.Max = sorted[len(sorted)-1]
	summary.P25 = percentile(sorted, 0.25)
	summary.P50 = percentile(sorted, 0.5)
	summary.P75 = percentile(sorted, 0.75)

	return summary
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))

	if lower == upper {
		return sorted[lower]
	}

	return sorted[lower] + (sorted[upper]-sorted[lower])*(pos-float64(lower))
}

func byCurrency(records []currency.StoredConversion) []CurrencySummary {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)

	for _, rec := range records {
		sum, ok := sums[rec.From]
		if !ok {
			sum = decimal.Zero
		}

		sums[rec.From] = sum.Add(decimal.NewFromFloat(rec.Amount))
		counts[rec.From]++
	}

	summaries := make([]CurrencySummary, 0, len(sums))

	for code, sum := range sums {
		total, _ := sum.Float64()

		summaries = append(summaries, CurrencySummary{
			Currency: code,
			Sum:      total,
			Mean:     total / float64(counts[code]),
			Count:    counts[code],
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Currency < summaries[j].Currency
	})

	return summaries
}

func averageRates(records []currency.StoredConversion) []PairRate {
	sums := make(map[currency.Pair]float64)
	counts := make(map[currency.Pair]int)

	for _, rec := range records {
		sums[rec.Pair()] += rec.Rate
		counts[rec.Pair()]++
	}

	rates := make([]PairRate, 0, len(sums))

	for pair, sum := range sums {
		rates = append(rates, PairRate{Pair: pair, Rate: sum / float64(counts[pair])})
	}

	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Rate != rates[j].Rate {
			return rates[i].Rate > rates[j].Rate
		}

		return rates[i].Pair.String() < rates[j].Pair.String()
	})

	return rates
}

func perDay(records []currency.StoredConversion) []DayCount {
	counts := make(map[string]int)

	for _, rec := range records {
		counts[rec.Timestamp.Format(dayLayout)]++
	}

	days := make([]DayCount, 0, len(counts))
	for day, count := range counts {
		days = append(days, DayCount{Date: day, Count: count})
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return days
}

func largest(records []currency.StoredConversion, n int) []currency.Conversion {
	sorted := append([]currency.StoredConversion(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	conversions := make([]currency.Conversion, 0, len(sorted))
	for _, rec := range sorted {
		conversions = append(conversions, rec.Conversion)
	}

	return conversions
}
