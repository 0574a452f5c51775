package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	currency "github.com/malusev998/currency-converter"
	"github.com/malusev998/currency-converter/services"
)

type action func(c *Config, out io.Writer) error

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func convert(c *Config, out io.Writer, from, to string, amount float64) error {
	stored, err := c.app.Converter.Convert(c.Ctx, from, to, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%.2f %s = %.2f %s (rate %v)\n", stored.Amount, stored.From, stored.Result, stored.To, stored.Rate)
	fmt.Fprintf(out, "Saved to %s\n", stored.Key)

	return nil
}

func count(c *Config, out io.Writer) error {
	n, err := c.app.Aggregator.Count(c.Ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Conversions stored: %d\n", n)

	return nil
}

func history(c *Config, out io.Writer) error {
	records, err := c.app.Aggregator.LoadAll(c.Ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No conversions stored yet")
		return nil
	}

	fmt.Fprintf(out, "Found %d conversions:\n\n", len(records))

	table := newTable(out)
	fmt.Fprintln(table, "#\tPAIR\tAMOUNT\tRESULT\tRATE\tTIME")

	for i, r := range records {
		fmt.Fprintf(table, "%d\t%s\t%.2f\t%.2f\t%v\t%s\n",
			i+1, r.Pair(), r.Amount, r.Result, r.Rate, r.Timestamp.Format(currency.TimestampLayout))
	}

	return table.Flush()
}

func stats(c *Config, out io.Writer) error {
	records, err := c.app.Aggregator.LoadAll(c.Ctx)
	if err != nil {
		return err
	}

	s := services.ComputeStatistics(records)
	if !s.HasData() {
		fmt.Fprintln(out, "No conversions stored yet")
		return nil
	}

	table := newTable(out)
	fmt.Fprintf(table, "Conversions:\t%d\n", s.Count)
	fmt.Fprintf(table, "Most common pair:\t%s (%d)\n", s.MostCommon.Pair, s.MostCommon.Count)
	fmt.Fprintf(table, "Total amount:\t%.2f\n", s.Total)
	fmt.Fprintf(table, "Average amount:\t%.2f\n", s.Mean)
	fmt.Fprintf(table, "Largest amount:\t%.2f\n", s.Max)
	fmt.Fprintf(table, "Smallest amount:\t%.2f\n", s.Min)
	fmt.Fprintln(table)
	fmt.Fprintln(table, "PAIR\tCOUNT")

	for _, pc := range s.Pairs {
		fmt.Fprintf(table, "%s\t%d\n", pc.Pair, pc.Count)
	}

	return table.Flush()
}

func report(c *Config, out io.Writer, save bool) error {
	r, ok, err := showReport(c, out)
	if err != nil || !ok || !save {
		return err
	}

	return saveReport(c, out, r)
}

// showReport prints the report over every stored conversion. The boolean is
// false when there was nothing to report on.
func showReport(c *Config, out io.Writer) (services.Report, bool, error) {
	records, err := c.app.Aggregator.LoadAll(c.Ctx)
	if err != nil {
		return services.Report{}, false, err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No data for report")
		return services.Report{}, false, nil
	}

	r := c.app.Reporter.Build(records)

	return r, true, printReport(out, r)
}

func saveReport(c *Config, out io.Writer, r services.Report) error {
	key, err := c.app.Reporter.Save(c.Ctx, r)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Report saved to %s\n", key)

	return nil
}

func printReport(out io.Writer, r services.Report) error {
	table := newTable(out)

	fmt.Fprintln(table, "BASIC INFO")
	fmt.Fprintf(table, "Total conversions:\t%d\n", r.Total)
	fmt.Fprintf(table, "First conversion:\t%s\n", r.FirstConversion)
	fmt.Fprintf(table, "Last conversion:\t%s\n", r.LastConversion)

	fmt.Fprintln(table, "\nTOP PAIRS")
	for _, pc := range r.TopPairs {
		fmt.Fprintf(table, "%s\t%d\n", pc.Pair, pc.Count)
	}

	a := r.Amounts
	fmt.Fprintln(table, "\nAMOUNTS")
	fmt.Fprintln(table, "count\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
	fmt.Fprintf(table, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n", a.Count, a.Mean, a.Std, a.Min, a.P25, a.P50, a.P75, a.Max)

	fmt.Fprintln(table, "\nBY FROM CURRENCY")
	fmt.Fprintln(table, "CURRENCY\tSUM\tMEAN\tCOUNT")
	for _, cs := range r.ByCurrency {
		fmt.Fprintf(table, "%s\t%.2f\t%.2f\t%d\n", cs.Currency, cs.Sum, cs.Mean, cs.Count)
	}

	fmt.Fprintln(table, "\nAVERAGE RATE BY PAIR")
	for _, pr := range r.AverageRates {
		fmt.Fprintf(table, "%s\t%.6f\n", pr.Pair, pr.Rate)
	}

	fmt.Fprintln(table, "\nCONVERSIONS PER DAY")
	for _, dc := range r.PerDay {
		fmt.Fprintf(table, "%s\t%d\n", dc.Date, dc.Count)
	}

	fmt.Fprintln(table, "\nLARGEST CONVERSIONS")
	for _, conv := range r.Largest {
		fmt.Fprintf(table, "%s\t%.2f\t%.2f\t%s\n", conv.Pair(), conv.Amount, conv.Result, conv.Timestamp.Format(currency.TimestampLayout))
	}

	return table.Flush()
}

func largest(c *Config, out io.Writer) error {
	obj, ok, err := c.app.Aggregator.Largest(c.Ctx)
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(out, "No files to check")
		return nil
	}

	fmt.Fprintf(out, "The largest file is %s (%d bytes)\n", obj.Key, obj.Size)

	return nil
}

func size(c *Config, out io.Writer) error {
	total, err := c.app.Aggregator.TotalSize(c.Ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Total size of all conversions: %d bytes (%.2f KB)\n", total, float64(total)/1024)

	return nil
}

func newest(c *Config, out io.Writer) error {
	obj, ok, err := c.app.Aggregator.Newest(c.Ctx)
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(out, "No files to check")
		return nil
	}

	fmt.Fprintf(out, "The newest file is %s, last modified %s\n", obj.Key, obj.LastModified.Format(currency.TimestampLayout))

	return nil
}

func printFailures(out io.Writer, failed []services.FailedDelete) {
	for _, f := range failed {
		fmt.Fprintf(out, "  %s: %s\n", f.Key, currency.Describe(f.Err))
	}
}

func dedupe(c *Config, out io.Writer) error {
	result, err := c.app.Aggregator.Deduplicate(c.Ctx)
	if err != nil {
		return err
	}

	if result.Targeted == 0 {
		fmt.Fprintln(out, "No duplicates found")
		return nil
	}

	fmt.Fprintf(out, "Duplicate sets: %d\n", result.Groups)
	fmt.Fprintf(out, "Deleted %d of %d duplicates\n", result.Deleted, result.Targeted)
	printFailures(out, result.Failed)

	return nil
}

func purge(c *Config, out io.Writer) error {
	result, err := c.app.Aggregator.DeleteAll(c.Ctx)
	if err != nil {
		return err
	}

	if result.Targeted == 0 {
		fmt.Fprintln(out, "No files to delete")
		return nil
	}

	fmt.Fprintf(out, "Deleted %d of %d conversions\n", result.Deleted, result.Targeted)
	printFailures(out, result.Failed)

	return nil
}
