package cmd

import (
	"github.com/spf13/cobra"
)

func simpleCommand(config *Config, use, short string, run action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config, cmd.OutOrStdout())
		},
	}
}

func convertCommand(config *Config) *cobra.Command {
	var (
		from   string
		to     string
		amount float64
	)

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an amount and store the conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return convert(config, cmd.OutOrStdout(), from, to, amount)
		},
	}

	convertCmd.Flags().StringVar(&from, "from", "", "Currency to convert from, e.g. USD")
	convertCmd.Flags().StringVar(&to, "to", "", "Currency to convert to, e.g. EUR")
	convertCmd.Flags().Float64Var(&amount, "amount", 0, "Amount to convert")
	_ = convertCmd.MarkFlagRequired("from")
	_ = convertCmd.MarkFlagRequired("to")
	_ = convertCmd.MarkFlagRequired("amount")

	return convertCmd
}

func reportCommand(config *Config) *cobra.Command {
	var save bool

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Detailed report over every stored conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(config, cmd.OutOrStdout(), save)
		},
	}

	reportCmd.Flags().BoolVar(&save, "save", false, "Store the report next to the conversions")

	return reportCmd
}
