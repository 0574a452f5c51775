package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	currency "github.com/malusev998/currency-converter"
	"github.com/malusev998/currency-converter/services"
)

type (
	// App holds the services the commands operate on.
	App struct {
		Converter  currency.Converter
		Aggregator services.Aggregator
		Reporter   services.Reporter
		Close      func() error
	}

	// Loader builds the App once flags are parsed.
	Loader func(ctx context.Context, configFile string, debug bool) (*App, error)

	Config struct {
		Ctx    context.Context
		Load   Loader
		In     io.Reader
		Out    io.Writer
		ErrOut io.Writer

		app        *App
		debug      bool
		configFile string
	}
)

func (c *Config) load(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		return nil
	}

	if c.Load == nil {
		return errors.New("no application loader configured")
	}

	app, err := c.Load(c.Ctx, c.configFile, c.debug)
	if err != nil {
		return err
	}

	c.app = app

	return nil
}

func (c *Config) close() error {
	if c.app == nil || c.app.Close == nil {
		return nil
	}

	return c.app.Close()
}

func NewRootCommand(config *Config) *cobra.Command {
	if config.Ctx == nil {
		config.Ctx = context.Background()
	}

	rootCmd := &cobra.Command{
		Use:               "currency-converter",
		Short:             "Convert currencies and keep a history of the conversions",
		Version:           "v2.0.0",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: config.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(config, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().BoolVar(&config.debug, "debug", false, "Debug flag")
	rootCmd.PersistentFlags().StringVar(&config.configFile, "config", "./config.yml", "Path to config file")

	if config.In != nil {
		rootCmd.SetIn(config.In)
	}

	if config.Out != nil {
		rootCmd.SetOut(config.Out)
	}

	if config.ErrOut != nil {
		rootCmd.SetErr(config.ErrOut)
	}

	rootCmd.AddCommand(
		convertCommand(config),
		simpleCommand(config, "count", "Number of stored conversions", count),
		simpleCommand(config, "history", "Print every stored conversion", history),
		simpleCommand(config, "stats", "Conversion statistics", stats),
		reportCommand(config),
		simpleCommand(config, "largest", "Largest conversion record", largest),
		simpleCommand(config, "size", "Total size of the conversion records", size),
		simpleCommand(config, "newest", "Most recently written conversion record", newest),
		simpleCommand(config, "dedupe", "Remove duplicate conversions", dedupe),
		simpleCommand(config, "purge", "Delete all conversions", purge),
		&cobra.Command{
			Use:   "menu",
			Short: "Interactive menu",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMenu(config, cmd.InOrStdin(), cmd.OutOrStdout())
			},
		},
	)

	return rootCmd
}

// Execute runs the command line and prints a failed command's error in the
// same words the menu uses.
func Execute(config *Config) error {
	rootCmd := NewRootCommand(config)

	defer func() {
		if err := config.close(); err != nil {
			fmt.Fprintln(rootCmd.ErrOrStderr(), currency.Describe(err))
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), currency.Describe(err))
		return err
	}

	return nil
}
