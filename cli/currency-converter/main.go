package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/malusev998/currency-converter/cli/cmd"
	"github.com/malusev998/currency-converter/logger"
)

func load(ctx context.Context, configFile string, debug bool) (*cmd.App, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}

	config, err := getConfig(ctx, v)
	if err != nil {
		return nil, err
	}

	level := config.LogLevel
	if debug {
		level = "debug"
	}

	logger.Init(level, config.LogPretty)

	return createApp(config, *logger.L())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(&cmd.Config{
		Ctx:  ctx,
		Load: load,
	})

	stop()

	if err != nil {
		os.Exit(1)
	}
}
