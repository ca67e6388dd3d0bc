package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"thomann-reviews/internal/types"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	config := types.DefaultConfig()
	config.ApplyEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(config *types.Config) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "reviews",
		Short:         "reviews collects customer reviews from thomann.de into a table.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&config.BaseURL, "base-url", config.BaseURL, "Review site base URL")
	flags.IntVar(&config.Filter.Rating, "rating", config.Filter.Rating, "Rating filter code (0 = all)")
	flags.IntVar(&config.Filter.Order, "order", config.Filter.Order, "Sort order code (0 = default)")
	flags.IntVar(&config.Filter.Language, "lang", config.Filter.Language, "Review language code")
	flags.IntVar(&config.MaxPages, "max-pages", config.MaxPages, "Stop after this many pages per product (0 = until an empty page)")
	flags.DurationVar(&config.RequestDelay, "delay", config.RequestDelay, "Minimum delay between requests")
	flags.DurationVar(&config.Timeout, "timeout", config.Timeout, "Request timeout")
	flags.IntVar(&config.MaxRetries, "retries", config.MaxRetries, "Retry attempts for transient failures")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newScrapeCmd(config, &verbose))
	rootCmd.AddCommand(newInspectCmd(config, &verbose))
	return rootCmd
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}
