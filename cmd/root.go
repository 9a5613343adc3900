package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

func NewRootCmd() *cobra.Command {
	var configFile string
	var debug bool

	cmd := &cobra.Command{
		Use:   "tabbycat",
		Short: "Tabby metadata pipeline for the SFB1451 data catalog",
		Long: `Tabbycat turns tabular metadata records ("tabby" files) into catalog
metadata. It loads TSV sheets or spreadsheet submissions, enriches them
through public registries (doi.org, Crossref, OLS, GEPRIS, CORDIS), and
writes catalog entries, file listings, and subdataset registrations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return initConfig(configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default tabbycat.yaml in the working directory)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newInboxCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSubdatasetsCmd())
	cmd.AddCommand(newTagCmd())
	cmd.AddCommand(newMockCmd())
	cmd.AddCommand(newGrantCmd())

	return cmd
}

// initConfig wires viper defaults, the optional config file, and
// TABBYCAT_* environment variables.
func initConfig(configFile string) error {
	viper.SetDefault("catalog", "catalog")
	viper.SetDefault("conventions", "conventions")
	viper.SetDefault("lookup", "lookup_tables.toml")
	viper.SetDefault("cache_file", "http-cache.gob")
	viper.SetDefault("mailto", "")

	viper.SetEnvPrefix("TABBYCAT")
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	viper.SetConfigName("tabbycat")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// newFetchClient builds the cached HTTP client the registry lookups
// share, configured from viper.
func newFetchClient() *fetch.Client {
	var opts []fetch.Option
	if mailto := viper.GetString("mailto"); mailto != "" {
		opts = append(opts, fetch.WithMailto(mailto))
	}
	if cacheFile := viper.GetString("cache_file"); cacheFile != "" {
		opts = append(opts, fetch.WithCachePath(cacheFile))
	}
	return fetch.New(opts...)
}
