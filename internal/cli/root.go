// Package cli implements the marketcheck command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nroshak/marketcheck/internal/logger"
	"github.com/nroshak/marketcheck/internal/model"
)

var (
	cfgFile  string
	logLevel string
	pretty   bool
)

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "marketcheck",
		Short: "Fact-check questions against prediction market prices",
		Long: `marketcheck answers yes/no questions by finding the Polymarket markets
that trade on them and reading the implied probabilities, backed by news
and social side channels.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default marketcheck.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")

	root.AddCommand(
		newAskCmd(),
		newBatchCmd(),
		newIngestCmd(),
		newPopularCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig overlays file, environment, and flag values on the defaults.
// Environment variables use the MARKETCHECK_ prefix with underscores, e.g.
// MARKETCHECK_LLM_API_KEY.
func loadConfig() (*model.Config, error) {
	// .env is optional, for local development.
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("marketcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/marketcheck")
	}
	v.SetEnvPrefix("MARKETCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Common keys also honored without the prefix.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Social.TwitterBearerToken == "" {
		cfg.Social.TwitterBearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if pretty {
		cfg.Log.Pretty = true
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
