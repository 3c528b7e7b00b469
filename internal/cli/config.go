package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Set by the build, e.g. -ldflags "-X .../internal/cli.version=v0.2.0".
var version = "dev"

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Never echo credentials.
			cfg.LLM.APIKey = redact(cfg.LLM.APIKey)
			cfg.News.NewsAPIKey = redact(cfg.News.NewsAPIKey)
			cfg.Social.TwitterBearerToken = redact(cfg.Social.TwitterBearerToken)

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(*cobra.Command, []string) {
			fmt.Println("marketcheck", version)
		},
	}
}
