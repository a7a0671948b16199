package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recist-io/recist/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective operator configuration",
	Long: `Print the configuration the operator would run with, after merging the
built-in defaults, the config file, and environment variables.

Examples:
  # Show the defaults
  recist config

  # Show what a deployment would use
  PROMETHEUS_URL=http://prom:9090 recist config --config /etc/recist/config.yaml
`,
	Run: runConfig,
}

var configFile string

func init() {
	configCmd.Flags().StringVar(&configFile, "config", "",
		"Path to the operator config file (YAML)")
}

func runConfig(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile)
	HandleError(err, "Configuration error")

	rendered, err := cfg.Render()
	HandleError(err, "Failed to render configuration")

	fmt.Print(rendered)
}
