// Package cli implements the askdb command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/logging"
)

var (
	version    = "dev"
	configPath string
	envFile    string
)

// NewRootCommand builds the askdb command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "askdb",
		Short: "Answer natural-language questions from relational databases",
		Long: `askdb turns questions into SQL, runs them against a project's database
and explains the result.

Examples:

  askdb serve
  askdb ask --project sales "What is the total amount per region?"
  askdb replay --project sales resp_20261018_101500_abcdef012345
  askdb migrate up
  askdb introspect --db-type postgres --conn "postgres://..."
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the config")

	root.AddCommand(
		newServeCommand(),
		newAskCommand(),
		newReplayCommand(),
		newMigrateCommand(),
		newIntrospectCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI with the build version.
func Execute(buildVersion string) {
	version = buildVersion
	if err := NewRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the askdb version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "askdb", version)
		},
	}
}

// bootstrap loads the dotenv file, configuration and process logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load(configPath, version)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
