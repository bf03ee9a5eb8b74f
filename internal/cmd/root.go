package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/appraysec/appray-cli/internal/log"
)

var (
	flagConfigFile string
	flagWorkspace  string
	flagLogLevel   string
	flagLogFormat  string
	flagNoColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "appray",
	Short: "App-Ray mobile security scan gate for CI pipelines",
	Long: `appray submits a mobile application binary to an App-Ray scanning
service, waits for the analysis to complete, and fails the build when the
risk score exceeds the configured threshold. Scan results are written into
the workspace as a JUnit XML report and a JSON result record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := log.Config{
			Level:  log.ParseLevel(flagLogLevel),
			Format: log.ParseFormat(flagLogFormat),
			Output: log.OutputStderr(),
		}
		// CI log collectors want JSON unless the user asked for a format.
		if os.Getenv("CI") == "true" && !cmd.Flags().Changed("log-format") {
			ci := log.CIConfig()
			ci.Level = cfg.Level
			cfg = ci
		}
		log.SetDefaultLogger(log.New(cfg))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default is .appray.yaml in the workspace)")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "build workspace directory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
}
