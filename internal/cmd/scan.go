package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/config"
	"github.com/appraysec/appray-cli/internal/log"
	"github.com/appraysec/appray-cli/internal/progress"
	"github.com/appraysec/appray-cli/internal/scan"
	"github.com/appraysec/appray-cli/internal/ux"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Submit an application binary and gate the build on the scan verdict",
	Long: `Submit the application binary to the App-Ray service, poll the scan
job until it finishes or the wait timeout expires, and fail the build when
the risk score exceeds the threshold.

On a finished scan the JUnit report is written into the workspace; every
run writes a JSON result record with the result URL and the final job
snapshot.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("url", config.DefaultURL, "App-Ray service URL")
	scanCmd.Flags().String("app", "", "application binary path within the workspace")
	scanCmd.Flags().Int("wait-timeout", config.DefaultWaitTimeoutMinutes, "minutes to wait for the scan before giving up")
	scanCmd.Flags().Int("risk-score-threshold", config.DefaultRiskScoreThreshold, "highest risk score that still passes the build")
	scanCmd.Flags().String("credential-id", "", "name of the credential for diagnostics")
	scanCmd.Flags().String("report-file", config.DefaultReportFile, "JUnit report path within the workspace")
	scanCmd.Flags().String("result-file", config.DefaultResultFile, "result record path within the workspace")
	scanCmd.Flags().String("proxy-host", "", "outbound HTTP proxy host")
	scanCmd.Flags().Int("proxy-port", 0, "outbound HTTP proxy port")
	scanCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")

	rootCmd.AddCommand(scanCmd)
}

// loadConfig merges the file/env configuration with any flags the user set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfigFile, flagWorkspace)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.URL, _ = flags.GetString("url")
	}
	if flags.Changed("app") {
		cfg.AppPath, _ = flags.GetString("app")
	}
	if flags.Changed("wait-timeout") {
		cfg.WaitTimeoutMinutes, _ = flags.GetInt("wait-timeout")
	}
	if flags.Changed("risk-score-threshold") {
		cfg.RiskScoreThreshold, _ = flags.GetInt("risk-score-threshold")
	}
	if flags.Changed("credential-id") {
		cfg.CredentialID, _ = flags.GetString("credential-id")
	}
	if flags.Changed("report-file") {
		cfg.ReportFile, _ = flags.GetString("report-file")
	}
	if flags.Changed("result-file") {
		cfg.ResultFile, _ = flags.GetString("result-file")
	}
	if flags.Changed("proxy-host") {
		cfg.ProxyHost, _ = flags.GetString("proxy-host")
	}
	if flags.Changed("proxy-port") {
		cfg.ProxyPort, _ = flags.GetInt("proxy-port")
	}

	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	outputFormat, _ := cmd.Flags().GetString("output")

	reporter := progress.NewReporter(progress.Config{
		Writer:      os.Stderr,
		ShowSpinner: outputFormat == "text",
	})
	reporter.Start()
	defer reporter.Stop()

	orchestrator := &scan.Orchestrator{
		Config: cfg,
		Logger: log.DefaultLogger(),
		OnSnapshot: func(job *appray.ScanJob) {
			reporter.Update(string(job.Status), job.ProgressFinished, job.ProgressTotal)
		},
	}

	result, runErr := orchestrator.Run(cmd.Context())
	reporter.Stop()

	switch outputFormat {
	case "text", "":
		printVerdict(result, runErr)
	default:
		formatter, fmtErr := ux.NewFormatter(outputFormat, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
		if fmtErr != nil {
			return fmtErr
		}
		if fmtErr := formatter.Format(result); fmtErr != nil {
			return fmtErr
		}
	}

	return runErr
}

func printVerdict(result *scan.RunResult, runErr error) {
	if runErr != nil {
		message := result.Verdict.Message
		if message == "" {
			message = runErr.Error()
		}
		fmt.Println(ux.FailLine(message, flagNoColor))
		if result.Verdict.ResultURL != "" {
			fmt.Println("Result details: " + result.Verdict.ResultURL)
		}
		return
	}

	fmt.Println(ux.PassLine(result.Verdict.Message, flagNoColor))
	if result.ResultURL != "" {
		fmt.Println("Result details: " + result.ResultURL)
	}
	if result.ReportPath != "" {
		fmt.Println("JUnit report: " + result.ReportPath)
	}
}
