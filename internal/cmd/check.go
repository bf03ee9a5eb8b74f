package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appraysec/appray-cli/internal/config"
	"github.com/appraysec/appray-cli/internal/log"
	"github.com/appraysec/appray-cli/internal/scan"
	"github.com/appraysec/appray-cli/internal/ux"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the service connection and credential",
	Long: `Authenticate against the App-Ray service with the configured
credential and confirm the account has the full-access role required
to submit scans. Nothing is scanned.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("url", config.DefaultURL, "App-Ray service URL")
	checkCmd.Flags().String("credential-id", "", "name of the credential for diagnostics")
	checkCmd.Flags().String("proxy-host", "", "outbound HTTP proxy host")
	checkCmd.Flags().Int("proxy-port", 0, "outbound HTTP proxy port")
	checkCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfigFile, flagWorkspace)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.URL, _ = flags.GetString("url")
	}
	if flags.Changed("credential-id") {
		cfg.CredentialID, _ = flags.GetString("credential-id")
	}
	if flags.Changed("proxy-host") {
		cfg.ProxyHost, _ = flags.GetString("proxy-host")
	}
	if flags.Changed("proxy-port") {
		cfg.ProxyPort, _ = flags.GetInt("proxy-port")
	}

	credentialRef := cfg.CredentialID
	if credentialRef == "" {
		credentialRef = cfg.Username
	}
	validation := config.ValidateConnectionInputs(cfg.URL, credentialRef)
	if validation.Err != nil {
		return validation.Err
	}
	if validation.Warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), ux.WarnLine(validation.Warning, flagNoColor))
	}

	orchestrator := &scan.Orchestrator{
		Config: cfg,
		Logger: log.DefaultLogger(),
	}

	info, err := orchestrator.CheckConnection(cmd.Context())
	if err != nil {
		return err
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	switch outputFormat {
	case "text", "":
		fmt.Fprintln(cmd.OutOrStdout(), ux.PassLine(info.String(), flagNoColor))
	default:
		formatter, fmtErr := ux.NewFormatter(outputFormat, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
		if fmtErr != nil {
			return fmtErr
		}
		if fmtErr := formatter.Format(info); fmtErr != nil {
			return fmtErr
		}
	}

	return nil
}
