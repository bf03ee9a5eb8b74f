package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/appraysec/appray-cli/internal/config"
)

func TestCommandTree(t *testing.T) {
	wanted := []string{"scan", "check", "version"}
	for _, name := range wanted {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	flagConfigFile = ""
	flagWorkspace = t.TempDir()

	if err := scanCmd.Flags().Set("url", "https://scanner.example.com"); err != nil {
		t.Fatal(err)
	}
	if err := scanCmd.Flags().Set("risk-score-threshold", "55"); err != nil {
		t.Fatal(err)
	}
	if err := scanCmd.Flags().Set("app", "build/app.apk"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = scanCmd.Flags().Set("url", config.DefaultURL)
		_ = scanCmd.Flags().Set("risk-score-threshold", "30")
		_ = scanCmd.Flags().Set("app", "")
	}()

	cfg, err := loadConfig(scanCmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.URL != "https://scanner.example.com" {
		t.Errorf("URL = %s, want flag override", cfg.URL)
	}
	if cfg.RiskScoreThreshold != 55 {
		t.Errorf("RiskScoreThreshold = %d, want 55", cfg.RiskScoreThreshold)
	}
	if cfg.AppPath != "build/app.apk" {
		t.Errorf("AppPath = %s, want build/app.apk", cfg.AppPath)
	}

	// Flags the user never touched keep the loaded defaults.
	if cfg.WaitTimeoutMinutes != config.DefaultWaitTimeoutMinutes {
		t.Errorf("WaitTimeoutMinutes = %d, want default %d", cfg.WaitTimeoutMinutes, config.DefaultWaitTimeoutMinutes)
	}
	if cfg.ReportFile != config.DefaultReportFile {
		t.Errorf("ReportFile = %s, want default %s", cfg.ReportFile, config.DefaultReportFile)
	}
}

func TestVersionCommandOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	if err := runVersion(versionCmd, nil); err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}

	if !strings.HasPrefix(out.String(), "appray ") {
		t.Errorf("version output = %q, want appray prefix", out.String())
	}
}

func TestVersionCommandJSON(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionJSON = true
	defer func() {
		versionCmd.SetOut(nil)
		versionJSON = false
	}()

	if err := runVersion(versionCmd, nil); err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}

	if !strings.Contains(out.String(), "\"version\"") {
		t.Errorf("JSON output = %q, want version field", out.String())
	}
}
