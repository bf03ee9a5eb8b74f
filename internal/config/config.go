// Package config loads and validates the inbound configuration of a scan
// run: service URL, credential, application path, wait timeout and risk
// threshold. Values merge in the usual order: defaults, then an optional
// YAML config file, then APPRAY_* environment variables, then flags (the
// cmd layer binds flags on top of the loaded values).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/appraysec/appray-cli/internal/errors"
)

// Defaults mirrored from the service's recommended CI settings
const (
	DefaultURL                = "https://demo.app-ray.co"
	DefaultWaitTimeoutMinutes = 10
	DefaultRiskScoreThreshold = 30
	DefaultReportFile         = "appray.junit.xml"
	DefaultResultFile         = "appray.result.json"
)

// Config is the full inbound configuration of one orchestration run
type Config struct {
	// URL is the base URL of the App-Ray service
	URL string `mapstructure:"url"`

	// AppPath is the application binary, relative to Workspace unless absolute.
	// Environment references ($VAR) are expanded at resolution time.
	AppPath string `mapstructure:"app"`

	// Workspace is the build workspace directory artifacts resolve against
	Workspace string `mapstructure:"workspace"`

	// WaitTimeoutMinutes bounds the poll loop's wall-clock time
	WaitTimeoutMinutes int `mapstructure:"wait_timeout"`

	// RiskScoreThreshold is the highest risk score that still passes the build
	RiskScoreThreshold int `mapstructure:"risk_score_threshold"`

	// CredentialID names the credential for diagnostics; the secret itself
	// arrives through Username/Password (APPRAY_USERNAME / APPRAY_PASSWORD)
	CredentialID string `mapstructure:"credential_id"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`

	// ProxyHost/ProxyPort configure an outbound proxy for all service calls
	ProxyHost string `mapstructure:"proxy_host"`
	ProxyPort int    `mapstructure:"proxy_port"`

	// ReportFile is the JUnit artifact path within the workspace
	ReportFile string `mapstructure:"report_file"`

	// ResultFile is the result record path within the workspace
	ResultFile string `mapstructure:"result_file"`

	// LogLevel and LogFormat configure the structured logger
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration from the given file (optional; empty means look
// for .appray.yaml in the workspace), the APPRAY_* environment, and defaults.
func Load(configFile, workspace string) (*Config, error) {
	v := viper.New()

	v.SetDefault("url", DefaultURL)
	v.SetDefault("workspace", ".")
	v.SetDefault("wait_timeout", DefaultWaitTimeoutMinutes)
	v.SetDefault("risk_score_threshold", DefaultRiskScoreThreshold)
	v.SetDefault("report_file", DefaultReportFile)
	v.SetDefault("result_file", DefaultResultFile)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if workspace != "" {
		v.SetDefault("workspace", workspace)
	}

	v.SetEnvPrefix("APPRAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not expose keys without defaults to Unmarshal,
	// so bind every key explicitly.
	for _, key := range []string{
		"url", "app", "workspace", "wait_timeout", "risk_score_threshold",
		"credential_id", "username", "password", "proxy_host", "proxy_port",
		"report_file", "result_file", "log_level", "log_format",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "bind environment", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("read config file %s", configFile), err)
		}
	} else {
		v.SetConfigName(".appray")
		v.SetConfigType("yaml")
		if workspace != "" {
			v.AddConfigPath(workspace)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// The config file is optional; only a malformed one is fatal.
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "read .appray.yaml", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "unmarshal configuration", err)
	}

	return &cfg, nil
}

// ResolvedAppPath expands environment references in AppPath and anchors it
// to the workspace when relative.
func (c *Config) ResolvedAppPath() string {
	expanded := os.ExpandEnv(c.AppPath)
	if expanded == "" || filepath.IsAbs(expanded) {
		return expanded
	}
	return filepath.Join(c.Workspace, expanded)
}

// WorkspacePath anchors a relative artifact path to the workspace
func (c *Config) WorkspacePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Workspace, name)
}

// Proxy returns the configured proxy host/port, or ok=false when unset
func (c *Config) Proxy() (host string, port int, ok bool) {
	if c.ProxyHost == "" {
		return "", 0, false
	}
	return c.ProxyHost, c.ProxyPort, true
}

// Validate checks the preconditions of a scan run. Each failure is fatal
// and not retried. The application file's existence is checked separately
// by the orchestrator since it is filesystem state, not configuration shape.
func (c *Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return errors.NewCredentialMissingError(c.credentialLabel())
	}
	if c.URL == "" {
		return errors.NewURLMissingError()
	}
	if c.AppPath == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "application path is required").
			WithSuggestion("Set app in .appray.yaml or via --app")
	}
	if c.WaitTimeoutMinutes <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("wait-timeout must be positive, got %d", c.WaitTimeoutMinutes))
	}
	if c.RiskScoreThreshold < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("risk-score-threshold must not be negative, got %d", c.RiskScoreThreshold))
	}
	return nil
}

func (c *Config) credentialLabel() string {
	if c.CredentialID != "" {
		return c.CredentialID
	}
	return "APPRAY_USERNAME/APPRAY_PASSWORD"
}

// ValidationResult is the outcome of a stateless connection-config check
type ValidationResult struct {
	// OK means the inputs are usable as-is
	OK bool
	// Warning is a non-fatal note (for example an unexpandable credential
	// expression that cannot be validated ahead of the run)
	Warning string
	// Err is the failure when OK is false
	Err error
}

// ValidateConnectionInputs checks candidate connection settings without any
// process-wide state. A credential reference of the form ${...} cannot be
// resolved outside a build and yields a warning instead of an error.
func ValidateConnectionInputs(url, credentialRef string) ValidationResult {
	if strings.HasPrefix(credentialRef, "${") && strings.HasSuffix(credentialRef, "}") {
		return ValidationResult{OK: true, Warning: "cannot validate expression based credentials"}
	}
	if credentialRef == "" {
		return ValidationResult{Err: errors.NewCredentialMissingError("(unset)")}
	}
	if url == "" {
		return ValidationResult{Err: errors.NewURLMissingError()}
	}
	return ValidationResult{OK: true}
}
