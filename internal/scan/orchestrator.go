package scan

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/config"
	"github.com/appraysec/appray-cli/internal/errors"
	"github.com/appraysec/appray-cli/internal/log"
	"github.com/appraysec/appray-cli/internal/report"
)

// Session is the slice of the remote client one orchestration run owns.
// *appray.Client satisfies it; tests substitute fakes.
type Session interface {
	JobFetcher
	GetUser(ctx context.Context) (*appray.User, error)
	GetOrganization(ctx context.Context) (string, error)
	SubmitApp(ctx context.Context, path string) (string, error)
	GetJUnitReport(ctx context.Context, jobID string) ([]byte, error)
	Close()
}

// AuthenticateFunc opens a session; swappable for tests
type AuthenticateFunc func(ctx context.Context, baseURL, username, password string, proxy *appray.Proxy) (Session, error)

func defaultAuthenticate(ctx context.Context, baseURL, username, password string, proxy *appray.Proxy) (Session, error) {
	return appray.Authenticate(ctx, baseURL, username, password, proxy)
}

// RunResult is everything one orchestration run produced
type RunResult struct {
	RunID       string          `json:"run_id"`
	Verdict     Verdict         `json:"verdict"`
	Job         *appray.ScanJob `json:"job,omitempty"`
	ResultURL   string          `json:"result_url,omitempty"`
	Fingerprint string          `json:"app_fingerprint,omitempty"`
	ReportPath  string          `json:"report_path,omitempty"`
	ResultPath  string          `json:"result_path,omitempty"`
}

// Orchestrator composes the remote client, poller and evaluator for one run
type Orchestrator struct {
	Config *config.Config
	Logger *log.Logger

	// Authenticate defaults to the real client when nil
	Authenticate AuthenticateFunc

	// OnSnapshot is passed through to the poller
	OnSnapshot func(*appray.ScanJob)

	// sleep/now are forwarded to the poller for tests
	sleep func(time.Duration)
	now   func() time.Time
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.DefaultLogger()
}

func (o *Orchestrator) authenticate() AuthenticateFunc {
	if o.Authenticate != nil {
		return o.Authenticate
	}
	return defaultAuthenticate
}

// Run executes the whole pipeline: validate, authenticate, submit, poll,
// evaluate, persist. The returned error is the run's failure (if any); the
// RunResult is populated as far as the run got. The session is closed
// exactly once on every exit path.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	cfg := o.Config
	logger := o.logger()

	result := &RunResult{RunID: uuid.NewString()}
	logger = logger.With("run_id", result.RunID)

	if err := cfg.Validate(); err != nil {
		return result, err
	}

	appPath := cfg.ResolvedAppPath()
	if _, err := os.Stat(appPath); err != nil {
		return result, errors.NewAppNotFoundError(appPath)
	}

	fingerprint, err := fingerprintFile(appPath)
	if err != nil {
		return result, err
	}
	result.Fingerprint = fingerprint

	logger.Info("scanning application", "app", appPath, "fingerprint", fingerprint)

	var proxy *appray.Proxy
	if host, port, ok := cfg.Proxy(); ok {
		proxy = &appray.Proxy{Host: host, Port: port}
	}

	session, err := o.authenticate()(ctx, cfg.URL, cfg.Username, cfg.Password, proxy)
	if err != nil {
		return result, err
	}
	defer session.Close()

	user, err := session.GetUser(ctx)
	if err != nil {
		return result, err
	}
	organization, err := session.GetOrganization(ctx)
	if err != nil {
		return result, err
	}

	logger.Info("scanning on service",
		"url", cfg.URL,
		"user", fmt.Sprintf("%s (%s)", user.Name, user.Email),
		"organization", organization)

	jobID, err := session.SubmitApp(ctx, appPath)
	if err != nil {
		return result, err
	}

	job, err := session.GetJobDetails(ctx, jobID)
	if err != nil {
		return result, err
	}
	result.Job = job

	resultURL := cfg.URL + "/scan-details/" + jobID
	result.ResultURL = resultURL

	logger.Info("scan job created",
		"job_id", jobID,
		"platform", job.Platform,
		"package", job.Package,
		"label", job.Label,
		"version", job.Version,
		"app_hash", job.AppHash)
	logger.Info("scan result details will be available at " + resultURL)

	poller := &Poller{
		Fetcher:    session,
		Timeout:    time.Duration(cfg.WaitTimeoutMinutes) * time.Minute,
		OnSnapshot: o.OnSnapshot,
		Logger:     logger,
		sleep:      o.sleep,
		now:        o.now,
	}

	job, err = poller.Wait(ctx, jobID)
	if err != nil {
		return result, err
	}
	result.Job = job

	verdict := Evaluate(job, cfg.RiskScoreThreshold, resultURL)
	result.Verdict = verdict

	if job.Status == appray.StatusFinished && job.RiskScore == 0 {
		logger.Warn("finished scan reported no risk score; treating as zero", "job_id", jobID)
	}

	if verdict.FetchReport {
		junit, err := session.GetJUnitReport(ctx, jobID)
		if err != nil {
			return result, err
		}
		reportPath := cfg.WorkspacePath(cfg.ReportFile)
		if err := report.WriteJUnit(reportPath, junit); err != nil {
			return result, err
		}
		result.ReportPath = reportPath
		logger.Info("junit report written", "path", reportPath)
	}

	record := &report.ResultRecord{
		RunID:       result.RunID,
		Outcome:     string(verdict.Outcome),
		Reason:      string(verdict.Reason),
		ResultURL:   verdict.ResultURL,
		Fingerprint: fingerprint,
		Job:         job,
		CreatedAt:   time.Now().UTC(),
	}
	resultPath := cfg.WorkspacePath(cfg.ResultFile)
	if err := report.WriteResultRecord(resultPath, record); err != nil {
		return result, err
	}
	result.ResultPath = resultPath

	if verdictErr := verdict.Err(job, cfg.RiskScoreThreshold); verdictErr != nil {
		logger.WithError(verdictErr).Error(verdict.Message)
		return result, verdictErr
	}

	logger.Info(verdict.Message, "job_id", jobID, "result_url", resultURL)
	return result, nil
}

// fingerprintFile computes a blake3 digest of the binary being submitted,
// recorded in the result record alongside the server's own app_hash.
func fingerprintFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("hash %s", path), err)
	}

	return "blake3:" + hex.EncodeToString(hasher.Sum(nil)), nil
}
