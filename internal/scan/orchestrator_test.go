package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	stderrors "errors"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/config"
	"github.com/appraysec/appray-cli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession scripts the remote service for orchestrator tests
type fakeSession struct {
	user      *appray.User
	org       string
	jobID     string
	snapshots []*appray.ScanJob
	junit     []byte

	fetchCalls int
	junitCalls int
	closeCalls int

	orgErr    error
	submitErr error
}

func (s *fakeSession) GetUser(ctx context.Context) (*appray.User, error) {
	return s.user, nil
}

func (s *fakeSession) GetOrganization(ctx context.Context) (string, error) {
	if s.orgErr != nil {
		return "", s.orgErr
	}
	return s.org, nil
}

func (s *fakeSession) SubmitApp(ctx context.Context, path string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return s.jobID, nil
}

func (s *fakeSession) GetJobDetails(ctx context.Context, jobID string) (*appray.ScanJob, error) {
	idx := s.fetchCalls
	if idx >= len(s.snapshots) {
		idx = len(s.snapshots) - 1
	}
	s.fetchCalls++
	return s.snapshots[idx], nil
}

func (s *fakeSession) GetJUnitReport(ctx context.Context, jobID string) ([]byte, error) {
	s.junitCalls++
	return s.junit, nil
}

func (s *fakeSession) Close() {
	s.closeCalls++
}

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()

	workspace := t.TempDir()
	appPath := filepath.Join(workspace, "app.apk")
	require.NoError(t, os.WriteFile(appPath, []byte("binary-bytes"), 0o644))

	return &config.Config{
		URL:                "https://demo.app-ray.co",
		AppPath:            "app.apk",
		Workspace:          workspace,
		WaitTimeoutMinutes: 10,
		RiskScoreThreshold: 30,
		Username:           "ci@example.com",
		Password:           "secret",
		ReportFile:         config.DefaultReportFile,
		ResultFile:         config.DefaultResultFile,
	}, workspace
}

func newTestOrchestrator(cfg *config.Config, session *fakeSession) *Orchestrator {
	clock := newFakeClock()
	return &Orchestrator{
		Config: cfg,
		Authenticate: func(ctx context.Context, baseURL, username, password string, proxy *appray.Proxy) (Session, error) {
			return session, nil
		},
		sleep: clock.sleep,
		now:   clock.now,
	}
}

func fullUser() *appray.User {
	return &appray.User{Name: "CI Bot", Email: "ci@example.com", Role: appray.RoleFull, RawRole: "full-access"}
}

func TestRunPassingScan(t *testing.T) {
	cfg, workspace := testConfig(t)
	session := &fakeSession{
		user:  fullUser(),
		org:   "ACME Mobile",
		jobID: "abc123",
		snapshots: []*appray.ScanJob{
			{Status: appray.StatusQueued, Package: "com.acme.app", Label: "ACME", Version: "1.0", Platform: "android", AppHash: "deadbeef"},
			{Status: appray.StatusQueued},
			{Status: appray.StatusProcessing, ProgressTotal: 10, ProgressFinished: 9},
			{Status: appray.StatusFinished, RiskScore: 20},
		},
		junit: []byte(`<?xml version="1.0"?><testsuite name="appray"/>`),
	}

	result, err := newTestOrchestrator(cfg, session).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePass, result.Verdict.Outcome)
	assert.Equal(t, "https://demo.app-ray.co/scan-details/abc123", result.ResultURL)
	assert.NotEmpty(t, result.RunID)
	assert.True(t, strings.HasPrefix(result.Fingerprint, "blake3:"))
	assert.Equal(t, 1, session.closeCalls, "session must be closed exactly once")
	assert.Equal(t, 1, session.junitCalls)

	// JUnit artifact and result record land in the workspace.
	junit, err := os.ReadFile(filepath.Join(workspace, config.DefaultReportFile))
	require.NoError(t, err)
	assert.Equal(t, session.junit, junit)

	record, err := os.ReadFile(filepath.Join(workspace, config.DefaultResultFile))
	require.NoError(t, err)
	assert.Contains(t, string(record), `"outcome": "pass"`)
	assert.Contains(t, string(record), "scan-details/abc123")
}

func TestRunRiskScoreExceeded(t *testing.T) {
	cfg, workspace := testConfig(t)
	session := &fakeSession{
		user:  fullUser(),
		org:   "ACME Mobile",
		jobID: "abc123",
		snapshots: []*appray.ScanJob{
			{Status: appray.StatusFinished, RiskScore: 45},
		},
		junit: []byte(`<testsuite/>`),
	}

	result, err := newTestOrchestrator(cfg, session).Run(context.Background())
	require.Error(t, err)

	var appErr *errors.AppRayError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeScanRiskExceeded, appErr.Code)
	assert.Contains(t, appErr.Message, "45")

	assert.Equal(t, OutcomeFail, result.Verdict.Outcome)
	assert.Equal(t, 1, session.closeCalls)

	// The artifact is still written on the over-threshold path.
	_, statErr := os.Stat(filepath.Join(workspace, config.DefaultReportFile))
	assert.NoError(t, statErr)
}

func TestRunTimeout(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.WaitTimeoutMinutes = 1
	session := &fakeSession{
		user:  fullUser(),
		org:   "ACME Mobile",
		jobID: "abc123",
		snapshots: []*appray.ScanJob{
			{Status: appray.StatusProcessing, ProgressTotal: 10, ProgressFinished: 1},
		},
	}

	result, err := newTestOrchestrator(cfg, session).Run(context.Background())
	require.Error(t, err)

	var appErr *errors.AppRayError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeScanWaitTimeout, appErr.Code)

	assert.Equal(t, ReasonWaitTimeout, result.Verdict.Reason)
	assert.Equal(t, "https://demo.app-ray.co/scan-details/abc123", result.Verdict.ResultURL)
	assert.Zero(t, session.junitCalls, "no report fetch on the timeout path")
	assert.Equal(t, 1, session.closeCalls)
}

func TestRunScanFailed(t *testing.T) {
	cfg, workspace := testConfig(t)
	session := &fakeSession{
		user:  fullUser(),
		org:   "ACME Mobile",
		jobID: "abc123",
		snapshots: []*appray.ScanJob{
			{Status: appray.StatusFailed, FailureReason: "unsupported packer"},
		},
	}

	result, err := newTestOrchestrator(cfg, session).Run(context.Background())
	require.Error(t, err)

	var appErr *errors.AppRayError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeScanFailed, appErr.Code)
	assert.Contains(t, appErr.Message, "unsupported packer")

	assert.Empty(t, result.Verdict.ResultURL, "failed path carries no result URL")
	assert.Zero(t, session.junitCalls)

	// The result record is written even when the scan failed.
	record, readErr := os.ReadFile(filepath.Join(workspace, config.DefaultResultFile))
	require.NoError(t, readErr)
	assert.Contains(t, string(record), "scan-failed")
}

func TestRunValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantCode errors.ErrorCode
	}{
		{"missing credential", func(c *config.Config) { c.Password = "" }, errors.ErrCodeConfigCredentialMissing},
		{"missing url", func(c *config.Config) { c.URL = "" }, errors.ErrCodeConfigURLMissing},
		{"missing app file", func(c *config.Config) { c.AppPath = "nope.apk" }, errors.ErrCodeConfigAppNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := testConfig(t)
			tt.mutate(cfg)

			authenticated := false
			orch := &Orchestrator{
				Config: cfg,
				Authenticate: func(ctx context.Context, baseURL, username, password string, proxy *appray.Proxy) (Session, error) {
					authenticated = true
					return nil, nil
				},
			}

			_, err := orch.Run(context.Background())
			require.Error(t, err)

			var appErr *errors.AppRayError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.False(t, authenticated, "validation failures must not open a session")
		})
	}
}

func TestRunClosesSessionOnRemoteError(t *testing.T) {
	cfg, _ := testConfig(t)
	session := &fakeSession{
		user:   fullUser(),
		orgErr: errors.NewRemoteError(500, "Internal Server Error", "boom"),
	}

	_, err := newTestOrchestrator(cfg, session).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, session.closeCalls, "session must be closed on the error path")
}

func TestCheckConnection(t *testing.T) {
	cfg, _ := testConfig(t)
	session := &fakeSession{user: fullUser(), org: "ACME Mobile"}

	info, err := newTestOrchestrator(cfg, session).CheckConnection(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ACME Mobile", info.Organization)
	assert.Contains(t, info.String(), "Successfully connected. CI Bot (ci@example.com) @ ACME Mobile")
	assert.Equal(t, 1, session.closeCalls)
}

func TestCheckConnectionRequiresFullAccess(t *testing.T) {
	cfg, _ := testConfig(t)
	session := &fakeSession{
		user: &appray.User{Name: "Viewer", Email: "view@example.com", Role: appray.RoleReadOnly, RawRole: "read-only"},
		org:  "ACME Mobile",
	}

	_, err := newTestOrchestrator(cfg, session).CheckConnection(context.Background())
	require.Error(t, err)

	var appErr *errors.AppRayError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeAuthRoleInsufficient, appErr.Code)
	assert.Equal(t, 1, session.closeCalls)
}
