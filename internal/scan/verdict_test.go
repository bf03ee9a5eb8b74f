package scan

import (
	"testing"

	stderrors "errors"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResultURL = "https://demo.app-ray.co/scan-details/abc123"

func TestEvaluateThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		riskScore int
		threshold int
		want      Outcome
	}{
		{"score below threshold", 20, 30, OutcomePass},
		{"score equals threshold", 30, 30, OutcomePass},
		{"score one above threshold", 31, 30, OutcomeFail},
		{"zero score zero threshold", 0, 0, OutcomePass},
		{"high score", 100, 30, OutcomeFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &appray.ScanJob{Status: appray.StatusFinished, RiskScore: tt.riskScore}
			verdict := Evaluate(job, tt.threshold, testResultURL)

			assert.Equal(t, tt.want, verdict.Outcome)
			assert.Equal(t, testResultURL, verdict.ResultURL, "finished path always carries the result URL")
			assert.True(t, verdict.FetchReport, "finished path always fetches the report")
		})
	}
}

func TestEvaluateFailedJobAlwaysFails(t *testing.T) {
	for _, score := range []int{0, 5, 100} {
		job := &appray.ScanJob{
			Status:        appray.StatusFailed,
			RiskScore:     score,
			FailureReason: "corrupt binary",
		}
		verdict := Evaluate(job, 1000, testResultURL)

		assert.Equal(t, OutcomeFail, verdict.Outcome)
		assert.Equal(t, ReasonScanFailed, verdict.Reason)
		assert.Contains(t, verdict.Message, "corrupt binary")
		assert.Empty(t, verdict.ResultURL, "failed path carries no result URL")
		assert.False(t, verdict.FetchReport, "failed path never fetches the report")
	}
}

func TestEvaluateNonTerminalIsTimeout(t *testing.T) {
	for _, status := range []appray.JobStatus{appray.StatusQueued, appray.StatusProcessing} {
		t.Run(string(status), func(t *testing.T) {
			job := &appray.ScanJob{Status: status}
			verdict := Evaluate(job, 30, testResultURL)

			assert.Equal(t, OutcomeFail, verdict.Outcome)
			assert.Equal(t, ReasonWaitTimeout, verdict.Reason)
			assert.Contains(t, verdict.Message, "timeout")
			assert.Equal(t, testResultURL, verdict.ResultURL, "job may still complete server-side")
			assert.False(t, verdict.FetchReport)
		})
	}
}

func TestVerdictErr(t *testing.T) {
	tests := []struct {
		name     string
		job      *appray.ScanJob
		wantCode errors.ErrorCode
	}{
		{
			name:     "pass yields nil",
			job:      &appray.ScanJob{Status: appray.StatusFinished, RiskScore: 10},
			wantCode: "",
		},
		{
			name:     "risk exceeded",
			job:      &appray.ScanJob{Status: appray.StatusFinished, RiskScore: 45},
			wantCode: errors.ErrCodeScanRiskExceeded,
		},
		{
			name:     "scan failed",
			job:      &appray.ScanJob{Status: appray.StatusFailed, FailureReason: "boom"},
			wantCode: errors.ErrCodeScanFailed,
		},
		{
			name:     "timeout",
			job:      &appray.ScanJob{Status: appray.StatusProcessing},
			wantCode: errors.ErrCodeScanWaitTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Evaluate(tt.job, 30, testResultURL)
			err := verdict.Err(tt.job, 30)

			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}

			var appErr *errors.AppRayError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}
