package scan

import (
	"fmt"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/errors"
)

// Outcome is the pass/fail result of a scan run
type Outcome string

const (
	// OutcomePass means the build may proceed
	OutcomePass Outcome = "pass"
	// OutcomeFail means the build must fail
	OutcomeFail Outcome = "fail"
)

// Reason classifies why a verdict came out the way it did
type Reason string

const (
	// ReasonWithinThreshold: scan finished with a risk score at or below the threshold
	ReasonWithinThreshold Reason = "risk-score-within-threshold"
	// ReasonRiskExceeded: scan finished with a risk score above the threshold
	ReasonRiskExceeded Reason = "risk-score-exceeds-threshold"
	// ReasonScanFailed: the service could not analyze the application
	ReasonScanFailed Reason = "scan-failed"
	// ReasonWaitTimeout: the job did not reach a terminal status before the deadline
	ReasonWaitTimeout Reason = "wait-timeout-exceeded"
)

// Verdict is the derived outcome of one scan run. It is never stored
// remotely; it is produced exactly once from the final job snapshot.
type Verdict struct {
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason"`
	Message string  `json:"message"`

	// ResultURL points at the scan details page. Empty on the failed path:
	// a failed job has no result to show. Still set on timeout since the
	// job may complete server-side later.
	ResultURL string `json:"result_url,omitempty"`

	// FetchReport is true only when the JUnit report should be fetched
	// and persisted, which happens on the finished path alone.
	FetchReport bool `json:"-"`
}

// Evaluate maps a final job snapshot and the configured risk threshold to a
// verdict. Pure: no I/O, no clock.
//
// A finished job reporting no risk_score evaluates as score 0 and therefore
// passes any threshold; callers that want the case visible should warn when
// a finished job carries a zero score.
func Evaluate(job *appray.ScanJob, threshold int, resultURL string) Verdict {
	switch job.Status {
	case appray.StatusFinished:
		if job.RiskScore > threshold {
			return Verdict{
				Outcome:     OutcomeFail,
				Reason:      ReasonRiskExceeded,
				Message:     fmt.Sprintf("scan finished, application has too high risk score: %d", job.RiskScore),
				ResultURL:   resultURL,
				FetchReport: true,
			}
		}
		return Verdict{
			Outcome:     OutcomePass,
			Reason:      ReasonWithinThreshold,
			Message:     fmt.Sprintf("scan finished, application below configured threshold, risk score: %d", job.RiskScore),
			ResultURL:   resultURL,
			FetchReport: true,
		}
	case appray.StatusFailed:
		return Verdict{
			Outcome: OutcomeFail,
			Reason:  ReasonScanFailed,
			Message: fmt.Sprintf("scan failed: %s", job.FailureReason),
		}
	default:
		return Verdict{
			Outcome:   OutcomeFail,
			Reason:    ReasonWaitTimeout,
			Message:   "scan wait timeout exceeded, try to increase wait-timeout",
			ResultURL: resultURL,
		}
	}
}

// Err converts a failing verdict into its coded error; nil for a pass.
func (v Verdict) Err(job *appray.ScanJob, threshold int) error {
	if v.Outcome == OutcomePass {
		return nil
	}
	switch v.Reason {
	case ReasonRiskExceeded:
		return errors.NewRiskExceededError(job.RiskScore, threshold)
	case ReasonScanFailed:
		return errors.NewScanFailedError(job.FailureReason)
	case ReasonWaitTimeout:
		return errors.NewWaitTimeoutError()
	default:
		return errors.New(errors.ErrCodeScanFailed, v.Message)
	}
}
