// Package report persists the outcome of a scan run into the build
// workspace: the JUnit XML artifact and a JSON result record that CI steps
// downstream can read.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/errors"
)

// ResultRecord is the persisted run summary: the link to the scan details
// page plus the final job snapshot, for display and for downstream steps.
type ResultRecord struct {
	RunID       string          `json:"run_id"`
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason"`
	ResultURL   string          `json:"result_url,omitempty"`
	Fingerprint string          `json:"app_fingerprint,omitempty"`
	Job         *appray.ScanJob `json:"job,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WriteJUnit writes the JUnit XML report fetched from the service
func WriteJUnit(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("write junit report %s", path), err)
	}
	return nil
}

// WriteResultRecord writes the result record as indented JSON
func WriteResultRecord(path string, record *ResultRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "marshal result record", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("write result record %s", path), err)
	}
	return nil
}
