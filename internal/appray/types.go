package appray

// JobStatus is the lifecycle state of a scan job on the App-Ray service
type JobStatus string

const (
	// StatusQueued means the application is waiting for a scanner slot
	StatusQueued JobStatus = "queued"
	// StatusProcessing means the application is being analyzed
	StatusProcessing JobStatus = "processing"
	// StatusFinished means analysis completed and a risk score is available
	StatusFinished JobStatus = "finished"
	// StatusFailed means the service could not analyze the application
	StatusFailed JobStatus = "failed"
)

// IsTerminal reports whether no further status transitions will occur
func (s JobStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// ScanJob is a client-side snapshot of a server-side scan job.
// Snapshots are only ever replaced wholesale by GetJobDetails; nothing
// mutates individual fields after decoding.
type ScanJob struct {
	ID               string    `json:"id,omitempty"`
	Status           JobStatus `json:"status"`
	ProgressTotal    int       `json:"progress_total,omitempty"`
	ProgressFinished int       `json:"progress_finished,omitempty"`
	RiskScore        int       `json:"risk_score,omitempty"`
	Package          string    `json:"package"`
	Label            string    `json:"label"`
	Version          string    `json:"version"`
	Platform         string    `json:"platform"`
	AppHash          string    `json:"app_hash"`
	FailureReason    string    `json:"failure_reason,omitempty"`
}

// Role is the access level of a service account
type Role string

const (
	// RoleFull grants scan submission and full result access
	RoleFull Role = "full-access"
	// RoleReadOnly grants result access without submission
	RoleReadOnly Role = "read-only"
	// RoleObserver grants dashboard visibility only
	RoleObserver Role = "observer"
	// RoleUnknown is any role string this client does not recognize
	RoleUnknown Role = "unknown"
)

// ParseRole maps a service role string to a Role, defaulting to RoleUnknown
func ParseRole(s string) Role {
	switch s {
	case "full-access":
		return RoleFull
	case "read-only":
		return RoleReadOnly
	case "observer":
		return RoleObserver
	default:
		return RoleUnknown
	}
}

// User is the account the session authenticated as
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"-"`

	// RawRole keeps the service's role string for display when the role
	// did not parse to a known value.
	RawRole string `json:"role"`
}
