// Package progress renders poll-loop progress on the build console. In CI
// it prints one plain line per status change; on a terminal it keeps a
// single spinner line updated in place.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Reporter displays the state of a running scan job
type Reporter struct {
	writer      io.Writer
	mu          sync.Mutex
	showSpinner bool
	spinnerIdx  int
	stopChan    chan struct{}
	stopOnce    sync.Once
	isCI        bool
	line        string
	lastPrinted string
}

// Config holds configuration for the reporter
type Config struct {
	Writer      io.Writer
	ShowSpinner bool
	IsCI        bool // Set to true in CI/CD environments to disable fancy output
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewReporter creates a new progress reporter
func NewReporter(cfg Config) *Reporter {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	// Auto-detect CI environment
	if !cfg.IsCI {
		cfg.IsCI = os.Getenv("CI") == "true" ||
			os.Getenv("GITHUB_ACTIONS") == "true" ||
			os.Getenv("JENKINS_URL") != ""
	}

	return &Reporter{
		writer:      cfg.Writer,
		showSpinner: cfg.ShowSpinner && !cfg.IsCI,
		stopChan:    make(chan struct{}),
		isCI:        cfg.IsCI,
	}
}

// Start begins the spinner display when running on a terminal
func (r *Reporter) Start() {
	if r.showSpinner {
		go r.spinnerLoop()
	}
}

// Update records the latest job state and prints it.
// Progress values are printed raw; the service occasionally reports
// finished > total and that is cosmetic, not an error.
func (r *Reporter) Update(status string, finished, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch status {
	case "queued":
		r.line = "Application is queued for scanning"
	case "processing":
		r.line = fmt.Sprintf("Application is being scanned: %d / %d", finished, total)
	default:
		r.line = fmt.Sprintf("Scan %s", status)
	}

	if r.isCI || !r.showSpinner {
		// One plain line per change keeps CI logs readable.
		if r.line != r.lastPrinted {
			fmt.Fprintln(r.writer, r.line)
			r.lastPrinted = r.line
		}
		return
	}
}

// Stop stops the spinner and clears its line
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		if r.showSpinner {
			close(r.stopChan)
			fmt.Fprintf(r.writer, "\r%s\r", strings.Repeat(" ", 80))
		}
	})
}

// spinnerLoop runs the spinner animation
func (r *Reporter) spinnerLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.mu.Lock()
			frame := spinnerFrames[r.spinnerIdx%len(spinnerFrames)]
			r.spinnerIdx++
			line := r.line
			if line == "" {
				line = "Waiting for scan status"
			}
			fmt.Fprintf(r.writer, "\r%s %s", frame, line)
			r.mu.Unlock()
		}
	}
}
