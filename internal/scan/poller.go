// Package scan drives one orchestration run: poll the scan job to a
// terminal state, evaluate the verdict, and persist the artifacts.
package scan

import (
	"context"
	"time"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/log"
)

// Poll intervals. Queued jobs back off the widest; processing jobs poll
// tighter as the remaining work shrinks below two units.
const (
	queuedInterval     = 20 * time.Second
	processingInterval = 10 * time.Second
	nearDoneInterval   = 5 * time.Second
)

// JobFetcher is the slice of the remote client the poller needs
type JobFetcher interface {
	GetJobDetails(ctx context.Context, jobID string) (*appray.ScanJob, error)
}

// Poller repeatedly fetches job snapshots until a terminal status or the
// configured deadline, whichever comes first.
type Poller struct {
	Fetcher JobFetcher

	// Timeout bounds the loop's wall-clock time from the first fetch
	Timeout time.Duration

	// OnSnapshot, when set, observes every snapshot as it arrives
	OnSnapshot func(*appray.ScanJob)

	Logger *log.Logger

	// sleep and now are injectable for tests; nil means real time
	sleep func(time.Duration)
	now   func() time.Time
}

func (p *Poller) sleepFn() func(time.Duration) {
	if p.sleep != nil {
		return p.sleep
	}
	return time.Sleep
}

func (p *Poller) nowFn() func() time.Time {
	if p.now != nil {
		return p.now
	}
	return time.Now
}

func (p *Poller) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.DefaultLogger()
}

// Wait polls the job until it reaches a terminal status and returns that
// first terminal snapshot. When the deadline passes first, the last fetched
// snapshot is returned as-is, still non-terminal; callers distinguish the
// timeout outcome by checking Status.IsTerminal(). The deadline is checked
// before each iteration, so total overshoot is bounded by one sleep
// interval. Any fetch error aborts immediately; polling never retries a
// failed request.
func (p *Poller) Wait(ctx context.Context, jobID string) (*appray.ScanJob, error) {
	sleep := p.sleepFn()
	now := p.nowFn()
	logger := p.logger()

	deadline := now().Add(p.Timeout)

	job, err := p.Fetcher.GetJobDetails(ctx, jobID)
	if err != nil {
		return nil, err
	}
	p.observe(job)

	for now().Before(deadline) {
		var interval time.Duration

		switch job.Status {
		case appray.StatusQueued:
			logger.Info("application is queued for scanning", "job_id", jobID)
			interval = queuedInterval
		case appray.StatusProcessing:
			logger.Info("application is being scanned",
				"job_id", jobID,
				"progress_finished", job.ProgressFinished,
				"progress_total", job.ProgressTotal)
			if (job.ProgressTotal - job.ProgressFinished) > 1 {
				interval = processingInterval
			} else {
				interval = nearDoneInterval
			}
		default:
			return job, nil
		}

		sleep(interval)

		job, err = p.Fetcher.GetJobDetails(ctx, jobID)
		if err != nil {
			return nil, err
		}
		p.observe(job)
	}

	return job, nil
}

func (p *Poller) observe(job *appray.ScanJob) {
	if p.OnSnapshot != nil {
		p.OnSnapshot(job)
	}
}
