package health

import (
	"fmt"
	"time"

	"github.com/stoopview/stoopview/pkg/snapshot"
)

// Source statuses, worst first when rolling up.
const (
	StatusHealthy = "healthy"
	StatusStale   = "stale"
	StatusError   = "error"

	OverallHealthy  = "healthy"
	OverallDegraded = "degraded"
	OverallDown     = "down"
)

type SourceHealth struct {
	LastUpdate string `json:"last_update"`
	Status     string `json:"status"`
	FetchCount int64  `json:"fetch_count"`
	ErrorCount int64  `json:"error_count"`
}

type Status struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Sources       map[string]SourceHealth `json:"sources"`
}

// Checker rolls the snapshot cache bookkeeping up into a health report.
type Checker struct {
	Cache *snapshot.Cache

	WarningAfter  time.Duration
	CriticalAfter time.Duration

	startedAt time.Time
}

func NewChecker(cache *snapshot.Cache, warningAfter, criticalAfter time.Duration) *Checker {
	return &Checker{
		Cache: cache,

		WarningAfter:  warningAfter,
		CriticalAfter: criticalAfter,

		startedAt: time.Now(),
	}
}

// Report builds the health view for the given sources. A source that has
// never fetched successfully reads as an error, not as merely stale.
func (checker *Checker) Report(sources []string, now time.Time) Status {
	report := Status{
		Status:        OverallHealthy,
		UptimeSeconds: int64(now.Sub(checker.startedAt).Seconds()),
		Sources:       map[string]SourceHealth{},
	}

	for _, source := range sources {
		entry, _ := checker.Cache.Info(source)
		sourceHealth := checker.sourceHealth(entry, now)
		report.Sources[source] = sourceHealth

		switch sourceHealth.Status {
		case StatusError:
			report.Status = OverallDown
		case StatusStale:
			if report.Status != OverallDown {
				report.Status = OverallDegraded
			}
		}
	}

	return report
}

func (checker *Checker) sourceHealth(entry snapshot.Entry, now time.Time) SourceHealth {
	return SourceHealth{
		LastUpdate: formatAge(entry.LastUpdated, now),
		Status:     checker.sourceStatus(entry, now),
		FetchCount: entry.FetchCount,
		ErrorCount: entry.ErrorCount,
	}
}

func (checker *Checker) sourceStatus(entry snapshot.Entry, now time.Time) string {
	if entry.LastUpdated.IsZero() {
		return StatusError
	}
	if !entry.LastErrorAt.IsZero() && !entry.LastErrorAt.Before(entry.LastUpdated) {
		return StatusError
	}

	age := now.Sub(entry.LastUpdated)
	switch {
	case age >= checker.CriticalAfter:
		return StatusError
	case age >= checker.WarningAfter:
		return StatusStale
	}

	return StatusHealthy
}

func formatAge(lastUpdated time.Time, now time.Time) string {
	if lastUpdated.IsZero() {
		return "never"
	}

	age := now.Sub(lastUpdated)
	if age < 0 {
		age = 0
	}
	return fmt.Sprintf("%ds ago", int(age.Seconds()))
}
