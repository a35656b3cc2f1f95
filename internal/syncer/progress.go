package syncer

import (
	"sync"
	"time"
)

// SyncStatus represents the overall synchronizer state.
type SyncStatus string

const (
	// StatusIdle indicates no sync pass has run yet.
	StatusIdle SyncStatus = "idle"
	// StatusSyncing indicates a sync pass is in progress.
	StatusSyncing SyncStatus = "syncing"
	// StatusReady indicates the last sync pass completed.
	StatusReady SyncStatus = "ready"
	// StatusError indicates the last sync pass failed outright.
	StatusError SyncStatus = "error"
)

// ProgressSnapshot is an immutable snapshot of sync progress.
type ProgressSnapshot struct {
	Status         string  `json:"status"`
	DocsTotal      int     `json:"docs_total"`
	DocsProcessed  int     `json:"docs_processed"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	LastAdded      int     `json:"last_added"`
	LastUpdated    int     `json:"last_updated"`
	LastRemoved    int     `json:"last_removed"`
	LastSkipped    int     `json:"last_skipped"`
	LastFailed     int     `json:"last_failed"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Progress provides thread-safe tracking of sync progress.
type Progress struct {
	mu sync.RWMutex

	status        SyncStatus
	docsTotal     int
	docsProcessed int
	startTime     time.Time
	lastReport    Report
	errorMessage  string
}

// NewProgress creates an idle progress tracker.
func NewProgress() *Progress {
	return &Progress{status: StatusIdle}
}

// Begin resets the tracker for a new sync pass.
func (p *Progress) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusSyncing
	p.docsTotal = 0
	p.docsProcessed = 0
	p.startTime = time.Now()
	p.errorMessage = ""
}

// SetTotal sets the number of documents the pass will process.
func (p *Progress) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.docsTotal = total
}

// Advance records one processed document.
func (p *Progress) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.docsProcessed++
}

// Finish marks the pass complete and stores its report counters.
func (p *Progress) Finish(report *Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
	p.lastReport = *report
}

// Fail marks the pass as failed with an error message.
func (p *Progress) Fail(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errorMessage = message
}

// IsSyncing returns true while a pass is in progress.
func (p *Progress) IsSyncing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusSyncing
}

// Snapshot returns an immutable copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var progressPct float64
	if p.docsTotal > 0 {
		progressPct = float64(p.docsProcessed) / float64(p.docsTotal) * 100.0
	}

	var elapsed int
	if !p.startTime.IsZero() {
		elapsed = int(time.Since(p.startTime).Seconds())
	}

	return ProgressSnapshot{
		Status:         string(p.status),
		DocsTotal:      p.docsTotal,
		DocsProcessed:  p.docsProcessed,
		ProgressPct:    progressPct,
		ElapsedSeconds: elapsed,
		LastAdded:      p.lastReport.Added,
		LastUpdated:    p.lastReport.Updated,
		LastRemoved:    p.lastReport.Removed,
		LastSkipped:    p.lastReport.Skipped,
		LastFailed:     len(p.lastReport.Failed),
		ErrorMessage:   p.errorMessage,
	}
}
