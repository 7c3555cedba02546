package operations

import (
	"fmt"
	"sync"
	"time"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
)

// ProgressSnapshot is a point-in-time copy of a ProgressTracker
type ProgressSnapshot struct {
	Total   int
	Done    int
	Failed  int
	Rows    int
	Elapsed time.Duration
}

// Percentage returns how many files are done, 0..100
func (s ProgressSnapshot) Percentage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Done) / float64(s.Total) * 100
}

// ProgressTracker counts finished files of a batch
type ProgressTracker struct {
	mu        sync.Mutex
	total     int
	done      int
	failed    int
	rows      int
	startTime time.Time
	now       func() time.Time
}

// NewProgressTracker creates a tracker for a batch of total files
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Reset starts counting a new batch
func (p *ProgressTracker) Reset(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done, p.failed, p.rows = 0, 0, 0
	p.startTime = p.now()
}

// FileDone records one finished file. It matches Coordinator.OnFileDone.
func (p *ProgressTracker) FileDone(res FileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.rows += res.Rows
	if res.Outcome == infrastructure.OutcomeFailed {
		p.failed++
	}
}

// Snapshot returns the current counters
func (p *ProgressTracker) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressSnapshot{
		Total:   p.total,
		Done:    p.done,
		Failed:  p.failed,
		Rows:    p.rows,
		Elapsed: p.now().Sub(p.startTime),
	}
}

// ETA estimates the time left from the average pace so far
func (p *ProgressTracker) ETA() string {
	s := p.Snapshot()
	if s.Done == 0 || s.Total == 0 {
		return "calculating..."
	}

	remaining := time.Duration(float64(s.Elapsed) / float64(s.Done) * float64(s.Total-s.Done))
	switch {
	case remaining < time.Minute:
		return fmt.Sprintf("%.0f seconds", remaining.Seconds())
	case remaining < time.Hour:
		return fmt.Sprintf("%.1f minutes", remaining.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", remaining.Hours())
	}
}

// IsComplete returns true once every file is done
func (p *ProgressTracker) IsComplete() bool {
	s := p.Snapshot()
	return s.Done >= s.Total
}
