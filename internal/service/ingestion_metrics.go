package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/valuebet/internal/metrics"
)

// IngestionReport tracks the outcome of one feed sync
type IngestionReport struct {
	mu        sync.Mutex
	Feed      string
	StartTime time.Time
	Duration  time.Duration
	Received  int
	Stored    int
	Unchanged int
	Rejected  int
	Errors    int
}

// NewIngestionReport creates a report for one feed
func NewIngestionReport(feed string) *IngestionReport {
	return &IngestionReport{
		Feed:      feed,
		StartTime: time.Now(),
	}
}

// RecordReceived adds records fetched from the provider
func (r *IngestionReport) RecordReceived(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Received += n
}

// RecordStored adds records written to storage
func (r *IngestionReport) RecordStored(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stored += n
}

// RecordUnchanged increments records identical to what is stored
func (r *IngestionReport) RecordUnchanged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Unchanged++
}

// RecordRejected increments records failing validation
func (r *IngestionReport) RecordRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rejected++
}

// RecordError increments fetch or storage failures
func (r *IngestionReport) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors++
}

// Finish stamps the duration and publishes the counts to Prometheus
func (r *IngestionReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(r.StartTime)
	metrics.RecordIngested(r.Feed, "stored", r.Stored)
	metrics.RecordIngested(r.Feed, "unchanged", r.Unchanged)
	metrics.RecordIngested(r.Feed, "rejected", r.Rejected)
}

// String returns a formatted summary of the report
func (r *IngestionReport) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%s: received=%d stored=%d unchanged=%d rejected=%d errors=%d duration=%s",
		r.Feed, r.Received, r.Stored, r.Unchanged, r.Rejected, r.Errors, r.Duration.Round(time.Millisecond))
}
