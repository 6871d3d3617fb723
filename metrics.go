package extsort

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics
// about a sort job. Implement this to integrate with a monitoring system.
type MetricsCollector interface {
	// RecordRunProduced is called once per sorted run emitted by a Run
	// Producer, with the number of records it holds. Sort does not time
	// individual runs and always passes a zero duration.
	RecordRunProduced(records int64, duration time.Duration)

	// RecordMergeRound is called once per completed merge round, with the
	// number of groups the round's runs were partitioned into (a single-run
	// group is carried over unmerged but still counted) and the round's
	// wall-clock duration.
	RecordMergeRound(groups int, duration time.Duration)

	// RecordJob is called once the job finishes, successfully or not.
	RecordJob(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRunProduced(int64, time.Duration) {}
func (NoopMetricsCollector) RecordMergeRound(int, time.Duration)    {}
func (NoopMetricsCollector) RecordJob(time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	RunsProduced     atomic.Int64
	RunRecordsTotal  atomic.Int64
	RunNanosTotal    atomic.Int64
	MergeRounds      atomic.Int64
	MergeGroupsTotal atomic.Int64
	MergeNanosTotal  atomic.Int64
	JobCount         atomic.Int64
	JobErrors        atomic.Int64
	JobNanosTotal    atomic.Int64
}

func (b *BasicMetricsCollector) RecordRunProduced(records int64, duration time.Duration) {
	b.RunsProduced.Add(1)
	b.RunRecordsTotal.Add(records)
	b.RunNanosTotal.Add(duration.Nanoseconds())
}

func (b *BasicMetricsCollector) RecordMergeRound(groups int, duration time.Duration) {
	b.MergeRounds.Add(1)
	b.MergeGroupsTotal.Add(int64(groups))
	b.MergeNanosTotal.Add(duration.Nanoseconds())
}

func (b *BasicMetricsCollector) RecordJob(duration time.Duration, err error) {
	b.JobCount.Add(1)
	b.JobNanosTotal.Add(duration.Nanoseconds())
	if err != nil {
		b.JobErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunsProduced    int64
	RunRecordsTotal int64
	MergeRounds     int64
	MergeGroups     int64
	JobCount        int64
	JobErrors       int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RunsProduced:    b.RunsProduced.Load(),
		RunRecordsTotal: b.RunRecordsTotal.Load(),
		MergeRounds:     b.MergeRounds.Load(),
		MergeGroups:     b.MergeGroupsTotal.Load(),
		JobCount:        b.JobCount.Load(),
		JobErrors:       b.JobErrors.Load(),
	}
}
