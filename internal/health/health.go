// Package health computes GovernanceHealth: a 0-100 score derived from
// lock contention, approval denials, stale-write rate, and trace-journal
// append latency. It never gates any operation; it's a dashboard view of
// how much friction the governance layer is causing, grounded on
// internal/health/health.go's weighted-subscore Scorer pattern.
package health

import "time"

// Snapshot is the telemetry a Collector accumulates between two health
// checks. Score consumes a Snapshot rather than reaching into the live
// lock/session/trace state directly, mirroring the teacher's
// Scorer.Score(project, meta, issues) shape: the scorer is a pure
// function of already-gathered metadata.
type Snapshot struct {
	Acquires       int
	Contentions    int
	ApprovalChecks int
	ApprovalDenied int
	Writes         int
	StaleWrites    int
	JournalAppends int
	JournalMillis  int64 // sum of append durations, in milliseconds
}

// Score is the computed GovernanceHealth breakdown. Each subscore is
// 0-25; Total is their sum.
type Score struct {
	Total           int
	LockContention  int // 0-25, full points when contention rate is near zero
	ApprovalDenial  int // 0-25, full points when denial rate is near zero
	StaleWriteRate  int // 0-25, full points when stale-write rate is near zero
	JournalLatency  int // 0-25, full points when average append latency is low
}

// Scorer computes a Score from a Snapshot.
type Scorer struct{}

// NewScorer returns a new health Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Compute scores snap. An empty snapshot (no activity yet) scores every
// subscore at full marks: no friction observed yet isn't evidence of
// friction.
func (s *Scorer) Compute(snap Snapshot) Score {
	sc := Score{
		LockContention: scoreRate(snap.Contentions, snap.Acquires, 25),
		ApprovalDenial: scoreRate(snap.ApprovalDenied, snap.ApprovalChecks, 25),
		StaleWriteRate: scoreRate(snap.StaleWrites, snap.Writes, 25),
		JournalLatency: scoreLatency(snap.JournalMillis, snap.JournalAppends, 25),
	}
	sc.Total = sc.LockContention + sc.ApprovalDenial + sc.StaleWriteRate + sc.JournalLatency
	return sc
}

// scoreRate converts a bad/total ratio into points, full marks at 0% and
// tapering to a floor at 100%, matching scoreBranches/scoreIssues'
// bucketed-ratio shape.
func scoreRate(bad, total, maxPoints int) int {
	if total == 0 {
		return maxPoints
	}
	ratio := float64(bad) / float64(total)
	switch {
	case ratio <= 0.01:
		return maxPoints
	case ratio <= 0.05:
		return int(float64(maxPoints) * 0.85)
	case ratio <= 0.15:
		return int(float64(maxPoints) * 0.6)
	case ratio <= 0.30:
		return int(float64(maxPoints) * 0.35)
	default:
		return int(float64(maxPoints) * 0.1)
	}
}

// scoreLatency converts average append latency into points.
func scoreLatency(totalMillis int64, count, maxPoints int) int {
	if count == 0 {
		return maxPoints
	}
	avg := float64(totalMillis) / float64(count)
	switch {
	case avg <= 5:
		return maxPoints
	case avg <= 20:
		return int(float64(maxPoints) * 0.85)
	case avg <= 100:
		return int(float64(maxPoints) * 0.6)
	case avg <= 500:
		return int(float64(maxPoints) * 0.35)
	default:
		return int(float64(maxPoints) * 0.1)
	}
}

// durationMillis is a small helper so callers of Collector don't need to
// import time just to convert a measured duration.
func durationMillis(d time.Duration) int64 {
	return d.Milliseconds()
}
