package covid

import (
	"time"
)

// BuildReport summarizes one refresh cycle.
type BuildReport struct {
	CycleID    string               `json:"cycleId"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt"`
	State      CycleState           `json:"state"`
	Countries  int                  `json:"countries"`
	Skipped    []*MalformedRowError `json:"skipped,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func (r *BuildReport) skip(err *MalformedRowError) {
	if r == nil {
		return
	}
	r.Skipped = append(r.Skipped, err)
}

// Duration returns how long the cycle took.
func (r BuildReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the cycle published a snapshot.
func (r BuildReport) Succeeded() bool {
	return r.Error == "" && !r.FinishedAt.IsZero()
}

// reportHistory keeps the most recent reports, oldest first.
type reportHistory struct {
	limit   int
	reports []BuildReport
}

func (h *reportHistory) add(r BuildReport) {
	h.reports = append(h.reports, r)
	if h.limit > 0 && len(h.reports) > h.limit {
		h.reports = h.reports[len(h.reports)-h.limit:]
	}
}

func (h *reportHistory) latest(n int) []BuildReport {
	if n <= 0 || n > len(h.reports) {
		n = len(h.reports)
	}
	out := make([]BuildReport, n)
	copy(out, h.reports[len(h.reports)-n:])
	return out
}

func (r *BuildReport) cycleID() string {
	if r == nil {
		return ""
	}
	return r.CycleID
}
