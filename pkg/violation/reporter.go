package violation

import (
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/throttle"
)

// EventLogger is the append side of the event log.
type EventLogger interface {
	Append(category eventlog.Category, details string)
}

// Reporter throttles candidates by category and appends the survivors.
type Reporter struct {
	Sampler throttle.Sampler
	Policy  throttle.Policy
	Log     EventLogger
}

// NewReporter creates a reporter.
func NewReporter(log EventLogger, sampler throttle.Sampler, policy throttle.Policy) *Reporter {
	return &Reporter{Sampler: sampler, Policy: policy, Log: log}
}

// Report samples each candidate and returns how many were appended.
// System candidates bypass the sampler.
func (r *Reporter) Report(cands []Candidate) int {
	n := 0
	for _, c := range cands {
		if c.Category != eventlog.CategorySystem && !r.Sampler.ShouldEmit(r.Policy.For(c.Category)) {
			continue
		}
		r.Log.Append(c.Category, c.Details)
		n++
	}
	return n
}
