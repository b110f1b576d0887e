package violation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/throttle"
)

type memLog struct {
	events []Candidate
}

func (m *memLog) Append(c eventlog.Category, d string) {
	m.events = append(m.events, Candidate{c, d})
}

// probeSampler records the probabilities it was asked about.
type probeSampler struct {
	asked []float64
	emit  bool
}

func (p *probeSampler) ShouldEmit(prob float64) bool {
	p.asked = append(p.asked, prob)
	return p.emit
}

func TestReporter_UsesCategoryProbability(t *testing.T) {
	ml := &memLog{}
	ps := &probeSampler{emit: true}
	r := NewReporter(ml, ps, throttle.DefaultPolicy())

	n := r.Report([]Candidate{
		{eventlog.CategoryFace, DetailsNoFace},
		{eventlog.CategoryGaze, DetailsLookingLeft},
		{eventlog.CategoryEnvironment, "Switched to: Mail"},
		{eventlog.CategoryAudio, "Human Speech Detected (Vol: 900)"},
	})

	assert.Equal(t, 4, n)
	assert.Equal(t, []float64{0.05, 0.05, 0.05, 0.10}, ps.asked)
	assert.Len(t, ml.events, 4)
}

func TestReporter_SuppressedCandidatesAreNotLogged(t *testing.T) {
	ml := &memLog{}
	r := NewReporter(ml, throttle.Never{}, throttle.DefaultPolicy())

	n := r.Report([]Candidate{{eventlog.CategoryGaze, DetailsLookingDown}})
	assert.Zero(t, n)
	assert.Empty(t, ml.events)
}

func TestReporter_SystemBypassesSampler(t *testing.T) {
	ml := &memLog{}
	ps := &probeSampler{emit: false}
	r := NewReporter(ml, ps, throttle.DefaultPolicy())

	n := r.Report([]Candidate{{eventlog.CategorySystem, eventlog.DetailsExamStarted}})
	assert.Equal(t, 1, n)
	assert.Empty(t, ps.asked)
	assert.Equal(t, []Candidate{{eventlog.CategorySystem, eventlog.DetailsExamStarted}}, ml.events)
}

func TestReporter_EmptyInputTouchesNothing(t *testing.T) {
	ml := &memLog{}
	ps := &probeSampler{emit: true}
	r := NewReporter(ml, ps, throttle.DefaultPolicy())

	assert.Zero(t, r.Report(nil))
	assert.Empty(t, ps.asked)
	assert.Empty(t, ml.events)
}
