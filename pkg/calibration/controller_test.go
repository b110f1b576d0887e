package calibration

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/gaze"
)

type recordedEvent struct {
	Category eventlog.Category
	Details  string
}

type fakeLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeLog) Append(c eventlog.Category, d string) {
	f.mu.Lock()
	f.events = append(f.events, recordedEvent{c, d})
	f.mu.Unlock()
}

func newController(t *testing.T) (*Controller, *fakeLog) {
	t.Helper()
	fl := &fakeLog{}
	return New(fl, log.Discard()), fl
}

func captureAll(c *Controller, pts map[Corner]gaze.Point) {
	for corner, p := range pts {
		c.Capture(corner, p)
	}
}

var scenario = map[Corner]gaze.Point{
	TopLeft:     {X: 0.3, Y: 0.2},
	TopRight:    {X: 0.7, Y: 0.2},
	BottomLeft:  {X: 0.3, Y: 0.8},
	BottomRight: {X: 0.7, Y: 0.8},
}

func TestStart_DerivesEnvelope(t *testing.T) {
	c, fl := newController(t)
	captureAll(c, scenario)

	require.True(t, c.Start())
	assert.Equal(t, StateMonitoring, c.State())

	env, ok := c.Envelope()
	require.True(t, ok)
	want := Envelope{XMin: 0.3, XMax: 0.7, YMin: 0.2, YMax: 0.8}
	if diff := cmp.Diff(want, env); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, fl.events, 1)
	assert.Equal(t, recordedEvent{eventlog.CategorySystem, eventlog.DetailsExamStarted}, fl.events[0])
}

func TestStart_EnvelopeIsBoundingBox(t *testing.T) {
	pts := map[Corner]gaze.Point{
		TopLeft:     {X: 0.41, Y: -0.12},
		TopRight:    {X: 0.55, Y: -0.09},
		BottomLeft:  {X: 0.38, Y: 0.07},
		BottomRight: {X: 0.61, Y: 0.05},
	}
	c, _ := newController(t)
	captureAll(c, pts)
	require.True(t, c.Start())

	env, _ := c.Envelope()
	assert.Equal(t, 0.38, env.XMin)
	assert.Equal(t, 0.61, env.XMax)
	assert.Equal(t, -0.12, env.YMin)
	assert.Equal(t, 0.07, env.YMax)
}

func TestStart_NoOpUntilAllCornersCaptured(t *testing.T) {
	c, fl := newController(t)

	for _, corner := range Corners[:3] {
		c.Capture(corner, scenario[corner])
		assert.False(t, c.Ready())
		assert.False(t, c.Start(), "start with %v missing must be a no-op", Corners[3])
		assert.Equal(t, StateCalibrating, c.State())
		_, ok := c.Envelope()
		assert.False(t, ok, "envelope must be undefined while calibrating")
	}
	assert.Empty(t, fl.events)

	c.Capture(BottomRight, scenario[BottomRight])
	assert.True(t, c.Ready())
	assert.True(t, c.Start())
}

func TestCapture_OverwritesSameCorner(t *testing.T) {
	c, _ := newController(t)

	require.True(t, c.Capture(TopLeft, gaze.Point{X: 0.1, Y: 0.1}))
	require.True(t, c.Capture(TopLeft, gaze.Point{X: 0.2, Y: 0.3}))

	p, ok := c.Captured(TopLeft)
	require.True(t, ok)
	assert.Equal(t, gaze.Point{X: 0.2, Y: 0.3}, p)

	_, ok = c.Captured(TopRight)
	assert.False(t, ok)
}

func TestMonitoring_IsOneWayGate(t *testing.T) {
	c, fl := newController(t)
	captureAll(c, scenario)
	require.True(t, c.Start())
	before, _ := c.Envelope()

	assert.False(t, c.Capture(TopLeft, gaze.Point{X: 0.0, Y: 0.0}))
	assert.False(t, c.Start())
	assert.False(t, c.Start())

	after, ok := c.Envelope()
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, StateMonitoring, c.State())

	p, _ := c.Captured(TopLeft)
	assert.Equal(t, scenario[TopLeft], p, "samples are frozen after start")
	assert.Len(t, fl.events, 1, "system event is emitted exactly once")
}

func TestStart_ConcurrentCallsTransitionOnce(t *testing.T) {
	c, fl := newController(t)
	captureAll(c, scenario)

	var wg sync.WaitGroup
	results := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Start()
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, fl.events, 1)
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil, nil)
	captureAll(c, scenario)
	assert.True(t, c.Start())
}

func TestSnapshot(t *testing.T) {
	c, _ := newController(t)
	c.Capture(TopRight, scenario[TopRight])

	s := c.Snapshot()
	assert.Equal(t, StateCalibrating, s.State)
	assert.Equal(t, [4]bool{false, true, false, false}, s.Captured)
}

func TestCorner_Names(t *testing.T) {
	tests := []struct {
		c     Corner
		long  string
		short string
	}{
		{TopLeft, "Top-Left", "TL"},
		{TopRight, "Top-Right", "TR"},
		{BottomLeft, "Bottom-Left", "BL"},
		{BottomRight, "Bottom-Right", "BR"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.long, tc.c.String())
		assert.Equal(t, tc.short, tc.c.Short())

		got, err := ParseCorner(tc.short)
		require.NoError(t, err)
		assert.Equal(t, tc.c, got)
	}

	_, err := ParseCorner("middle")
	assert.Error(t, err)
	assert.False(t, New(nil, nil).Capture(Corner(9), gaze.Point{}))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "CALIBRATING", StateCalibrating.String())
	assert.Equal(t, "MONITORING", StateMonitoring.String())
}
