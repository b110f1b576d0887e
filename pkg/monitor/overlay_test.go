package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-proctor/pkg/throttle"
)

func texts(o Overlay) []string {
	out := make([]string, len(o.Lines))
	for i, l := range o.Lines {
		out[i] = l.Text
	}
	return out
}

func TestBuildOverlay_Calibration(t *testing.T) {
	s, _ := newSession(throttle.Always{})

	o := BuildOverlay(s.Process(one(0.5, 0)), 640, 480)
	assert.Equal(t, []string{
		"CALIBRATION: Look at corner & Press Key",
		"[Q] Top-Left: TODO",
		"[W] Top-Right: TODO",
		"[A] Bottom-Left: TODO",
		"[S] Bottom-Right: TODO",
	}, texts(o))

	f := s.Process(one(0.5, 0))
	s.Handle(CmdCaptureTopLeft, f)
	o = BuildOverlay(s.Process(one(0.5, 0)), 640, 480)
	assert.Equal(t, "[Q] Top-Left: DONE", o.Lines[1].Text)
	assert.Equal(t, ColorOK, o.Lines[1].Color)
	assert.Equal(t, ColorAlert, o.Lines[2].Color)

	for _, p := range calibrationPoints {
		s.Handle(p.cmd, s.Process(one(p.gx, p.gy)))
	}
	o = BuildOverlay(s.Process(one(0.5, 0)), 640, 480)
	assert.Equal(t, "Press 'SPACE' to Start Exam", o.Lines[len(o.Lines)-1].Text)
	assert.Empty(t, o.Dots)
}

func TestBuildOverlay_Monitoring(t *testing.T) {
	s, _ := newSession(throttle.Always{})
	calibrate(t, s)

	o := BuildOverlay(s.Process(one(0.5, 0)), 640, 480)
	assert.Equal(t, []string{"SAFE: On Screen", "SAFE: 1 Face"}, texts(o))
	require.Len(t, o.Dots, 2)
	assert.InDelta(t, 224, o.Dots[0].X, 1) // 0.35 * 640
	assert.InDelta(t, 192, o.Dots[0].Y, 1) // 0.40 * 480

	obs := one(0.95, 0)
	obs.NumFaces = 2
	obs.WindowTitle = "Chrome"
	o = BuildOverlay(s.Process(obs), 640, 480)
	assert.Equal(t, []string{
		"ALERT: Looking RIGHT",
		"FLAG: Multiple Faces!",
		"FLAG: TAB SWITCH DETECTED!",
	}, texts(o))
	for _, l := range o.Lines {
		assert.Equal(t, ColorAlert, l.Color)
	}
}

func TestBuildOverlay_NoFace(t *testing.T) {
	s, _ := newSession(throttle.Always{})
	calibrate(t, s)

	o := BuildOverlay(s.Process(Observation{NumFaces: 0}), 640, 480)
	assert.Equal(t, []string{"FLAG: No Face!"}, texts(o))
	assert.Empty(t, o.Dots)
}
