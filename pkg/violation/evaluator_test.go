package violation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/teslashibe/go-proctor/pkg/calibration"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
	"github.com/teslashibe/go-proctor/pkg/gaze"
)

var env = calibration.Envelope{XMin: 0.3, XMax: 0.7, YMin: 0.2, YMax: 0.8}

func TestCheckFaces(t *testing.T) {
	tests := []struct {
		n      int
		want   string
		wantOK bool
	}{
		{0, DetailsNoFace, true},
		{1, "", false},
		{2, DetailsMultipleFaces, true},
		{5, DetailsMultipleFaces, true},
		{-1, "", false},
	}

	for _, tc := range tests {
		c, ok := CheckFaces(tc.n)
		if ok != tc.wantOK {
			t.Errorf("CheckFaces(%d) ok = %v, want %v", tc.n, ok, tc.wantOK)
			continue
		}
		if ok && (c.Details != tc.want || c.Category != eventlog.CategoryFace) {
			t.Errorf("CheckFaces(%d) = %+v, want Face Detection/%q", tc.n, c, tc.want)
		}
	}
}

func TestCheckGaze(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		name string
		p    gaze.Point
		want string // empty = no candidate
	}{
		{"center", gaze.Point{X: 0.5, Y: 0.5}, ""},
		{"inside buffer left", gaze.Point{X: 0.285, Y: 0.5}, ""},
		{"inside buffer down", gaze.Point{X: 0.5, Y: 0.815}, ""},
		{"left", gaze.Point{X: 0.2, Y: 0.5}, DetailsLookingLeft},
		{"right", gaze.Point{X: 0.95, Y: 0.5}, DetailsLookingRight},
		{"up", gaze.Point{X: 0.5, Y: 0.1}, DetailsLookingUp},
		{"down", gaze.Point{X: 0.5, Y: 0.9}, DetailsLookingDown},
		{"left and up reports left", gaze.Point{X: 0.1, Y: 0.0}, DetailsLookingLeft},
		{"right and down reports right", gaze.Point{X: 0.9, Y: 0.95}, DetailsLookingRight},
		{"up and down impossible, up before down", gaze.Point{X: 0.5, Y: -1}, DetailsLookingUp},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := e.CheckGaze(env, tc.p)
			if tc.want == "" {
				if ok {
					t.Errorf("expected no candidate, got %+v", c)
				}
				return
			}
			if !ok {
				t.Fatalf("expected %q, got none", tc.want)
			}
			if c.Details != tc.want || c.Category != eventlog.CategoryGaze {
				t.Errorf("got %+v, want Gaze Tracking/%q", c, tc.want)
			}
		})
	}
}

func TestCheckWindow(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		title string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"Proctoring Monitor", ""},
		{"Proctoring Monitor - frame 12", ""},
		{"Google Chrome", "Switched to: Google Chrome"},
		{"proctoring monitor", "Switched to: proctoring monitor"},
	}

	for _, tc := range tests {
		c, ok := e.CheckWindow(tc.title)
		if tc.want == "" {
			if ok {
				t.Errorf("CheckWindow(%q) = %+v, want none", tc.title, c)
			}
			continue
		}
		if !ok || c.Details != tc.want || c.Category != eventlog.CategoryEnvironment {
			t.Errorf("CheckWindow(%q) = %+v ok=%v, want %q", tc.title, c, ok, tc.want)
		}
	}
}

func TestEvaluate_CombinesIndependentChecks(t *testing.T) {
	e := NewEvaluator()

	got := e.Evaluate(env, Signals{
		NumFaces:    2,
		Gaze:        gaze.Point{X: 0.95, Y: 0.5},
		GazeValid:   true,
		WindowTitle: "Slack",
	})
	want := []Candidate{
		{eventlog.CategoryFace, DetailsMultipleFaces},
		{eventlog.CategoryGaze, DetailsLookingRight},
		{eventlog.CategoryEnvironment, "Switched to: Slack"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_SafeFrame(t *testing.T) {
	got := NewEvaluator().Evaluate(env, Signals{
		NumFaces:    1,
		Gaze:        gaze.Point{X: 0.5, Y: 0.5},
		GazeValid:   true,
		WindowTitle: "Proctoring Monitor",
	})
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestEvaluate_InvalidGazeSkipsGazeCheck(t *testing.T) {
	got := NewEvaluator().Evaluate(env, Signals{NumFaces: 0})
	want := []Candidate{{eventlog.CategoryFace, DetailsNoFace}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidate_Alert(t *testing.T) {
	tests := []struct {
		c    Candidate
		want string
	}{
		{Candidate{eventlog.CategoryGaze, DetailsLookingUp}, "ALERT: Looking UP"},
		{Candidate{eventlog.CategoryFace, DetailsNoFace}, "FLAG: No Face!"},
		{Candidate{eventlog.CategoryFace, DetailsMultipleFaces}, "FLAG: Multiple Faces!"},
		{Candidate{eventlog.CategoryEnvironment, "Switched to: x"}, "FLAG: TAB SWITCH DETECTED!"},
	}
	for _, tc := range tests {
		if got := tc.c.Alert(); got != tc.want {
			t.Errorf("Alert(%+v) = %q, want %q", tc.c, got, tc.want)
		}
	}
}
