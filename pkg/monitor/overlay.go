package monitor

import (
	"fmt"
	"image/color"

	"github.com/teslashibe/go-proctor/pkg/calibration"
	"github.com/teslashibe/go-proctor/pkg/eventlog"
)

// Overlay colors.
var (
	ColorOK    = color.RGBA{0, 255, 0, 0}
	ColorAlert = color.RGBA{255, 0, 0, 0}
	ColorHint  = color.RGBA{255, 255, 0, 0}
)

// TextLine is one line of overlay text in pixel coordinates.
type TextLine struct {
	Text      string
	X, Y      int
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Dot is a filled marker in pixel coordinates.
type Dot struct {
	X, Y   int
	Radius int
	Color  color.RGBA
}

// Overlay describes what to draw over a frame.
type Overlay struct {
	Lines []TextLine
	Dots  []Dot
}

var cornerRows = [len(calibration.Corners)]int{80, 110, 140, 170}

// BuildOverlay lays out the status text for a processed frame of the given
// pixel size.
func BuildOverlay(f Frame, width, height int) Overlay {
	if f.Snapshot.State != calibration.StateMonitoring {
		return calibrationOverlay(f)
	}

	var o Overlay

	if f.GazeValid {
		line := TextLine{Text: "SAFE: On Screen", X: 30, Y: 40, Scale: 1, Color: ColorOK, Thickness: 3}
		if c, ok := f.Candidate(eventlog.CategoryGaze); ok {
			line.Text, line.Color = c.Alert(), ColorAlert
		}
		o.Lines = append(o.Lines, line)
	}

	if c, ok := f.Candidate(eventlog.CategoryFace); ok {
		o.Lines = append(o.Lines, TextLine{Text: c.Alert(), X: 30, Y: 80, Scale: 1, Color: ColorAlert, Thickness: 2})
	} else if f.NumFaces == 1 {
		o.Lines = append(o.Lines, TextLine{Text: "SAFE: 1 Face", X: 30, Y: 80, Scale: 1, Color: ColorOK, Thickness: 2})
	}

	if c, ok := f.Candidate(eventlog.CategoryEnvironment); ok {
		o.Lines = append(o.Lines, TextLine{Text: c.Alert(), X: 30, Y: 120, Scale: 1, Color: ColorAlert, Thickness: 3})
	}

	if f.HasIris && f.GazeValid {
		for _, p := range f.Iris {
			o.Dots = append(o.Dots, Dot{
				X:      int(p.X * float64(width)),
				Y:      int(p.Y * float64(height)),
				Radius: 2,
				Color:  ColorOK,
			})
		}
	}

	return o
}

func calibrationOverlay(f Frame) Overlay {
	o := Overlay{Lines: []TextLine{{
		Text: "CALIBRATION: Look at corner & Press Key", X: 20, Y: 40,
		Scale: 0.7, Color: ColorHint, Thickness: 2,
	}}}

	ready := true
	for i, corner := range calibration.Corners {
		done := f.Snapshot.Captured[corner]
		ready = ready && done

		status, c := "TODO", ColorAlert
		if done {
			status, c = "DONE", ColorOK
		}
		o.Lines = append(o.Lines, TextLine{
			Text:  fmt.Sprintf("[%s] %s: %s", CornerKey(corner), corner, status),
			X:     20,
			Y:     cornerRows[i],
			Scale: 0.6, Color: c, Thickness: 2,
		})
	}

	if ready {
		o.Lines = append(o.Lines, TextLine{
			Text: "Press 'SPACE' to Start Exam", X: 20, Y: 220,
			Scale: 0.8, Color: ColorHint, Thickness: 2,
		})
	}
	return o
}
