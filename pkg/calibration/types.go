// Package calibration implements the four-corner gaze calibration that
// gates a session between calibrating and monitoring.
package calibration

import "fmt"

// Corner names one of the four calibration targets.
type Corner int

// Calibration corners, in capture-key order.
const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Corners lists all corners.
var Corners = [...]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

// String returns the display name.
func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "Top-Left"
	case TopRight:
		return "Top-Right"
	case BottomLeft:
		return "Bottom-Left"
	case BottomRight:
		return "Bottom-Right"
	default:
		return fmt.Sprintf("Corner(%d)", int(c))
	}
}

// Short returns the abbreviated name (TL, TR, BL, BR).
func (c Corner) Short() string {
	switch c {
	case TopLeft:
		return "TL"
	case TopRight:
		return "TR"
	case BottomLeft:
		return "BL"
	case BottomRight:
		return "BR"
	default:
		return "??"
	}
}

func (c Corner) valid() bool {
	return c >= TopLeft && c <= BottomRight
}

// ParseCorner accepts either form returned by String or Short.
func ParseCorner(s string) (Corner, error) {
	for _, c := range Corners {
		if s == c.String() || s == c.Short() {
			return c, nil
		}
	}
	return 0, fmt.Errorf("calibration: unknown corner %q", s)
}

// State is the session phase.
type State int

const (
	// StateCalibrating collects corner samples.
	StateCalibrating State = iota
	// StateMonitoring runs violation detection. There is no way back.
	StateMonitoring
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCalibrating:
		return "CALIBRATING"
	case StateMonitoring:
		return "MONITORING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Envelope is the rectangle of gaze space considered on-screen.
type Envelope struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// String formats the envelope for logs.
func (e Envelope) String() string {
	return fmt.Sprintf("x=[%.3f, %.3f] y=[%.3f, %.3f]", e.XMin, e.XMax, e.YMin, e.YMax)
}
