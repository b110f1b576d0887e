// Package gaze estimates where the subject is looking from facial landmarks.
//
// Landmarks follow the MediaPipe face mesh layout with refined iris points
// (478 points, normalized image coordinates). For each eye the iris position
// is expressed relative to the eye corners, which makes the estimate
// independent of image resolution and face size.
package gaze

import (
	"errors"
	"math"
)

// Face mesh indices used by the estimator.
const (
	LeftInner  = 33
	LeftOuter  = 133
	LeftIris   = 468
	RightInner = 362
	RightOuter = 263
	RightIris  = 473
)

// MinLandmarks is the smallest landmark set that contains both irises.
const MinLandmarks = RightIris + 1

var (
	// ErrDegenerate is returned when an eye has zero width.
	ErrDegenerate = errors.New("gaze: degenerate eye landmarks")

	// ErrTooFewLandmarks is returned when the iris points are missing.
	ErrTooFewLandmarks = errors.New("gaze: landmark set lacks iris points")
)

// Landmark is a 2-D point in normalized image coordinates.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks is one face's landmark set.
type Landmarks []Landmark

// Point is a normalized gaze offset. X near 0 means the iris sits at the
// inner corner, near 1 at the outer corner. Y is the vertical iris offset
// in eye widths. Values are not clamped.
type Point struct {
	X float64 `json:"gx" yaml:"gx"`
	Y float64 `json:"gy" yaml:"gy"`
}

func dist(a, b Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// eyeRatios returns the horizontal and vertical ratios for one eye.
func eyeRatios(inner, outer, iris Landmark) (h, v float64, err error) {
	width := dist(outer, inner)
	if width == 0 || math.IsNaN(width) {
		return 0, 0, ErrDegenerate
	}
	centerY := (inner.Y + outer.Y) / 2
	return dist(iris, inner) / width, (iris.Y - centerY) / width, nil
}

// Estimate maps a landmark set to a gaze point.
func Estimate(lm Landmarks) (Point, error) {
	if len(lm) < MinLandmarks {
		return Point{}, ErrTooFewLandmarks
	}

	lh, lv, err := eyeRatios(lm[LeftInner], lm[LeftOuter], lm[LeftIris])
	if err != nil {
		return Point{}, err
	}
	rh, rv, err := eyeRatios(lm[RightInner], lm[RightOuter], lm[RightIris])
	if err != nil {
		return Point{}, err
	}

	return Point{X: (lh + rh) / 2, Y: (lv + rv) / 2}, nil
}

// Estimator keeps the last good estimate across frames.
// It is owned by the frame loop and is not safe for concurrent use.
type Estimator struct {
	last Point
}

// Update estimates gaze for a frame. On a bad frame it returns the previous
// estimate and false, and the caller skips gaze checks for that frame.
func (e *Estimator) Update(lm Landmarks) (Point, bool) {
	p, err := Estimate(lm)
	if err != nil {
		return e.last, false
	}
	e.last = p
	return p, true
}

// Last returns the most recent good estimate.
func (e *Estimator) Last() Point {
	return e.last
}
