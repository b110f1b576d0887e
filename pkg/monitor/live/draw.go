package live

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/monitor"
)

// Draw renders the frame's overlay and face boxes onto img. The face the
// gaze is read from is boxed in the OK color, any others in the alert color.
func Draw(img *gocv.Mat, f monitor.Frame, dets []detection.Detection) {
	w, h := img.Cols(), img.Rows()

	best := detection.SelectBest(dets)
	for i := range dets {
		d := dets[i]
		c := monitor.ColorAlert
		if best != nil && d == *best {
			c = monitor.ColorOK
		}
		gocv.Rectangle(img, image.Rect(
			int(d.X*float64(w)), int(d.Y*float64(h)),
			int((d.X+d.W)*float64(w)), int((d.Y+d.H)*float64(h)),
		), c, 1)
	}

	o := monitor.BuildOverlay(f, w, h)
	for _, l := range o.Lines {
		gocv.PutText(img, l.Text, image.Pt(l.X, l.Y), gocv.FontHersheySimplex, l.Scale, l.Color, l.Thickness)
	}
	for _, d := range o.Dots {
		gocv.Circle(img, image.Pt(d.X, d.Y), d.Radius, d.Color, -1)
	}
}
