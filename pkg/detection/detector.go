// Package detection counts faces in camera frames.
package detection

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Detection represents a detected face
type Detection struct {
	X, Y       float64 // Top-left position (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in a BGR frame
	Detect(img gocv.Mat) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  `yaml:"model_path" json:"model_path"`                     // Path to ONNX model
	ConfidenceThresh float64 `yaml:"confidence_threshold" json:"confidence_threshold"` // Minimum confidence (default 0.5)
	InputWidth       int     `yaml:"input_width" json:"input_width"`                   // Model input width
	InputHeight      int     `yaml:"input_height" json:"input_height"`                 // Model input height
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("detector model_path is required")
	}
	if c.ConfidenceThresh <= 0 || c.ConfidenceThresh > 1 {
		return fmt.Errorf("detector confidence_threshold must be in (0,1], got %f", c.ConfidenceThresh)
	}
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return fmt.Errorf("detector input size must be positive, got %dx%d", c.InputWidth, c.InputHeight)
	}
	return nil
}

// DetectJPEG decodes a JPEG and runs d on it
func DetectJPEG(d Detector, jpeg []byte) ([]Detection, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	return d.Detect(img)
}

// SelectBest picks the primary face from multiple detections
// Priority: confidence * 0.7 + area * 0.3
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	if len(dets) == 1 {
		return &dets[0]
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, d := range dets {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}

	// Score each detection
	bestScore := -1.0
	var best *Detection

	for i := range dets {
		score := dets[i].Confidence*0.7 + (dets[i].Area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}

	return best
}

// Static returns the same detections for every frame. Used in tests and
// for running the pipeline without a model.
type Static []Detection

// Detect returns a copy of s
func (s Static) Detect(gocv.Mat) ([]Detection, error) {
	return append([]Detection(nil), s...), nil
}

// Close is a no-op
func (Static) Close() error { return nil }
