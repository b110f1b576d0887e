package landmarks

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/pkg/gaze"
)

// Mock implements Extractor for testing.
type Mock struct {
	// ExtractFunc is called when Extract is invoked. Nil returns no faces.
	ExtractFunc func(ctx context.Context, img gocv.Mat) ([]gaze.Landmarks, error)

	mu    sync.Mutex
	calls int
}

// NewStaticMock returns a mock that reports the same faces on every frame.
func NewStaticMock(faces ...gaze.Landmarks) *Mock {
	return &Mock{
		ExtractFunc: func(context.Context, gocv.Mat) ([]gaze.Landmarks, error) {
			return faces, nil
		},
	}
}

// Extract implements Extractor.
func (m *Mock) Extract(ctx context.Context, img gocv.Mat) ([]gaze.Landmarks, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ExtractFunc == nil {
		return nil, nil
	}
	return m.ExtractFunc(ctx, img)
}

// Calls returns how many times Extract was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Extractor = (*Mock)(nil)
