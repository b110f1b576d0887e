//go:build !cgo

package audioio

import (
	"errors"
	"log/slog"
)

const portAudioAvailable = false

func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, errors.New("portaudio backend requires cgo")
}
