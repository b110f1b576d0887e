//go:build !windows && !linux

package window

import "log/slog"

func newPlatformProvider(logger *slog.Logger) (Provider, error) {
	return nil, ErrUnavailable
}
