package eventlog

import "errors"

// ErrClosed is returned when operating on a closed sink.
var ErrClosed = errors.New("eventlog: sink closed")
