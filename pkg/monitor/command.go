package monitor

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-proctor/pkg/calibration"
)

// Command is a control-surface action.
type Command int

const (
	CmdNone Command = iota
	CmdCaptureTopLeft
	CmdCaptureTopRight
	CmdCaptureBottomLeft
	CmdCaptureBottomRight
	CmdStart
	CmdQuit
)

// Key codes delivered by the HighGUI window.
const (
	KeySpace = 32
	KeyEsc   = 27
)

var commandNames = map[Command]string{
	CmdNone:               "none",
	CmdCaptureTopLeft:     "capture-top-left",
	CmdCaptureTopRight:    "capture-top-right",
	CmdCaptureBottomLeft:  "capture-bottom-left",
	CmdCaptureBottomRight: "capture-bottom-right",
	CmdStart:              "start",
	CmdQuit:               "quit",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Corner returns the calibration corner a capture command targets.
func (c Command) Corner() (calibration.Corner, bool) {
	switch c {
	case CmdCaptureTopLeft:
		return calibration.TopLeft, true
	case CmdCaptureTopRight:
		return calibration.TopRight, true
	case CmdCaptureBottomLeft:
		return calibration.BottomLeft, true
	case CmdCaptureBottomRight:
		return calibration.BottomRight, true
	default:
		return 0, false
	}
}

// CornerKey is the key bound to each corner capture.
func CornerKey(c calibration.Corner) string {
	switch c {
	case calibration.TopLeft:
		return "Q"
	case calibration.TopRight:
		return "W"
	case calibration.BottomLeft:
		return "A"
	case calibration.BottomRight:
		return "S"
	default:
		return "?"
	}
}

// KeyCommand maps a WaitKey result to a command. Unbound keys and -1 (no
// key pressed) map to CmdNone.
func KeyCommand(key int) Command {
	if key < 0 {
		return CmdNone
	}
	switch key & 0xFF {
	case 'q':
		return CmdCaptureTopLeft
	case 'w':
		return CmdCaptureTopRight
	case 'a':
		return CmdCaptureBottomLeft
	case 's':
		return CmdCaptureBottomRight
	case KeySpace:
		return CmdStart
	case KeyEsc:
		return CmdQuit
	default:
		return CmdNone
	}
}

// ParseCommand reads a command typed on a terminal, for sessions without
// a preview window.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "tl", "top-left":
		return CmdCaptureTopLeft, nil
	case "w", "tr", "top-right":
		return CmdCaptureTopRight, nil
	case "a", "bl", "bottom-left":
		return CmdCaptureBottomLeft, nil
	case "s", "br", "bottom-right":
		return CmdCaptureBottomRight, nil
	case "start", "space":
		return CmdStart, nil
	case "quit", "exit", "esc":
		return CmdQuit, nil
	case "":
		return CmdNone, nil
	default:
		return CmdNone, fmt.Errorf("unknown command %q", s)
	}
}
