//go:build windows

package window

import (
	"errors"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"
)

type win32Provider struct {
	getForegroundWindow *windows.LazyProc
	getWindowTextW      *windows.LazyProc
}

func newPlatformProvider(logger *slog.Logger) (Provider, error) {
	user32 := windows.NewLazySystemDLL("user32.dll")
	p := &win32Provider{
		getForegroundWindow: user32.NewProc("GetForegroundWindow"),
		getWindowTextW:      user32.NewProc("GetWindowTextW"),
	}
	if err := p.getForegroundWindow.Find(); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	logger.Info("window provider ready", "backend", "win32")
	return p, nil
}

// ActiveTitle returns the title of the foreground window.
func (p *win32Provider) ActiveTitle() (string, error) {
	hwnd, _, _ := p.getForegroundWindow.Call()
	if hwnd == 0 {
		return "", errors.New("no foreground window")
	}

	const maxChars = 512
	buf := make([]uint16, maxChars)
	r, _, _ := p.getWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", nil
	}
	return windows.UTF16ToString(buf[:r]), nil
}
