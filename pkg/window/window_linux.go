//go:build linux

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// x11Provider reads the EWMH _NET_ACTIVE_WINDOW of the root window and the
// focused window's _NET_WM_NAME, falling back to WM_NAME.
type x11Provider struct {
	mu   sync.Mutex
	conn *xgb.Conn
	root xproto.Window

	activeAtom xproto.Atom
	nameAtom   xproto.Atom
	utf8Atom   xproto.Atom
}

func newPlatformProvider(logger *slog.Logger) (Provider, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("%w: DISPLAY not set", ErrUnavailable)
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	p := &x11Provider{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
	}
	for name, dst := range map[string]*xproto.Atom{
		"_NET_ACTIVE_WINDOW": &p.activeAtom,
		"_NET_WM_NAME":       &p.nameAtom,
		"UTF8_STRING":        &p.utf8Atom,
	} {
		a, err := p.atom(name)
		if err != nil {
			conn.Close()
			return nil, errors.Join(ErrUnavailable, err)
		}
		*dst = a
	}

	logger.Info("window provider ready", "backend", "x11")
	return p, nil
}

func (p *x11Provider) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(p.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

// ActiveTitle returns the title of the focused window.
func (p *x11Provider) ActiveTitle() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	active, err := xproto.GetProperty(p.conn, false, p.root, p.activeAtom,
		xproto.AtomWindow, 0, 1).Reply()
	if err != nil {
		return "", fmt.Errorf("read _NET_ACTIVE_WINDOW: %w", err)
	}
	if len(active.Value) < 4 {
		return "", errors.New("window manager does not publish _NET_ACTIVE_WINDOW")
	}
	win := xproto.Window(xgb.Get32(active.Value))
	if win == 0 {
		return "", nil
	}

	name, err := xproto.GetProperty(p.conn, false, win, p.nameAtom,
		p.utf8Atom, 0, 1024).Reply()
	if err == nil && len(name.Value) > 0 {
		return string(name.Value), nil
	}

	legacy, err := xproto.GetProperty(p.conn, false, win, xproto.AtomWmName,
		xproto.GetPropertyTypeAny, 0, 1024).Reply()
	if err != nil {
		return "", fmt.Errorf("read WM_NAME: %w", err)
	}
	return string(legacy.Value), nil
}
