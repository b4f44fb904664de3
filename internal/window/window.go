// Package window abstracts browser windows that can be opened and later
// retargeted. The rod driver controls real browser pages over CDP; the exec
// driver shells out to the system opener and cannot retarget.
package window

import (
	"context"
	"errors"
)

var (
	// ErrBlocked is returned when the driver refuses to open a window.
	ErrBlocked = errors.New("window open was blocked")
	// ErrDetached is returned when a window cannot be retargeted, either
	// because the user closed it or the driver never held a live handle.
	ErrDetached = errors.New("window is detached")
)

// Window is a browser window the gate can retarget. The page does not
// control the window's lifetime; the user may close it at any point, so
// liveness is checked at use time via IsOpen.
type Window interface {
	// Navigate points the window at url.
	Navigate(ctx context.Context, url string) error
	// IsOpen reports whether the window is still alive.
	IsOpen() bool
	// Close closes the window. Closing an already-closed window is a no-op.
	Close() error
}

// Opener opens new browser windows.
type Opener interface {
	Open(ctx context.Context, url string) (Window, error)
}
