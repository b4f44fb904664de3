package window

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodOpener opens CDP-controlled browser pages. Pages opened this way hold a
// live handle, so they can be retargeted and liveness-checked later.
type RodOpener struct {
	browser *rod.Browser
}

// RodOptions configures the rod driver.
type RodOptions struct {
	// ControlURL is an existing DevTools websocket endpoint. Empty means
	// launch a browser locally.
	ControlURL string
	// Headless only makes sense in tests; a window nobody can see is not
	// much of an affordance.
	Headless bool
}

// NewRodOpener connects to (or launches) a browser.
func NewRodOpener(opts RodOptions) (*RodOpener, error) {
	controlURL := opts.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(opts.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodOpener{browser: browser}, nil
}

// Open creates a new page at url.
func (o *RodOpener) Open(ctx context.Context, url string) (Window, error) {
	page, err := o.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	return &rodWindow{page: page}, nil
}

// Close disconnects from the browser. Pages opened through this opener die
// with it.
func (o *RodOpener) Close() error {
	return o.browser.Close()
}

type rodWindow struct {
	mu   sync.Mutex
	page *rod.Page
}

func (w *rodWindow) Navigate(ctx context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("%w: %v", ErrDetached, err)
	}
	return nil
}

func (w *rodWindow) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Info fails once the user closes the tab.
	_, err := w.page.Info()
	return err == nil
}

func (w *rodWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.page.Close(); err != nil {
		// Already gone is fine.
		return nil
	}
	return nil
}
