// Package intercept installs a transparent inspection layer in front of a
// transport's message delivery. Every inbound frame is checked for an
// open-command; matches are forwarded to the navigation gate, and the
// original frame is always delivered to the application handler afterwards.
package intercept

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/popgate/popgate/internal/infrastructure/logging"
	"github.com/popgate/popgate/internal/shared/wire"
	"github.com/popgate/popgate/internal/transport"
)

// Navigator receives the destination of recognized open-commands. Failures
// are non-fatal; the request is dropped.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Context holds page-scoped installation state. The marker guarantees
// exactly one active wrapping layer no matter how many times setup code
// runs. Tests construct a fresh Context per case.
type Context struct {
	mu        sync.Mutex
	installed bool
}

// NewContext creates an uninstalled context.
func NewContext() *Context {
	return &Context{}
}

// Installed reports whether an interceptor has claimed this context.
func (c *Context) Installed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

func (c *Context) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		return false
	}
	c.installed = true
	return true
}

// Interceptor decorates a transport.Delivery. The application registers its
// handlers against the Interceptor exactly as it would against the bare
// transport; once installed, handlers registered through either delivery
// path are wrapped with inspection. Reading the callback slot returns the
// application's handler, never the internal wrapper.
type Interceptor struct {
	inner  transport.Delivery
	nav    Navigator
	pctx   *Context
	logger *logging.Logger

	mu      sync.Mutex
	active  bool
	slot    transport.Handler
	slotSet bool
}

// New creates an interceptor in front of inner. It is inert until Install.
func New(inner transport.Delivery, nav Navigator, pctx *Context, logger *logging.Logger) *Interceptor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Interceptor{
		inner:  inner,
		nav:    nav,
		pctx:   pctx,
		logger: logger,
	}
}

// Install activates inspection, exactly once per Context. Further calls, on
// this instance or any other sharing the Context, are structural no-ops,
// never an error. There is no uninstall.
func (i *Interceptor) Install() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.active {
		return
	}
	if i.pctx.claim() {
		i.active = true
		i.logger.Debug("message interceptor installed")
	}
}

// Subscribe registers h for the named event. Message handlers are wrapped
// with inspection; every other event passes through untouched.
func (i *Interceptor) Subscribe(event string, h transport.Handler) {
	if i.isActive() && event == transport.EventMessage && h != nil {
		i.inner.Subscribe(event, i.wrap(h))
		return
	}
	i.inner.Subscribe(event, h)
}

// OnMessage returns the handler the application assigned, not the wrapper.
func (i *Interceptor) OnMessage() transport.Handler {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.active && i.slotSet {
		return i.slot
	}
	return i.inner.OnMessage()
}

// SetOnMessage assigns the callback slot. A nil handler clears the slot and
// passes through untouched.
func (i *Interceptor) SetOnMessage(h transport.Handler) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.active {
		i.inner.SetOnMessage(h)
		return
	}

	i.slot = h
	i.slotSet = true
	if h == nil {
		i.inner.SetOnMessage(nil)
		return
	}
	i.inner.SetOnMessage(i.wrap(h))
}

func (i *Interceptor) isActive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// wrap returns a handler that inspects the payload and then delivers the
// unmodified original to h, regardless of whether inspection matched.
func (i *Interceptor) wrap(h transport.Handler) transport.Handler {
	return func(payload []byte) {
		i.inspect(payload)
		h(payload)
	}
}

// inspect checks payload for an open-command. Malformed or unrelated
// payloads cause no action and no error; a recognized command is handed to
// the navigator, whose failures are logged and dropped.
func (i *Interceptor) inspect(payload []byte) {
	cmd, ok := wire.DecodeOpen(payload)
	if !ok {
		return
	}

	i.logger.Info("open command received",
		zap.String("url", cmd.URL),
		zap.String("by", cmd.By),
	)
	if err := i.nav.Navigate(context.Background(), cmd.URL); err != nil {
		i.logger.Debug("navigation dropped", zap.String("url", cmd.URL), zap.Error(err))
	}
}
