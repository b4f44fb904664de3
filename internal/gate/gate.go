// Package gate implements the navigation gate: a user-gated control that
// pre-opens a blank browser window under an explicit user action and later
// retargets it when remote open-commands arrive.
//
// Unsolicited window opens are blocked by browsers unless they happen inside
// a user gesture. The gate works around that: Activate runs inside the
// user's explicit "allow" action and opens a blank window that Navigate can
// retarget at any later point.
package gate

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/popgate/popgate/internal/infrastructure/logging"
	"github.com/popgate/popgate/internal/window"
)

// State is the gate's lifecycle state.
type State int

const (
	// Locked means no window reference is held; navigation requests fall
	// back to manual confirmation.
	Locked State = iota
	// Armed is transiently valid only inside Activate; it becomes Bound
	// immediately on success.
	Armed
	// Bound means the gate holds a window opened under a user action. The
	// held window may still go stale (user closed it), which is checked at
	// use time and does not revert the state.
	Bound
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Armed:
		return "armed"
	case Bound:
		return "bound"
	default:
		return "unknown"
	}
}

var (
	// ErrDeclined is returned when the user rejects a confirmed navigation.
	ErrDeclined = errors.New("navigation declined by user")
)

// Prompter asks the user to confirm a navigation. Confirm blocks until the
// user answers; it must show the literal URL being requested.
type Prompter interface {
	Confirm(url string) bool
}

// Notifier reflects gate state onto the user affordance.
type Notifier interface {
	// StateChanged is called after every state transition.
	StateChanged(s State)
	// Notice surfaces a synchronous, user-visible message.
	Notice(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) StateChanged(State) {}
func (NopNotifier) Notice(string)      {}

// Config assembles a gate's collaborators.
type Config struct {
	Opener   window.Opener
	Prompter Prompter
	Notifier Notifier
	Logger   *logging.Logger
}

// Gate holds the bound window and decides how remote navigation requests are
// carried out. One gate per process; the Locked to Bound transition happens
// at most once and is irreversible.
type Gate struct {
	mu       sync.Mutex
	state    State
	win      window.Window
	opener   window.Opener
	prompter Prompter
	notifier Notifier
	logger   *logging.Logger
}

// New creates a gate in the Locked state.
func New(cfg Config) *Gate {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Gate{
		state:    Locked,
		opener:   cfg.Opener,
		prompter: cfg.Prompter,
		notifier: notifier,
		logger:   logger,
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Activate opens a blank window and binds it. It must be invoked from the
// user affordance, the one context in which an unsolicited window survives.
// Once Bound, further calls are no-ops. On failure the gate stays Locked and
// the user sees a synchronous notice.
func (g *Gate) Activate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Bound {
		return nil
	}

	g.state = Armed
	win, err := g.opener.Open(ctx, "about:blank")
	if err != nil {
		g.state = Locked
		g.notifier.Notice("window was blocked; try allowing again")
		g.logger.Warn("gate activation failed", zap.Error(err))
		return err
	}

	g.win = win
	g.state = Bound
	g.notifier.StateChanged(Bound)
	g.logger.Info("gate bound to window")
	return nil
}

// Navigate carries out a remote navigation request. Resolution order, each
// step a hard fallback of the previous:
//
//  1. retarget the bound window if it is still open
//  2. open a new window directly at url
//  3. ask the user; on accept, best-effort open
//
// Failure is non-fatal: the request is dropped, never queued or retried.
func (g *Gate) Navigate(ctx context.Context, url string) error {
	// Snapshot under the lock only. The fallback chain blocks (opener calls,
	// user confirmation); holding the mutex across it would wedge every
	// State/Activate/Close issued while a prompt is pending.
	g.mu.Lock()
	state, win := g.state, g.win
	g.mu.Unlock()

	if state == Bound && win.IsOpen() {
		err := win.Navigate(ctx, url)
		if err == nil {
			g.logger.Info("retargeted bound window", zap.String("url", url))
			return nil
		}
		g.logger.Debug("bound window navigation failed", zap.Error(err))
	}

	if _, err := g.opener.Open(ctx, url); err == nil {
		g.logger.Info("opened window directly", zap.String("url", url))
		return nil
	}

	if !g.prompter.Confirm(url) {
		g.logger.Info("navigation declined", zap.String("url", url))
		return ErrDeclined
	}

	// Accepted: best-effort open, still counts as success if blocked.
	if _, err := g.opener.Open(ctx, url); err != nil {
		g.logger.Warn("confirmed open was still blocked", zap.String("url", url), zap.Error(err))
	} else {
		g.logger.Info("opened window after confirmation", zap.String("url", url))
	}
	return nil
}

// Close releases the bound window, if any. The gate state is unaffected;
// staleness is detected on the next Navigate.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.win == nil {
		return nil
	}
	return g.win.Close()
}
