package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgate/popgate/internal/window"
)

type fakeWindow struct {
	open      bool
	location  string
	navErr    error
	navigated int
}

func (w *fakeWindow) Navigate(_ context.Context, url string) error {
	w.navigated++
	if w.navErr != nil {
		return w.navErr
	}
	w.location = url
	return nil
}

func (w *fakeWindow) IsOpen() bool { return w.open }
func (w *fakeWindow) Close() error { w.open = false; return nil }

type fakeOpener struct {
	err    error
	opened []string
	wins   []*fakeWindow
}

func (o *fakeOpener) Open(_ context.Context, url string) (window.Window, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opened = append(o.opened, url)
	w := &fakeWindow{open: true, location: url}
	o.wins = append(o.wins, w)
	return w, nil
}

type fakePrompter struct {
	answer bool
	asked  []string
}

func (p *fakePrompter) Confirm(url string) bool {
	p.asked = append(p.asked, url)
	return p.answer
}

type recordingNotifier struct {
	states  []State
	notices []string
}

func (n *recordingNotifier) StateChanged(s State) { n.states = append(n.states, s) }
func (n *recordingNotifier) Notice(msg string)    { n.notices = append(n.notices, msg) }

func newGate(opener window.Opener, prompter Prompter, notifier Notifier) *Gate {
	return New(Config{Opener: opener, Prompter: prompter, Notifier: notifier})
}

func TestActivate(t *testing.T) {
	ctx := context.Background()

	t.Run("success binds a blank window", func(t *testing.T) {
		opener := &fakeOpener{}
		notifier := &recordingNotifier{}
		g := newGate(opener, &fakePrompter{}, notifier)

		require.NoError(t, g.Activate(ctx))
		assert.Equal(t, Bound, g.State())
		assert.Equal(t, []string{"about:blank"}, opener.opened)
		assert.Equal(t, []State{Bound}, notifier.states)
	})

	t.Run("blocked open stays locked and notifies", func(t *testing.T) {
		opener := &fakeOpener{err: window.ErrBlocked}
		notifier := &recordingNotifier{}
		g := newGate(opener, &fakePrompter{}, notifier)

		err := g.Activate(ctx)
		assert.ErrorIs(t, err, window.ErrBlocked)
		assert.Equal(t, Locked, g.State())
		assert.Len(t, notifier.notices, 1)
	})

	t.Run("second activation is a no-op", func(t *testing.T) {
		opener := &fakeOpener{}
		g := newGate(opener, &fakePrompter{}, nil)

		require.NoError(t, g.Activate(ctx))
		first := opener.wins[0]
		require.NoError(t, g.Activate(ctx))

		assert.Len(t, opener.opened, 1, "no second window opened")
		require.NoError(t, g.Navigate(ctx, "https://example.com"))
		assert.Equal(t, "https://example.com", first.location, "first window retained")
	})

	t.Run("retry after blocked activation can succeed", func(t *testing.T) {
		opener := &fakeOpener{err: window.ErrBlocked}
		g := newGate(opener, &fakePrompter{}, nil)

		require.Error(t, g.Activate(ctx))
		opener.err = nil
		require.NoError(t, g.Activate(ctx))
		assert.Equal(t, Bound, g.State())
	})
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()

	t.Run("bound window is retargeted", func(t *testing.T) {
		opener := &fakeOpener{}
		g := newGate(opener, &fakePrompter{}, nil)
		require.NoError(t, g.Activate(ctx))

		require.NoError(t, g.Navigate(ctx, "https://example.com"))
		assert.Equal(t, "https://example.com", opener.wins[0].location)
		assert.Len(t, opener.opened, 1, "no extra window opened")
	})

	t.Run("closed bound window falls back to direct open", func(t *testing.T) {
		opener := &fakeOpener{}
		g := newGate(opener, &fakePrompter{}, nil)
		require.NoError(t, g.Activate(ctx))

		bound := opener.wins[0]
		bound.open = false // user closed it

		require.NoError(t, g.Navigate(ctx, "https://example.com"))
		assert.Zero(t, bound.navigated, "stale reference never touched")
		assert.Equal(t, []string{"about:blank", "https://example.com"}, opener.opened)
		assert.Equal(t, Bound, g.State(), "staleness does not revert the state")
	})

	t.Run("locked gate tries direct open", func(t *testing.T) {
		opener := &fakeOpener{}
		prompter := &fakePrompter{}
		g := newGate(opener, prompter, nil)

		require.NoError(t, g.Navigate(ctx, "https://example.com"))
		assert.Equal(t, []string{"https://example.com"}, opener.opened)
		assert.Empty(t, prompter.asked, "no prompt when direct open succeeds")
	})

	t.Run("blocked direct open prompts with the literal url", func(t *testing.T) {
		opener := &fakeOpener{err: window.ErrBlocked}
		prompter := &fakePrompter{answer: false}
		g := newGate(opener, prompter, nil)

		err := g.Navigate(ctx, "https://x")
		assert.ErrorIs(t, err, ErrDeclined)
		assert.Equal(t, []string{"https://x"}, prompter.asked)
	})

	t.Run("accepted prompt opens best-effort", func(t *testing.T) {
		opener := &fakeOpener{err: window.ErrBlocked}
		prompter := &fakePrompter{answer: true}
		g := newGate(opener, prompter, nil)

		// Still blocked on the confirmed attempt; that is success per the
		// resolution contract.
		require.NoError(t, g.Navigate(ctx, "https://example.com"))

		opener2 := &fakeOpener{}
		g2 := newGate(&flakyOpener{inner: opener2, failures: 1}, &fakePrompter{answer: true}, nil)
		require.NoError(t, g2.Navigate(ctx, "https://example.com"))
		assert.Equal(t, []string{"https://example.com"}, opener2.opened)
	})

	t.Run("declined navigation is dropped without side effects", func(t *testing.T) {
		opener := &fakeOpener{err: window.ErrBlocked}
		prompter := &fakePrompter{answer: false}
		g := newGate(opener, prompter, nil)

		assert.ErrorIs(t, g.Navigate(ctx, "https://example.com"), ErrDeclined)
		assert.Empty(t, opener.opened)
	})

	t.Run("pending prompt does not block other gate calls", func(t *testing.T) {
		prompter := &parkedPrompter{asked: make(chan string, 1), release: make(chan bool)}
		g := newGate(&fakeOpener{err: window.ErrBlocked}, prompter, nil)

		done := make(chan error, 1)
		go func() { done <- g.Navigate(ctx, "https://example.com") }()
		<-prompter.asked

		// The console prompter answers from the same loop that issues gate
		// commands, so State/Activate/Close must not wait on Navigate.
		stateRead := make(chan State, 1)
		go func() { stateRead <- g.State() }()
		select {
		case s := <-stateRead:
			assert.Equal(t, Locked, s)
		case <-time.After(time.Second):
			t.Fatal("State blocked while a confirmation prompt was pending")
		}

		prompter.release <- false
		assert.ErrorIs(t, <-done, ErrDeclined)
	})
}

// parkedPrompter blocks Confirm until the test releases it.
type parkedPrompter struct {
	asked   chan string
	release chan bool
}

func (p *parkedPrompter) Confirm(url string) bool {
	p.asked <- url
	return <-p.release
}

// flakyOpener fails the first n opens, then delegates.
type flakyOpener struct {
	inner    *fakeOpener
	failures int
}

func (o *flakyOpener) Open(ctx context.Context, url string) (window.Window, error) {
	if o.failures > 0 {
		o.failures--
		return nil, window.ErrBlocked
	}
	return o.inner.Open(ctx, url)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "armed", Armed.String())
	assert.Equal(t, "bound", Bound.String())
}
