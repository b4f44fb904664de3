package window

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// ExecOpener opens URLs through the system's default browser. The spawned
// window is fire-and-forget: there is no handle to retarget later, so
// IsOpen always reports false and Navigate always fails.
type ExecOpener struct {
	// lookPath is swappable in tests.
	lookPath func(string) (string, error)
	goos     string
}

// NewExecOpener creates a system-opener driver.
func NewExecOpener() *ExecOpener {
	return &ExecOpener{lookPath: exec.LookPath, goos: runtime.GOOS}
}

// Open launches the default browser at url.
func (o *ExecOpener) Open(ctx context.Context, url string) (Window, error) {
	name, args := o.command(url)
	if _, err := o.lookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrBlocked, name)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	// The opener process exits once the browser takes over; don't wait for
	// the window itself.
	go func() { _ = cmd.Wait() }()

	return execWindow{}, nil
}

func (o *ExecOpener) command(url string) (string, []string) {
	switch o.goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

type execWindow struct{}

func (execWindow) Navigate(context.Context, string) error { return ErrDetached }
func (execWindow) IsOpen() bool                           { return false }
func (execWindow) Close() error                           { return nil }
