// Command popgate runs the client agent: it connects to the relay, installs
// the message interceptor, and exposes the allow/confirm affordance on the
// console.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/popgate/popgate/internal/gate"
	"github.com/popgate/popgate/internal/infrastructure/config"
	"github.com/popgate/popgate/internal/infrastructure/logging"
	"github.com/popgate/popgate/internal/intercept"
	"github.com/popgate/popgate/internal/shared/wire"
	"github.com/popgate/popgate/internal/transport"
	"github.com/popgate/popgate/internal/window"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	relayURL := flag.String("relay", "", "Relay websocket URL (overrides config)")
	driver := flag.String("driver", "", "Window driver: rod or exec (overrides config)")
	name := flag.String("name", "", "Agent name shown in chat messages")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *relayURL != "" {
		cfg.Relay.URL = *relayURL
	}
	if *driver != "" {
		cfg.Gate.Driver = *driver
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	agentName := *name
	if agentName == "" {
		agentName = "agent-" + uuid.NewString()[:8]
	}

	if err := run(cfg, logger, agentName); err != nil {
		logger.Fatal("agent exited", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(cfg *config.Config, logger *logging.Logger, agentName string) error {
	ctx := context.Background()

	opener, cleanup, err := newOpener(cfg.Gate, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ui := newConsole()
	g := gate.New(gate.Config{
		Opener:   opener,
		Prompter: ui,
		Notifier: ui,
		Logger:   logger,
	})

	conn, err := transport.Dial(ctx, cfg.Relay.URL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected to relay", zap.String("url", cfg.Relay.URL), zap.String("agent", agentName))

	pctx := intercept.NewContext()
	ic := intercept.New(conn, g, pctx, logger)
	ic.Install()

	// The application's own handler: print relayed chat traffic. The
	// interceptor re-dispatches every message here, matched or not.
	ic.Subscribe(transport.EventMessage, func(payload []byte) {
		var msg wire.ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Type != wire.TypeChat {
			return
		}
		fmt.Printf("[%s] %s\n", msg.From, msg.Text)
	})

	fmt.Println("popgate agent ready")
	fmt.Println(`type "allow" to enable remote window opening, "say <text>" to chat, "quit" to exit`)

	return eventLoop(ctx, logger, agentName, g, conn, ui)
}

// eventLoop serves console input, confirmation prompts, connection loss, and
// signals from a single goroutine.
func eventLoop(ctx context.Context, logger *logging.Logger, agentName string, g *gate.Gate, conn *transport.Conn, ui *console) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			fmt.Println("\nshutting down")
			g.Close()
			return nil

		case <-conn.Done():
			return fmt.Errorf("relay connection closed")

		case req := <-ui.prompts:
			fmt.Printf("remote wants to open %q, allow? [y/N] ", req.url)
			select {
			case line, ok := <-ui.lines:
				req.reply <- ok && isYes(line)
			case <-sigChan:
				req.reply <- false
				g.Close()
				return nil
			}

		case line, ok := <-ui.lines:
			if !ok {
				return nil
			}
			switch {
			case line == "allow":
				if err := g.Activate(ctx); err != nil {
					logger.Warn("activation failed", zap.Error(err))
				}
			case line == "status":
				fmt.Printf("gate: %s\n", g.State())
			case strings.HasPrefix(line, "say "):
				msg := wire.ChatMessage{Type: wire.TypeChat, From: agentName, Text: strings.TrimPrefix(line, "say ")}
				if err := conn.Send(msg); err != nil {
					logger.Warn("send failed", zap.Error(err))
				}
			case line == "quit" || line == "exit":
				g.Close()
				return nil
			case line == "":
			default:
				fmt.Println(`commands: allow, status, say <text>, quit`)
			}
		}
	}
}

// newOpener builds the configured window driver, falling back from rod to
// the system opener when no browser can be driven.
func newOpener(cfg config.GateConfig, logger *logging.Logger) (window.Opener, func(), error) {
	switch cfg.Driver {
	case "exec":
		return window.NewExecOpener(), func() {}, nil
	case "rod", "":
		opener, err := window.NewRodOpener(window.RodOptions{
			ControlURL: cfg.ControlURL,
			Headless:   cfg.Headless,
		})
		if err != nil {
			logger.Warn("rod driver unavailable, falling back to system opener", zap.Error(err))
			return window.NewExecOpener(), func() {}, nil
		}
		return opener, func() { opener.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown window driver %q", cfg.Driver)
	}
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
