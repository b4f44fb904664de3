// Command ask sends a single prompt to a chat-completion endpoint and prints
// the reply. The prompt comes from the arguments, or from stdin when none are
// given.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/popgate/popgate/internal/chat"
	"github.com/popgate/popgate/internal/infrastructure/config"
)

func main() {
	model := flag.String("model", "", "Model name (overrides config)")
	baseURL := flag.String("base-url", "", "API base URL (overrides config)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Request timeout")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *model != "" {
		cfg.Chat.Model = *model
	}
	if *baseURL != "" {
		cfg.Chat.BaseURL = *baseURL
	}

	prompt, err := readPrompt(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := chat.New(cfg.Chat).Complete(ctx, prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(reply)
}

func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("empty prompt: pass it as arguments or on stdin")
	}
	return prompt, nil
}
