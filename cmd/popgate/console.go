package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/popgate/popgate/internal/gate"
)

// promptReq carries a confirmation request from the gate (running on the
// transport read goroutine) to the console event loop.
type promptReq struct {
	url   string
	reply chan bool
}

// console implements gate.Prompter and gate.Notifier over stdin/stdout. A
// single reader goroutine feeds lines; the main event loop decides whether a
// line is a command or an answer to a pending prompt.
type console struct {
	lines   chan string
	prompts chan promptReq
}

func newConsole() *console {
	c := &console{
		lines:   make(chan string),
		prompts: make(chan promptReq),
	}
	go c.readLines()
	return c
}

func (c *console) readLines() {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		c.lines <- sc.Text()
	}
	close(c.lines)
}

// Confirm blocks until the event loop collects an answer from the operator.
func (c *console) Confirm(url string) bool {
	req := promptReq{url: url, reply: make(chan bool, 1)}
	c.prompts <- req
	return <-req.reply
}

func (c *console) StateChanged(s gate.State) {
	if s == gate.Bound {
		fmt.Println("window bound: remote navigation enabled")
	}
}

func (c *console) Notice(msg string) {
	fmt.Println("notice:", msg)
}
