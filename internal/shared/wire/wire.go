// Package wire defines the JSON message shapes exchanged over the relay.
package wire

import "encoding/json"

// Message types recognized by this component. Anything else belongs to the
// application and passes through untouched.
const (
	TypeOpen = "open"
	TypeChat = "chat"
)

// OpenCommand instructs a client to open or retarget a browser window.
type OpenCommand struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	By   string `json:"by,omitempty"` // informational only
}

// ChatMessage is the ordinary broadcast payload relayed between clients.
type ChatMessage struct {
	Type string `json:"type"`
	From string `json:"from,omitempty"`
	Text string `json:"text,omitempty"`
}

// DecodeOpen attempts to parse payload as an OpenCommand. It reports false
// for malformed JSON, other message types, and empty URLs; callers treat all
// of those as pass-through.
func DecodeOpen(payload []byte) (OpenCommand, bool) {
	var cmd OpenCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return OpenCommand{}, false
	}
	if cmd.Type != TypeOpen || cmd.URL == "" {
		return OpenCommand{}, false
	}
	return cmd, true
}
