package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeOpen(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    OpenCommand
		ok      bool
	}{
		{
			name:    "well formed",
			payload: `{"type":"open","url":"https://example.com","by":"ops"}`,
			want:    OpenCommand{Type: "open", URL: "https://example.com", By: "ops"},
			ok:      true,
		},
		{
			name:    "by is optional",
			payload: `{"type":"open","url":"https://example.com"}`,
			want:    OpenCommand{Type: "open", URL: "https://example.com"},
			ok:      true,
		},
		{name: "other type", payload: `{"type":"chat","text":"hi"}`},
		{name: "empty url", payload: `{"type":"open","url":""}`},
		{name: "missing url", payload: `{"type":"open"}`},
		{name: "malformed json", payload: `{"type":"open",`},
		{name: "not an object", payload: `"open"`},
		{name: "empty payload", payload: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := DecodeOpen([]byte(tt.payload))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, cmd)
		})
	}
}
