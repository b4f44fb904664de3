package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIDs(t *testing.T) {
	t.Run("client id prefix", func(t *testing.T) {
		cid := NewClientID()
		assert.True(t, strings.HasPrefix(cid.String(), ClientPrefix+"_"))
		assert.True(t, IsValid(cid.String()))
	})

	t.Run("message id prefix", func(t *testing.T) {
		mid := NewMessageID()
		assert.True(t, strings.HasPrefix(mid.String(), MessagePrefix+"_"))
		assert.True(t, IsValid(mid.String()))
	})

	t.Run("uniqueness", func(t *testing.T) {
		seen := make(map[ClientID]bool)
		for i := 0; i < 1000; i++ {
			cid := NewClientID()
			require.False(t, seen[cid], "duplicate id %s", cid)
			seen[cid] = true
		}
	})
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid("not-a-ulid"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("cli_tooshort"))
}
