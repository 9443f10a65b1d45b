package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastLogPersists(t *testing.T) {
	logs := NewLogStore(t.TempDir())
	b := NewBroadcaster(logs)

	b.BroadcastLog("p1", "info", "stage started")
	b.BroadcastLog("p1", "error", "stage failed")

	entries, err := logs.Tail(0, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "stage started", entries[0].Message)
	assert.Equal(t, "error", entries[1].Level)
}

func TestBroadcastWithoutClients(t *testing.T) {
	b := NewBroadcaster(nil)
	assert.Equal(t, 0, b.ClientCount())

	// No listeners attached: broadcasting is a no-op, never a panic.
	b.BroadcastStatus("p1", "Processing", "Speech Generated")
	b.BroadcastLog("p1", "info", "no sinks")
}
