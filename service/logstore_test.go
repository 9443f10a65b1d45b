package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogStoreAppendAndTail(t *testing.T) {
	store := NewLogStore(t.TempDir())

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(LogEntry{ProjectID: "p1", Level: "info", Message: "a"}))
	}
	require.NoError(t, store.Append(LogEntry{ProjectID: "p2", Level: "error", Message: "b"}))

	all, err := store.Tail(0, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	p2, err := store.Tail(0, "p2")
	require.NoError(t, err)
	require.Len(t, p2, 1)
	assert.Equal(t, "b", p2[0].Message)
}

func TestLogStoreTailLimit(t *testing.T) {
	store := NewLogStore(t.TempDir())
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(LogEntry{Level: "info", Message: "m"}))
	}
	entries, err := store.Tail(3, "")
	require.NoError(t, err)
	assert.Len(t, entries, 3, "tail keeps only the most recent entries")
}

func TestLogStoreEmptyFile(t *testing.T) {
	store := NewLogStore(t.TempDir())
	entries, err := store.Tail(10, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
