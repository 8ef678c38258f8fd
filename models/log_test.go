package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrativeLogRing(t *testing.T) {
	l := NewNarrativeLog(3)
	_, ok := l.Last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		l.Append(time.Duration(i)*time.Second, "system", "entry %d", i)
	}

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 3, l.Cap())

	var messages []string
	for _, e := range l.Entries() {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{"entry 3", "entry 4", "entry 5"}, messages)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, LogEntry{At: 5 * time.Second, Source: "system", Message: "entry 5"}, last)
}

func TestNarrativeLogMinimumCapacity(t *testing.T) {
	l := NewNarrativeLog(0)
	l.Append(0, "combat", "first")
	l.Append(0, "combat", "second")

	assert.Equal(t, 1, l.Len())
	last, _ := l.Last()
	assert.Equal(t, "second", last.Message)
}

func TestNarrativeLogMarshalsOldestFirst(t *testing.T) {
	l := NewNarrativeLog(2)
	l.Append(time.Second, "director", "a")
	l.Append(2*time.Second, "quest", "b")
	l.Append(3*time.Second, "combat", "c")

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var entries []LogEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Message)
	assert.Equal(t, "c", entries[1].Message)
}
