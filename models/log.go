package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LogEntry is one line of the narrative log
type LogEntry struct {
	At      time.Duration `json:"at"`
	Source  string        `json:"source"` // combat, director, system, quest
	Message string        `json:"message"`
}

// NarrativeLog is a fixed-capacity ring; the oldest entry is dropped when full.
type NarrativeLog struct {
	buf   []LogEntry
	start int
	size  int
}

// NewNarrativeLog allocates a log holding at most capacity entries
func NewNarrativeLog(capacity int) *NarrativeLog {
	if capacity < 1 {
		capacity = 1
	}
	return &NarrativeLog{buf: make([]LogEntry, capacity)}
}

// Append formats and adds an entry, discarding the oldest if full
func (l *NarrativeLog) Append(at time.Duration, source, format string, args ...interface{}) {
	entry := LogEntry{At: at, Source: source, Message: fmt.Sprintf(format, args...)}
	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = entry
		l.size++
		return
	}
	l.buf[l.start] = entry
	l.start = (l.start + 1) % len(l.buf)
}

// Len returns the number of stored entries
func (l *NarrativeLog) Len() int {
	return l.size
}

// Cap returns the fixed capacity
func (l *NarrativeLog) Cap() int {
	return len(l.buf)
}

// Entries returns the stored entries, oldest first
func (l *NarrativeLog) Entries() []LogEntry {
	out := make([]LogEntry, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

// Last returns the newest entry
func (l *NarrativeLog) Last() (LogEntry, bool) {
	if l.size == 0 {
		return LogEntry{}, false
	}
	return l.buf[(l.start+l.size-1)%len(l.buf)], true
}

// MarshalJSON encodes the log as an ordered array
func (l *NarrativeLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}
