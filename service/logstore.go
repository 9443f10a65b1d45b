package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logTailDefault = 500

// LogEntry is one persisted pipeline log line.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ProjectID string    `json:"project_id,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogStore appends pipeline log events to a JSONL file and serves tail
// reads for the UI. Appends are serialized; a write failure never
// propagates to the pipeline.
type LogStore struct {
	path string
	mu   sync.Mutex
}

func NewLogStore(root string) *LogStore {
	return &LogStore{path: filepath.Join(root, "pipeline.log.jsonl")}
}

func (s *LogStore) Append(e LogEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("log store mkdir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("log store open: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("log store write: %w", err)
	}
	return nil
}

// Tail returns up to limit most recent entries, oldest first, optionally
// filtered to one project. Unparseable lines are skipped.
func (s *LogStore) Tail(limit int, projectID string) ([]LogEntry, error) {
	if limit <= 0 {
		limit = logTailDefault
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, fmt.Errorf("log store open: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if projectID != "" && e.ProjectID != projectID {
			continue
		}
		entries = append(entries, e)
		if len(entries) > limit {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("log store scan: %w", err)
	}
	if entries == nil {
		entries = []LogEntry{}
	}
	return entries, nil
}
