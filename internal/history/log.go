// Package history persists each session's chat transcript as an
// append-only JSONL artifact, one message per line. Appends are fsynced
// before returning, so a message acknowledged as written survives a
// crash. Readers tolerate a torn trailing line from an interrupted write.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studyrag/internal/model"
)

// Log owns the history artifacts under a single directory. Callers
// serialize appends per session; concurrent reads of other sessions are
// always safe, and a read of a session being appended to sees the state
// before or after the append, never a partial record.
type Log struct {
	dir string
	log zerolog.Logger

	mu     sync.Mutex
	lastTS map[string]time.Time
}

func NewLog(dir string, log zerolog.Logger) *Log {
	return &Log{
		dir:    dir,
		log:    log,
		lastTS: make(map[string]time.Time),
	}
}

func (l *Log) path(sessionID string) string {
	return filepath.Join(l.dir, sessionID+".jsonl")
}

// Append writes one message durably and returns it as written. A zero
// timestamp is stamped with the current time; timestamps never move
// backwards within a session, even across process restarts, so the
// returned message carries the clamped timestamp the artifact holds.
func (l *Log) Append(sessionID string, msg model.Message) (model.Message, error) {
	msg.SessionID = sessionID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Timestamp = l.clampTimestamp(sessionID, msg.Timestamp)

	payload, err := json.Marshal(msg)
	if err != nil {
		return model.Message{}, fmt.Errorf("marshal history message failed: %w", err)
	}
	payload = append(payload, '\n')

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return model.Message{}, fmt.Errorf("create history dir failed: %w", err)
	}
	f, err := os.OpenFile(l.path(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return model.Message{}, fmt.Errorf("open history log failed: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		return model.Message{}, fmt.Errorf("append history message failed: %w", err)
	}
	if err := f.Sync(); err != nil {
		return model.Message{}, fmt.Errorf("sync history log failed: %w", err)
	}
	return msg, nil
}

// clampTimestamp enforces non-decreasing timestamps per session. The last
// seen timestamp is recovered from the artifact on first use after start.
func (l *Log) clampTimestamp(sessionID string, ts time.Time) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastTS[sessionID]
	if !ok {
		last = l.readLastTimestamp(sessionID)
	}
	if ts.Before(last) {
		ts = last
	}
	l.lastTS[sessionID] = ts
	return ts
}

func (l *Log) readLastTimestamp(sessionID string) time.Time {
	messages, err := l.readAll(sessionID)
	if err != nil || len(messages) == 0 {
		return time.Time{}
	}
	return messages[len(messages)-1].Timestamp
}

// ReadAll restores the session's transcript in append order. A session
// with no history returns an empty slice, not an error. An unreadable
// artifact degrades to empty with an operator warning.
func (l *Log) ReadAll(sessionID string) ([]model.Message, error) {
	messages, err := l.readAll(sessionID)
	if err != nil {
		l.log.Warn().Str("session_id", sessionID).Err(err).
			Msg("history log unreadable, starting session with empty transcript")
		return nil, nil
	}
	return messages, nil
}

func (l *Log) readAll(sessionID string) ([]model.Message, error) {
	raw, err := os.ReadFile(l.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history log failed: %w", err)
	}

	var messages []model.Message
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg model.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// A torn trailing line from an interrupted append is
			// expected after a crash; anything before it is intact.
			break
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history log failed: %w", err)
	}
	return messages, nil
}

// Clear truncates the session's transcript without touching the session
// itself or its vectors.
func (l *Log) Clear(sessionID string) error {
	l.mu.Lock()
	delete(l.lastTS, sessionID)
	l.mu.Unlock()

	err := os.Remove(l.path(sessionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear history log failed: %w", err)
	}
	return nil
}

// Delete removes the session's history artifact; missing is a no-op.
func (l *Log) Delete(sessionID string) error {
	return l.Clear(sessionID)
}
