package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/model"
)

func testLog(t *testing.T) (*Log, string) {
	t.Helper()
	dir := t.TempDir()
	return NewLog(dir, zerolog.Nop()), dir
}

func userMsg(content string) model.Message {
	return model.Message{Role: model.RoleUser, Content: content}
}

func mustAppend(t *testing.T, l *Log, sessionID string, msg model.Message) model.Message {
	t.Helper()
	written, err := l.Append(sessionID, msg)
	require.NoError(t, err)
	return written
}

func TestLog_AppendReadAllOrder(t *testing.T) {
	l, _ := testLog(t)

	const n = 7
	for i := 0; i < n; i++ {
		mustAppend(t, l, "sess-1", userMsg(fmt.Sprintf("message %d", i)))
	}

	messages, err := l.ReadAll("sess-1")
	require.NoError(t, err)
	require.Len(t, messages, n)
	for i, msg := range messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
		assert.Equal(t, "sess-1", msg.SessionID)
		if i > 0 {
			assert.False(t, msg.Timestamp.Before(messages[i-1].Timestamp),
				"timestamps must be non-decreasing in append order")
		}
	}
}

func TestLog_ReadAllEmpty(t *testing.T) {
	l, _ := testLog(t)
	messages, err := l.ReadAll("sess-none")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestLog_SurvivesRestart(t *testing.T) {
	l, dir := testLog(t)
	mustAppend(t, l, "sess-1", userMsg("before restart"))

	// New Log over the same directory simulates a process restart.
	reopened := NewLog(dir, zerolog.Nop())
	mustAppend(t, reopened, "sess-1", userMsg("after restart"))

	messages, err := reopened.ReadAll("sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "before restart", messages[0].Content)
	assert.Equal(t, "after restart", messages[1].Content)
	assert.False(t, messages[1].Timestamp.Before(messages[0].Timestamp))
}

func TestLog_ClampsBackwardsTimestamps(t *testing.T) {
	l, _ := testLog(t)

	now := time.Now()
	mustAppend(t, l, "sess-1", model.Message{Role: model.RoleUser, Content: "a", Timestamp: now})
	mustAppend(t, l, "sess-1", model.Message{Role: model.RoleUser, Content: "b", Timestamp: now.Add(-time.Hour)})

	messages, err := l.ReadAll("sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.False(t, messages[1].Timestamp.Before(messages[0].Timestamp))
}

func TestLog_AppendReturnsStampedMessage(t *testing.T) {
	l, _ := testLog(t)

	now := time.Now()
	first := mustAppend(t, l, "sess-1", model.Message{Role: model.RoleUser, Content: "a", Timestamp: now})
	assert.True(t, first.Timestamp.Equal(now))

	// A backwards clock is clamped, and the returned message must carry
	// the timestamp the artifact actually holds.
	second := mustAppend(t, l, "sess-1", model.Message{Role: model.RoleAssistant, Content: "b", Timestamp: now.Add(-time.Minute)})
	assert.True(t, second.Timestamp.Equal(now))

	messages, err := l.ReadAll("sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[1].Timestamp.Equal(second.Timestamp))
}

func TestLog_TornTrailingLineIgnored(t *testing.T) {
	l, dir := testLog(t)
	mustAppend(t, l, "sess-1", userMsg("intact"))

	// Simulate a crash mid-append.
	path := filepath.Join(dir, "sess-1.jsonl")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"session_id":"sess-1","role":"user","cont`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	messages, err := l.ReadAll("sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "intact", messages[0].Content)
}

func TestLog_Clear(t *testing.T) {
	l, _ := testLog(t)
	mustAppend(t, l, "sess-1", userMsg("gone soon"))
	require.NoError(t, l.Clear("sess-1"))

	messages, err := l.ReadAll("sess-1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Clearing a session with no history is fine.
	assert.NoError(t, l.Clear("sess-1"))
}

func TestLog_SessionsIsolated(t *testing.T) {
	l, _ := testLog(t)
	mustAppend(t, l, "sess-1", userMsg("one"))
	mustAppend(t, l, "sess-2", userMsg("two"))

	m1, err := l.ReadAll("sess-1")
	require.NoError(t, err)
	m2, err := l.ReadAll("sess-2")
	require.NoError(t, err)
	require.Len(t, m1, 1)
	require.Len(t, m2, 1)
	assert.Equal(t, "one", m1[0].Content)
	assert.Equal(t, "two", m2[0].Content)
}
