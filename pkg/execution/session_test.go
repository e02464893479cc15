package execution

import (
	"testing"
	"time"

	"github.com/dukex/propflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	current := start

	return func() time.Time {
		current = current.Add(time.Second)

		return current
	}
}

func TestSession_StartStopKeepsLogs(t *testing.T) {
	session := NewSession(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	session.Append(models.ExecutionLog{Message: "stale"})
	session.Start()

	assert.True(t, session.IsExecuting())
	assert.Empty(t, session.Logs())

	session.Append(models.ExecutionLog{Message: "first"})
	session.Append(models.ExecutionLog{Message: "second", Level: models.LogLevelSuccess})

	session.Stop()

	assert.False(t, session.IsExecuting())

	logs := session.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
	assert.Equal(t, models.LogLevelInfo, logs[0].Level)
	assert.Equal(t, models.LogLevelSuccess, logs[1].Level)
	assert.True(t, logs[0].Timestamp.Before(logs[1].Timestamp))
}

func TestSession_ClearAndReset(t *testing.T) {
	session := NewSession(nil)
	session.Start()
	session.Append(models.ExecutionLog{Message: "entry"})

	session.Clear()
	assert.Empty(t, session.Logs())
	assert.True(t, session.IsExecuting())

	session.Append(models.ExecutionLog{Message: "entry"})
	session.Reset()
	assert.Empty(t, session.Logs())
	assert.False(t, session.IsExecuting())
}

func TestSession_LogsAreCopies(t *testing.T) {
	session := NewSession(nil)
	session.Append(models.ExecutionLog{Message: "entry", Data: map[string]any{"k": "v"}})

	logs := session.Logs()
	logs[0].Message = "changed"
	logs[0].Data["k"] = "changed"

	again := session.Logs()
	assert.Equal(t, "entry", again[0].Message)
	assert.Equal(t, "v", again[0].Data["k"])
}
