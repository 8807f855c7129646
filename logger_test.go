package ingredientagent

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStageLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileStageLogger(&buf)

	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, logger.LogStage(StageLog{Step: 1, Stage: StageResearch, Timestamp: at, Records: 3}))
	require.NoError(t, logger.LogStage(StageLog{Step: 2, Stage: StageCritic, Timestamp: at, Verdict: VerdictRejected, RetryCount: 1}))
	assert.Zero(t, buf.Len(), "entries are buffered until flush")

	require.NoError(t, logger.Flush())

	var doc struct {
		WorkflowRun struct {
			Stages []StageLog `json:"stages"`
		} `json:"workflow_run"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.WorkflowRun.Stages, 2)
	assert.Equal(t, StageResearch, doc.WorkflowRun.Stages[0].Stage)
	assert.Equal(t, 3, doc.WorkflowRun.Stages[0].Records)
	assert.Equal(t, VerdictRejected, doc.WorkflowRun.Stages[1].Verdict)
	assert.Equal(t, 1, doc.WorkflowRun.Stages[1].RetryCount)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFileStageLogger_FlushError(t *testing.T) {
	logger := NewFileStageLogger(failingWriter{})
	require.NoError(t, logger.LogStage(StageLog{Step: 1}))
	assert.ErrorContains(t, logger.Flush(), "disk full")

	assert.NoError(t, NewFileStageLogger(nil).Flush(), "nil writer is a no-op")
}

func TestStdoutStageLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutStageLogger{out: &buf}

	require.NoError(t, logger.LogStage(StageLog{Step: 1, Stage: StageAnalysis}))
	require.NoError(t, logger.LogStage(StageLog{Step: 2, Stage: StageCritic, Error: "boom"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "one JSON line per entry")
	var entry StageLog
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "boom", entry.Error)
}

func TestNewStageLogFilePath(t *testing.T) {
	path := NewStageLogFilePath("abc", "Ollama:Local")
	assert.True(t, strings.HasPrefix(path, "./logs/"))
	assert.True(t, strings.HasSuffix(path, ".ollama_local.abc.json"))
}

func TestNoOpStageLogger(t *testing.T) {
	assert.NoError(t, NewNoOpStageLogger().LogStage(StageLog{}))
}
