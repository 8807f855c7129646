package ingredientagent

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// StageLogger is the interface for per-run stage logging.
type StageLogger interface {
	LogStage(entry StageLog) error
}

// NewStageLogFilePath returns a file path based on the session id and provider to make it easier to find the log of a specific run.
func NewStageLogFilePath(sessionID, provider string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(provider), ":", "_"),
		sessionID,
	)
}

// StageLog represents a single agent invocation in the workflow
type StageLog struct {
	Step       int           `json:"step"`
	Stage      Stage         `json:"stage"`
	Timestamp  time.Time     `json:"timestamp"`
	Duration   time.Duration `json:"duration_ns"`
	RetryCount int           `json:"retry_count"`
	Verdict    Verdict       `json:"verdict,omitempty"`
	Records    int           `json:"records,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// FileStageLogger logs to a writer, accumulating entries and flushing at the end
type FileStageLogger struct {
	entries []StageLog
	writer  io.Writer
}

// NewFileStageLogger creates a new buffered stage logger
func NewFileStageLogger(writer io.Writer) *FileStageLogger {
	return &FileStageLogger{
		entries: make([]StageLog, 0),
		writer:  writer,
	}
}

// LogStage appends an entry to the buffer (does not flush immediately)
func (l *FileStageLogger) LogStage(entry StageLog) error {
	l.entries = append(l.entries, entry)
	return nil
}

// Flush writes all accumulated entries to the writer
func (l *FileStageLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"workflow_run": map[string]any{
			"timestamp": time.Now(),
			"stages":    l.entries,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stage log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write stage log: %w", err)
	}

	l.entries = l.entries[:0]
	return nil
}

// NoOpStageLogger discards all log entries
type NoOpStageLogger struct{}

func NewNoOpStageLogger() *NoOpStageLogger {
	return &NoOpStageLogger{}
}

func (nop *NoOpStageLogger) LogStage(entry StageLog) error {
	return nil
}

// StdoutStageLogger logs each entry as a JSON line (for Lambda/CloudWatch)
type StdoutStageLogger struct {
	out io.Writer
}

func NewStdoutStageLogger() *StdoutStageLogger {
	return &StdoutStageLogger{out: os.Stdout}
}

func (l *StdoutStageLogger) LogStage(entry StageLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
