package nutrisense

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// RunLogger records every executed workflow step.
type RunLogger interface {
	LogStep(step StepLog) error
}

// NewRunLogFilePath returns a log path that embeds a cleaned-up model name so
// runs against different models are easy to tell apart.
func NewRunLogFilePath(model string) string {
	cleaned := strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model))
	return fmt.Sprintf("./logs/%d.%s.json", time.Now().Unix(), cleaned)
}

// StepLog is one executed step.
type StepLog struct {
	SessionID  string    `json:"session_id"`
	Sequence   int       `json:"sequence"`
	Step       string    `json:"step"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration_ms"`
	Next       string    `json:"next,omitempty"`
	Messages   []Message `json:"messages,omitempty"`
	Blocked    string    `json:"blocked,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// FileRunLogger buffers steps and writes them on Flush.
type FileRunLogger struct {
	mu     sync.Mutex
	steps  []StepLog
	writer io.Writer
}

func NewFileRunLogger(writer io.Writer) *FileRunLogger {
	return &FileRunLogger{
		steps:  make([]StepLog, 0),
		writer: writer,
	}
}

func (l *FileRunLogger) LogStep(step StepLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, step)
	return nil
}

// Flush writes all buffered steps and clears the buffer.
func (l *FileRunLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"workflow_runs": map[string]any{
			"timestamp": time.Now(),
			"steps":     l.steps,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}

	l.steps = l.steps[:0]
	return nil
}

type NoOpRunLogger struct{}

func NewNoOpRunLogger() *NoOpRunLogger {
	return &NoOpRunLogger{}
}

func (nop *NoOpRunLogger) LogStep(StepLog) error {
	return nil
}

// StdoutRunLogger writes each step as a JSON line (for Lambda/CloudWatch).
type StdoutRunLogger struct {
	out io.Writer
}

func NewStdoutRunLogger() *StdoutRunLogger {
	return &StdoutRunLogger{out: os.Stdout}
}

func (l *StdoutRunLogger) LogStep(step StepLog) error {
	data, err := json.Marshal(step)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
