package command

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrTranscriptFlushed is returned when a transcript is written a second time.
var ErrTranscriptFlushed = errors.New("transcript already flushed")

// Transcript is the ordered record of every command executed during a run.
//
// It is not safe for concurrent use; a run executes its stages one at a time.
type Transcript struct {
	lines   []string
	flushed bool
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Record appends the displayed form of cmd, followed by annotation, and
// returns the recorded line.
func (t *Transcript) Record(cmd Command, aliases map[string]string, annotation string) string {
	line := cmd.Display(aliases) + annotation
	t.lines = append(t.lines, line)
	return line
}

// Lines returns a copy of the recorded lines in invocation order.
func (t *Transcript) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Len reports how many commands have been recorded.
func (t *Transcript) Len() int {
	return len(t.lines)
}

// String returns the transcript as newline-terminated lines.
func (t *Transcript) String() string {
	var b strings.Builder
	for _, line := range t.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile flushes the transcript to path. It may succeed only once.
func (t *Transcript) WriteFile(path string) error {
	if t.flushed {
		return ErrTranscriptFlushed
	}
	if err := os.WriteFile(path, []byte(t.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	t.flushed = true
	return nil
}
