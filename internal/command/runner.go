package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"
)

// Invocation describes one run of an external tool.
type Invocation struct {
	Command Command

	// Stdout and Stderr receive the process output. They are owned by the
	// caller, which opens and closes them. Nil discards the stream.
	Stdout io.Writer
	Stderr io.Writer

	// Annotation is appended to the displayed command in the transcript,
	// typically an explicit redirection such as " > inputPolygon.txt".
	Annotation string
}

// Runner executes invocations synchronously in a fixed working directory and
// records each one in its transcript.
type Runner struct {
	dir        string
	aliases    map[string]string
	transcript *Transcript
	logger     *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithAliases overrides the executable display aliases.
func WithAliases(aliases map[string]string) Option {
	return func(r *Runner) { r.aliases = aliases }
}

// WithLogger sets the logger used for per-invocation diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner that executes in dir and appends to transcript.
func NewRunner(dir string, transcript *Transcript, opts ...Option) *Runner {
	r := &Runner{
		dir:        dir,
		aliases:    DefaultAliases,
		transcript: transcript,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transcript returns the accumulator this runner records into.
func (r *Runner) Transcript() *Transcript {
	return r.transcript
}

// Run executes inv, waits for it to exit, records it and returns the
// reproducible command line.
//
// A non-zero exit status is logged and otherwise ignored. An error is
// returned only when the process cannot be started or ctx is cancelled while
// it runs; in both cases nothing is recorded.
func (r *Runner) Run(ctx context.Context, inv Invocation) (string, error) {
	if inv.Command.Name == "" {
		return "", fmt.Errorf("command name is empty")
	}

	argv := inv.Command.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.dir
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr

	r.logger.Debug("running external tool",
		zap.Strings("argv", argv),
		zap.String("dir", r.dir))

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("execution cancelled: %w", ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to start %s: %w", inv.Command.Name, err)
		}
		r.logger.Warn("external tool exited with non-zero status",
			zap.String("tool", inv.Command.Name),
			zap.Int("exit_code", exitErr.ExitCode()))
	}

	line := r.transcript.Record(inv.Command, r.aliases, inv.Annotation)
	return line, nil
}
