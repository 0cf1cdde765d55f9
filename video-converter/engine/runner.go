package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes a built command
type Runner interface {
	Run(ctx context.Context, cmd *Command) error
}

// EncoderError is returned when ffmpeg exits unsuccessfully
type EncoderError struct {
	ExitMessage string
	Stdout      string
	Stderr      string
	Err         error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("FFmpeg error: %s, output: %s", e.ExitMessage, tail(e.Stderr, 5))
}

func (e *EncoderError) Unwrap() error {
	return e.Err
}

// FFmpegRunner runs commands with the ffmpeg binary
type FFmpegRunner struct {
	binary string
	logger zerolog.Logger
}

func NewFFmpegRunner(binary string, logger zerolog.Logger) *FFmpegRunner {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegRunner{
		binary: binary,
		logger: logger,
	}
}

// Run executes the command, killing the process when ctx is done
func (r *FFmpegRunner) Run(ctx context.Context, cmd *Command) error {
	args := append([]string{"-hide_banner", "-loglevel", "error"}, cmd.Args()...)

	r.logger.Debug().
		Str("cmd", r.binary).
		Strs("args", args).
		Msg("executing ffmpeg")

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, r.binary, args...)
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		encErr := &EncoderError{
			ExitMessage: err.Error(),
			Stdout:      stdout.String(),
			Stderr:      stderr.String(),
			Err:         err,
		}
		r.logger.Error().
			Str("output", cmd.Output).
			Str("stderr", encErr.Stderr).
			Msg("ffmpeg failed")
		return encErr
	}

	r.logger.Debug().Str("output", cmd.Output).Msg("ffmpeg execution completed")
	return nil
}

// tail keeps the last n non-empty lines of s
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
