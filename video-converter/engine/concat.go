package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"blog_to_video/video-converter/utils"
)

var ErrNoInputs = errors.New("no input files provided")

// Concatenator joins segments with the concat demuxer without re-encoding
type Concatenator struct {
	runner  Runner
	tempDir string
	logger  zerolog.Logger
}

func NewConcatenator(runner Runner, tempDir string, logger zerolog.Logger) *Concatenator {
	return &Concatenator{
		runner:  runner,
		tempDir: tempDir,
		logger:  logger,
	}
}

// Concat merges inputs, in order, into output. Missing inputs are logged and
// left for ffmpeg to reject.
func (c *Concatenator) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	for i, input := range inputs {
		size, err := utils.GetFileSize(input)
		if err != nil {
			c.logger.Warn().Int("index", i).Int("total", len(inputs)).Str("input", input).Msg("concat input not found")
			continue
		}
		c.logger.Debug().Int("index", i).Str("input", input).Int64("bytes", size).Msg("concat input")
	}

	listFile, err := WriteManifest(c.tempDir, inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer func() {
		if err := os.Remove(listFile); err != nil {
			c.logger.Warn().Err(err).Str("file", listFile).Msg("failed to clean up list file")
		}
	}()

	c.logger.Info().
		Int("inputs", len(inputs)).
		Str("output", output).
		Msg("concatenating videos")

	cmd := &Command{Output: output}
	cmd.AddInput(listFile, "-f", "concat", "-safe", "0")
	cmd.AddOutputOptions("-c", "copy")

	if err := c.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to concatenate %d clips: %w", len(inputs), err)
	}
	return nil
}

// WriteManifest writes a concat demuxer list into dir with a unique name
func WriteManifest(dir string, inputs []string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	pattern := fmt.Sprintf("input_list_%d_*.txt", time.Now().UnixMilli())

	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			absPath = input
		}
		if _, err := fmt.Fprintf(file, "file '%s'\n", escapeManifestPath(absPath)); err != nil {
			os.Remove(file.Name())
			return "", err
		}
	}

	return file.Name(), nil
}

// escapeManifestPath quotes a path for a single-quoted concat list entry
func escapeManifestPath(p string) string {
	p = filepath.ToSlash(p)
	return strings.ReplaceAll(p, "'", `'\''`)
}
