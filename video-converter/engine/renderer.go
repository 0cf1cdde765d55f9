package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"blog_to_video/video-converter/models"
)

// Renderer renders cuts and joins segments
type Renderer struct {
	options RenderOptions
	builder *CutCommandBuilder
	concat  *Concatenator
	runner  Runner
	logger  zerolog.Logger
}

// NewRenderer wires the builder and concatenator around one runner.
// goos selects the hardware encoder when options.HardwareAccel is set.
func NewRenderer(options RenderOptions, runner Runner, fontPath, tempDir, goos string, logger zerolog.Logger) *Renderer {
	encoder := SelectEncoder(options, goos, logger)

	return &Renderer{
		options: options,
		builder: NewCutCommandBuilder(options, encoder, fontPath, logger),
		concat:  NewConcatenator(runner, tempDir, logger),
		runner:  runner,
		logger:  logger,
	}
}

// Options returns the render options in use
func (r *Renderer) Options() RenderOptions {
	return r.options
}

// Extension is the container extension of rendered files, dot included
func (r *Renderer) Extension() string {
	if r.options.Container == "" {
		return ".mp4"
	}
	return r.options.Container
}

// RenderCut encodes one cut and returns the output path
func (r *Renderer) RenderCut(ctx context.Context, cut models.Cut, outputPath string) (string, error) {
	cmd, err := r.builder.Build(cut, outputPath)
	if err != nil {
		return "", err
	}

	r.logger.Debug().Str("cut", cut.ID).Str("command", cmd.String()).Msg("rendering cut")

	if err := r.runner.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("failed to render cut %s: %w", cut.ID, err)
	}
	return outputPath, nil
}

// Concat joins segments in order and returns the output path
func (r *Renderer) Concat(ctx context.Context, inputs []string, outputPath string) (string, error) {
	if err := r.concat.Concat(ctx, inputs, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}
