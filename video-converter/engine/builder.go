package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"blog_to_video/video-converter/models"
	"blog_to_video/video-converter/utils"
)

var ErrInvalidDuration = errors.New("cut duration must be positive")

// evenDimensionsFilter rounds odd frame sizes down to even ones
const evenDimensionsFilter = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

// CutCommandBuilder turns a cut into an ffmpeg command
type CutCommandBuilder struct {
	options  RenderOptions
	encoder  EncoderSettings
	fontPath string
	logger   zerolog.Logger

	// fileExists is swapped in tests
	fileExists func(string) bool
}

func NewCutCommandBuilder(options RenderOptions, encoder EncoderSettings, fontPath string, logger zerolog.Logger) *CutCommandBuilder {
	return &CutCommandBuilder{
		options:    options,
		encoder:    encoder,
		fontPath:   fontPath,
		logger:     logger,
		fileExists: utils.FileExists,
	}
}

// Build creates the command rendering cut into outputPath
func (b *CutCommandBuilder) Build(cut models.Cut, outputPath string) (*Command, error) {
	if cut.Duration <= 0 {
		return nil, fmt.Errorf("cut %s: %w", cut.ID, ErrInvalidDuration)
	}

	cmd := &Command{Output: outputPath}
	cmd.GlobalOptions = append(cmd.GlobalOptions, b.encoder.GlobalOptions...)

	duration := formatSeconds(cut.Duration)
	if b.hasImage(cut.ImageURL) {
		b.withImageInput(cmd, cut.ImageURL, duration)
	} else {
		if cut.ImageURL != "" {
			b.logger.Warn().Str("cut", cut.ID).Str("image", cut.ImageURL).Msg("image not found, using black background")
		}
		b.withBlackBackground(cmd, duration)
	}

	b.withResizeFilter(cmd)
	b.withTextFilters(cmd, cut)
	cmd.AddFilter(b.encoder.PostFilters...)
	b.withOutputOptions(cmd)

	return cmd, nil
}

func (b *CutCommandBuilder) hasImage(src string) bool {
	if src == "" {
		return false
	}
	return utils.IsRemoteURL(src) || b.fileExists(src)
}

func (b *CutCommandBuilder) withImageInput(cmd *Command, src, duration string) {
	if utils.IsGIF(src) {
		// keep the gif's own frame timing and loop it until -t
		cmd.AddInput(src, "-ignore_loop", "0")
	} else {
		cmd.AddInput(src, "-loop", "1")
	}
	cmd.AddOutputOptions("-t", duration)
}

func (b *CutCommandBuilder) withBlackBackground(cmd *Command, duration string) {
	res := b.options.Resolution
	source := fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", res.Width, res.Height, b.options.FPS, duration)
	cmd.AddInput(source, "-f", "lavfi")
}

func (b *CutCommandBuilder) withResizeFilter(cmd *Command) {
	w, h := b.options.Resolution.Width, b.options.Resolution.Height
	cmd.AddFilter(
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
		"setsar=1",
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black", w, h),
	)
	if requiresEvenDimensions(b.encoder.Codec) {
		cmd.AddFilter(evenDimensionsFilter)
	}
}

func (b *CutCommandBuilder) withTextFilters(cmd *Command, cut models.Cut) {
	texts := map[TextRegion]string{
		RegionHeader:   cut.Header,
		RegionSubtitle: cut.Subtitle,
		RegionFooter:   cut.Footer,
	}
	for _, region := range Regions {
		text := texts[region]
		if text == "" {
			continue
		}
		layout := NewTextLayout(b.options.TextStyle(region), b.options.Resolution.Width)
		cmd.AddFilter(layout.FilterString(b.fontPath, text))
	}
}

func (b *CutCommandBuilder) withOutputOptions(cmd *Command) {
	cmd.AddOutputOptions("-r", strconv.Itoa(b.options.FPS))
	if len(b.encoder.PostFilters) == 0 && b.options.PixelFormat != "" {
		cmd.AddOutputOptions("-pix_fmt", b.options.PixelFormat)
	}
	cmd.AddOutputOptions("-c:v", b.encoder.Codec)
	cmd.AddOutputOptions(b.encoder.Args...)
	cmd.AddOutputOptions("-an")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
