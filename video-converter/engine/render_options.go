package engine

import (
	"fmt"

	"blog_to_video/video-converter/config"
)

// Orientation is derived from the resolution
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// TextRegion names one of the three text slots of a cut
type TextRegion string

const (
	RegionHeader   TextRegion = "header"
	RegionSubtitle TextRegion = "subtitle"
	RegionFooter   TextRegion = "footer"
)

// Regions lists text regions in overlay order
var Regions = []TextRegion{RegionHeader, RegionSubtitle, RegionFooter}

// Anchor decides which way multi-line text grows from its y position
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

const DefaultLineSpacing = 1.2

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type BoxStyle struct {
	Enabled     bool
	Color       string
	BorderWidth int
}

type ShadowStyle struct {
	Enabled bool
	X       int
	Y       int
	Color   string
}

// Position holds ffmpeg drawtext expressions
type Position struct {
	X string
	Y string
}

// WrapStyle controls automatic line breaking.
// MaxLineWidth <= 1 is a fraction of the video width, above 1 it is pixels.
type WrapStyle struct {
	Enabled      bool
	MaxLineWidth float64
	LineSpacing  float64
}

// TextStyle is the drawtext styling of one region
type TextStyle struct {
	FontSize  int
	FontColor string
	Box       BoxStyle
	Shadow    ShadowStyle
	Position  Position
	Anchor    Anchor
	Wrap      WrapStyle
}

// DefaultTextStyle returns the caption style used for the subtitle region
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:  56,
		FontColor: "white",
		Box: BoxStyle{
			Enabled:     true,
			Color:       "black@0.5",
			BorderWidth: 5,
		},
		Shadow: ShadowStyle{
			Enabled: true,
			X:       2,
			Y:       2,
			Color:   "black@0.3",
		},
		Position: Position{
			X: "(w-text_w)/2",
			Y: "h*3/4",
		},
		Anchor: AnchorTop,
		Wrap: WrapStyle{
			Enabled:      true,
			MaxLineWidth: 0.8,
			LineSpacing:  DefaultLineSpacing,
		},
	}
}

func defaultRegionStyles() map[TextRegion]TextStyle {
	header := DefaultTextStyle()
	header.Position.Y = "h/12"

	footer := DefaultTextStyle()
	footer.FontSize = 40
	footer.Position.Y = "h-th-50"
	footer.Anchor = AnchorBottom

	return map[TextRegion]TextStyle{
		RegionHeader:   header,
		RegionSubtitle: DefaultTextStyle(),
		RegionFooter:   footer,
	}
}

// RenderOptions holds everything needed to encode one segment
type RenderOptions struct {
	FPS           int
	PixelFormat   string
	VideoCodec    string
	Resolution    Resolution
	HardwareAccel bool
	Container     string
	TextStyles    map[TextRegion]TextStyle
}

// DefaultRenderOptions returns 30fps yuv420p libx264 landscape 1280x720
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		FPS:         30,
		PixelFormat: "yuv420p",
		VideoCodec:  "libx264",
		Resolution:  Resolution{Width: 1280, Height: 720},
		Container:   ".mp4",
		TextStyles:  defaultRegionStyles(),
	}
}

// Orientation is landscape when the frame is wider than tall
func (o RenderOptions) Orientation() Orientation {
	if o.Resolution.Width > o.Resolution.Height {
		return Landscape
	}
	return Portrait
}

// SetResolution changes the frame size, rejecting sizes below 320x240
func (o *RenderOptions) SetResolution(width, height int) error {
	if width < config.MinWidth || height < config.MinHeight {
		return fmt.Errorf("resolution must be at least %dx%d, got %dx%d", config.MinWidth, config.MinHeight, width, height)
	}
	o.Resolution = Resolution{Width: width, Height: height}
	return nil
}

// TextStyle returns the style of a region, falling back to the caption style
func (o RenderOptions) TextStyle(region TextRegion) TextStyle {
	if style, ok := o.TextStyles[region]; ok {
		return style
	}
	return DefaultTextStyle()
}

// SetTextStyle replaces the style of one region
func (o *RenderOptions) SetTextStyle(region TextRegion, style TextStyle) {
	if o.TextStyles == nil {
		o.TextStyles = defaultRegionStyles()
	}
	o.TextStyles[region] = style
}

// RenderOptionsFromSettings applies loaded settings on top of the defaults
func RenderOptionsFromSettings(s config.RenderSettings) (RenderOptions, error) {
	opts := DefaultRenderOptions()
	if s.FPS > 0 {
		opts.FPS = s.FPS
	}
	if s.PixelFormat != "" {
		opts.PixelFormat = s.PixelFormat
	}
	if s.VideoCodec != "" {
		opts.VideoCodec = s.VideoCodec
	}
	if s.Container != "" {
		opts.Container = s.Container
	}
	opts.HardwareAccel = s.UseHardwareAccel

	if s.Width > 0 || s.Height > 0 {
		if err := opts.SetResolution(s.Width, s.Height); err != nil {
			return opts, err
		}
	}

	overrides := map[TextRegion]*config.TextSettings{
		RegionHeader:   s.Header,
		RegionSubtitle: s.Subtitle,
		RegionFooter:   s.Footer,
	}
	for region, o := range overrides {
		if o == nil {
			continue
		}
		style := opts.TextStyle(region)
		if o.FontSize > 0 {
			style.FontSize = o.FontSize
		}
		if o.FontColor != "" {
			style.FontColor = o.FontColor
		}
		if o.X != "" {
			style.Position.X = o.X
		}
		if o.Y != "" {
			style.Position.Y = o.Y
		}
		opts.SetTextStyle(region, style)
	}
	return opts, nil
}
