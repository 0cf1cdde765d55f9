package engine

import (
	"testing"

	"blog_to_video/video-converter/config"
)

func TestOrientation(t *testing.T) {
	opts := DefaultRenderOptions()
	if opts.Orientation() != Landscape {
		t.Errorf("default orientation = %s", opts.Orientation())
	}
	if err := opts.SetResolution(1080, 1920); err != nil {
		t.Fatal(err)
	}
	if opts.Orientation() != Portrait {
		t.Errorf("1080x1920 orientation = %s", opts.Orientation())
	}
}

func TestSetResolutionRejectsTinyFrames(t *testing.T) {
	opts := DefaultRenderOptions()
	if err := opts.SetResolution(config.MinWidth-1, config.MinHeight); err == nil {
		t.Error("expected error for width below minimum")
	}
	if err := opts.SetResolution(config.MinWidth, config.MinHeight-1); err == nil {
		t.Error("expected error for height below minimum")
	}
	if opts.Resolution.Width != 1280 {
		t.Error("failed SetResolution must not change the resolution")
	}

	// the smallest frame config accepts is valid for the engine too
	if err := opts.SetResolution(config.MinWidth, config.MinHeight); err != nil {
		t.Errorf("SetResolution(%d, %d) = %v", config.MinWidth, config.MinHeight, err)
	}
}

func TestRegionStyles(t *testing.T) {
	opts := DefaultRenderOptions()
	if got := opts.TextStyle(RegionSubtitle).Position.Y; got != "h*3/4" {
		t.Errorf("subtitle y = %q", got)
	}
	if got := opts.TextStyle(RegionFooter).Anchor; got != AnchorBottom {
		t.Errorf("footer anchor = %q", got)
	}
	if got := opts.TextStyle(TextRegion("unknown")).FontSize; got != 56 {
		t.Errorf("fallback font size = %d", got)
	}
}

func TestRenderOptionsFromSettings(t *testing.T) {
	settings := config.RenderSettings{
		Width:            1080,
		Height:           1920,
		FPS:              24,
		VideoCodec:       "libx265",
		Container:        ".mov",
		UseHardwareAccel: true,
		Subtitle:         &config.TextSettings{FontSize: 64, FontColor: "yellow"},
		Footer:           &config.TextSettings{Y: "h-th-10"},
	}

	opts, err := RenderOptionsFromSettings(settings)
	if err != nil {
		t.Fatalf("RenderOptionsFromSettings() error = %v", err)
	}
	if opts.Orientation() != Portrait || opts.FPS != 24 || opts.VideoCodec != "libx265" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if !opts.HardwareAccel || opts.Container != ".mov" {
		t.Errorf("unexpected options: %+v", opts)
	}

	sub := opts.TextStyle(RegionSubtitle)
	if sub.FontSize != 64 || sub.FontColor != "yellow" || sub.Position.Y != "h*3/4" {
		t.Errorf("subtitle override = %+v", sub)
	}
	if got := opts.TextStyle(RegionFooter).Position.Y; got != "h-th-10" {
		t.Errorf("footer y = %q", got)
	}

	// defaults must stay untouched for the next caller
	if DefaultRenderOptions().TextStyle(RegionSubtitle).FontSize != 56 {
		t.Error("defaults were mutated")
	}

	if _, err := RenderOptionsFromSettings(config.RenderSettings{Width: 100, Height: 100}); err == nil {
		t.Error("expected error for tiny resolution")
	}
}

func TestResolveFontPath(t *testing.T) {
	installed := map[string]bool{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf": true,
		"/custom/font.ttf": true,
	}
	exists := func(p string) bool { return installed[p] }

	if got := resolveFontPath("/custom/font.ttf", "linux", exists); got != "/custom/font.ttf" {
		t.Errorf("configured font ignored: %q", got)
	}
	if got := resolveFontPath("/missing.ttf", "linux", exists); got != "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf" {
		t.Errorf("fallback = %q", got)
	}
	if got := resolveFontPath("", "plan9", exists); got != "" {
		t.Errorf("unknown platform = %q, want empty", got)
	}
}
