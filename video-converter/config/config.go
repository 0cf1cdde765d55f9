package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings for the converter service
type Config struct {
	Port      string
	OutputDir string
	LogLevel  string
	LogPretty bool

	FFmpegPath string
	FontPath   string

	SecondsPerCharacter float64
	TitleAsHeader       bool

	// Zero means derive from the host CPU count
	CutConcurrency   int
	SceneConcurrency int
	JobConcurrency   int
	JobTimeout       time.Duration

	MongoURI string
	MongoDB  string

	RenderConfigPath string
	Render           RenderSettings
}

// TextSettings overrides one text region's style
type TextSettings struct {
	FontSize  int    `json:"font_size,omitempty"`
	FontColor string `json:"font_color,omitempty"`
	X         string `json:"x,omitempty"`
	Y         string `json:"y,omitempty"`
}

// RenderSettings contains the video output settings
type RenderSettings struct {
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	FPS              int    `json:"fps,omitempty"`
	PixelFormat      string `json:"pixel_format,omitempty"`
	VideoCodec       string `json:"video_codec,omitempty"`
	UseHardwareAccel bool   `json:"use_gpu"`
	Container        string `json:"container,omitempty"`

	Header   *TextSettings `json:"header,omitempty"`
	Subtitle *TextSettings `json:"subtitle,omitempty"`
	Footer   *TextSettings `json:"footer,omitempty"`
}

// Smallest frame the renderer accepts
const (
	MinWidth  = 320
	MinHeight = 240
)

// Load reads .env (when present), the environment and the optional render
// settings file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:      GetEnv("PORT", "8088"),
		OutputDir: GetEnv("OUTPUT_DIR", "./output"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogPretty: GetEnvBool("LOG_PRETTY", true),

		FFmpegPath: GetEnv("FFMPEG_PATH", "ffmpeg"),
		FontPath:   GetEnv("FONT_PATH", ""),

		SecondsPerCharacter: GetEnvFloat("SECONDS_PER_CHARACTER", 0.2),
		TitleAsHeader:       GetEnvBool("TITLE_AS_HEADER", false),

		CutConcurrency:   GetEnvInt("CUT_CONCURRENCY", 0),
		SceneConcurrency: GetEnvInt("SCENE_CONCURRENCY", 0),
		JobConcurrency:   GetEnvInt("JOB_CONCURRENCY", 0),
		JobTimeout:       GetEnvDuration("JOB_TIMEOUT", 0),

		MongoURI: GetEnv("MONGODB_URI", ""),
		MongoDB:  GetEnv("MONGODB_DATABASE", "blog_to_video"),

		RenderConfigPath: GetEnv("RENDER_CONFIG", ""),
	}

	render := RenderSettings{
		Width:            GetEnvInt("VIDEO_WIDTH", 0),
		Height:           GetEnvInt("VIDEO_HEIGHT", 0),
		FPS:              GetEnvInt("VIDEO_FPS", 0),
		VideoCodec:       GetEnv("VIDEO_CODEC", ""),
		UseHardwareAccel: GetEnvBool("USE_GPU", false),
	}
	if cfg.RenderConfigPath != "" {
		fromFile, err := LoadRenderSettings(cfg.RenderConfigPath)
		if err != nil {
			return nil, err
		}
		render = mergeRenderSettings(*fromFile, render)
	}
	render.applyDefaults()
	cfg.Render = render

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRenderSettings loads the render settings from a JSON file
func LoadRenderSettings(path string) (*RenderSettings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open render config: %w", err)
	}
	defer file.Close()

	var settings RenderSettings
	if err := json.NewDecoder(file).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode render config %s: %w", path, err)
	}

	settings.applyDefaults()
	return &settings, nil
}

// Validate rejects settings ffmpeg cannot render
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.Render.Width < MinWidth || c.Render.Height < MinHeight {
		return fmt.Errorf("resolution must be at least %dx%d, got %dx%d",
			MinWidth, MinHeight, c.Render.Width, c.Render.Height)
	}
	if c.SecondsPerCharacter <= 0 {
		return fmt.Errorf("seconds per character must be positive, got %v", c.SecondsPerCharacter)
	}
	if c.CutConcurrency < 0 || c.SceneConcurrency < 0 || c.JobConcurrency < 0 {
		return errors.New("concurrency limits cannot be negative")
	}
	return nil
}

// applyDefaults fills unset values
func (s *RenderSettings) applyDefaults() {
	if s.Width <= 0 {
		s.Width = 1080
	}
	if s.Height <= 0 {
		s.Height = 1920
	}
	if s.FPS <= 0 {
		s.FPS = 30
	}
	if s.PixelFormat == "" {
		s.PixelFormat = "yuv420p"
	}
	if s.VideoCodec == "" {
		s.VideoCodec = "libx264"
	}
	if s.Container == "" {
		s.Container = ".mp4"
	}
	if s.Container[0] != '.' {
		s.Container = "." + s.Container
	}
}

// mergeRenderSettings lets explicitly set environment values win over the file
func mergeRenderSettings(file, env RenderSettings) RenderSettings {
	merged := file
	if env.Width > 0 {
		merged.Width = env.Width
	}
	if env.Height > 0 {
		merged.Height = env.Height
	}
	if env.FPS > 0 {
		merged.FPS = env.FPS
	}
	if env.VideoCodec != "" {
		merged.VideoCodec = env.VideoCodec
	}
	if env.UseHardwareAccel {
		merged.UseHardwareAccel = true
	}
	return merged
}
