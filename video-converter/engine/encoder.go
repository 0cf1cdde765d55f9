package engine

import (
	"strings"

	"github.com/rs/zerolog"
)

// EncoderSettings is the codec and its tuning arguments
type EncoderSettings struct {
	Codec    string
	Args     []string
	Hardware bool

	// GlobalOptions go before the inputs, PostFilters at the end of the chain
	GlobalOptions []string
	PostFilters   []string
}

// hardwareCodecs maps GOOS to the platform's hardware H.264 encoder
var hardwareCodecs = map[string]string{
	"darwin":  "h264_videotoolbox",
	"windows": "h264_nvenc",
	"linux":   "h264_vaapi",
}

// SelectEncoder picks the encoder for the given platform. Hardware
// acceleration on a platform without a known encoder falls back to software.
func SelectEncoder(opts RenderOptions, goos string, logger zerolog.Logger) EncoderSettings {
	if opts.HardwareAccel {
		if codec, ok := hardwareCodecs[goos]; ok {
			logger.Info().Str("codec", codec).Str("os", goos).Msg("using hardware encoding")
			return hardwareEncoderSettings(codec)
		}
		logger.Warn().Str("os", goos).Msg("no hardware encoder for platform, falling back to software")
	}
	return softwareEncoderSettings(opts.VideoCodec)
}

func hardwareEncoderSettings(codec string) EncoderSettings {
	switch codec {
	case "h264_videotoolbox":
		return EncoderSettings{
			Codec:    codec,
			Hardware: true,
			Args:     []string{"-b:v", "6M", "-allow_sw", "1"},
		}
	case "h264_nvenc":
		return EncoderSettings{
			Codec:    codec,
			Hardware: true,
			Args: []string{
				"-preset", "p4",
				"-rc", "vbr",
				"-cq", "20",
				"-b:v", "6M",
				"-maxrate", "10M",
			},
		}
	case "h264_vaapi":
		return EncoderSettings{
			Codec:         codec,
			Hardware:      true,
			Args:          []string{"-qp", "20"},
			GlobalOptions: []string{"-vaapi_device", "/dev/dri/renderD128"},
			PostFilters:   []string{"format=nv12", "hwupload"},
		}
	}
	return softwareEncoderSettings("libx264")
}

func softwareEncoderSettings(codec string) EncoderSettings {
	if codec == "" {
		codec = "libx264"
	}
	switch codec {
	case "libx264":
		return EncoderSettings{Codec: codec, Args: []string{"-preset", "medium", "-crf", "21"}}
	case "libx265":
		return EncoderSettings{Codec: codec, Args: []string{"-preset", "medium", "-crf", "23"}}
	}
	return EncoderSettings{Codec: codec}
}

// requiresEvenDimensions reports whether the codec rejects odd frame sizes
func requiresEvenDimensions(codec string) bool {
	switch {
	case codec == "libx264", codec == "libx265":
		return true
	case strings.HasPrefix(codec, "h264_"), strings.HasPrefix(codec, "hevc_"):
		return true
	}
	return false
}
