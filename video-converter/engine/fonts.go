package engine

import "blog_to_video/video-converter/utils"

// fontCandidates lists fonts per GOOS, CJK-capable first
var fontCandidates = map[string][]string{
	"darwin": {
		"/System/Library/Fonts/AppleSDGothicNeo.ttc",
		"/System/Library/Fonts/Helvetica.ttc",
	},
	"windows": {
		`C:\Windows\Fonts\malgun.ttf`,
		`C:\Windows\Fonts\arial.ttf`,
	},
	"linux": {
		"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	},
}

// ResolveFontPath returns the configured font when it exists, otherwise the
// first installed candidate for goos. Empty means let ffmpeg pick its default.
func ResolveFontPath(configured, goos string) string {
	return resolveFontPath(configured, goos, utils.FileExists)
}

func resolveFontPath(configured, goos string, exists func(string) bool) string {
	if configured != "" && exists(configured) {
		return configured
	}
	for _, candidate := range fontCandidates[goos] {
		if exists(candidate) {
			return candidate
		}
	}
	return ""
}
