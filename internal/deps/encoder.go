package deps

import "strings"

// EncoderRequirements lists the binaries a sprite build shells out to. The
// audiosprite CLI resolves ffmpeg from PATH and is usually a Node script.
func EncoderRequirements(encoderBinary string) []Requirement {
	encoderBinary = strings.TrimSpace(encoderBinary)
	if encoderBinary == "" {
		encoderBinary = "audiosprite"
	}
	return []Requirement{
		{
			Name:        "audiosprite",
			Command:     encoderBinary,
			Description: "Encodes folders into audio sprites",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Used by audiosprite for decoding and encoding",
		},
		{
			Name:        "Node.js",
			Command:     "node",
			Description: "Runs the audiosprite script when installed from npm",
			Optional:    true,
		},
	}
}
