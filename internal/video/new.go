package video

import (
	"strings"

	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/system"
)

const EncoderMJPEG = "mjpeg"

// New returns the sink for encoder: "mjpeg" for the pure Go AVI writer, ""
// or "auto" for the best H.264 encoder of the local ffmpeg, anything else is
// passed to ffmpeg as -c:v. A zero quality selects the encoder default.
func New(encoder string, opts Options, quality int, log *logging.Logger) Sink {
	switch strings.ToLower(encoder) {
	case EncoderMJPEG:
		return NewMJPEGSink(opts, quality)
	case "", "auto":
		encoder = system.GetBestH264Encoder()
	}
	if quality == 0 {
		quality = system.DefaultQuality(encoder)
	}
	return NewFFmpegSink(opts, encoder, quality, log)
}

// Extension is the container file extension written by the encoder.
func Extension(encoder string) string {
	if strings.EqualFold(encoder, EncoderMJPEG) {
		return ".avi"
	}
	return ".mp4"
}
