// Package export muxes the silent slideshow video with an optional audio
// track into the final file.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/system"
)

// Job describes one export. AudioPath is optional; AudioDuration <= 0 means
// "until the end of the audio". Duration is the video length in seconds and
// drives progress reporting.
type Job struct {
	VideoPath     string
	AudioPath     string
	AudioStart    float64
	AudioDuration float64
	OutputPath    string
	Duration      float64
}

// Stage turns a Job into the final file and returns its path. onProgress
// receives values in [0,1] and may be nil.
type Stage interface {
	Export(ctx context.Context, job Job, onProgress func(float64)) (string, error)
}

// FFmpegStage runs ffmpeg and follows its -progress output.
type FFmpegStage struct {
	Binary string
	Log    *logging.Logger
}

func NewFFmpegStage(log *logging.Logger) *FFmpegStage {
	if log == nil {
		log = logging.Nop()
	}
	return &FFmpegStage{Binary: "ffmpeg", Log: log}
}

func (s *FFmpegStage) Export(ctx context.Context, job Job, onProgress func(float64)) (string, error) {
	if job.VideoPath == "" || job.OutputPath == "" {
		return "", fmt.Errorf("export needs video and output paths")
	}
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	if dir := filepath.Dir(job.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	args := Args(job)
	s.Log.Debug().Strs("args", args).Msg("export")

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("ffmpeg start error: %w", err)
	}

	stderr := system.NewTail(8 << 10)
	var g errgroup.Group
	g.Go(func() error {
		return readProgress(stdout, job.Duration, onProgress)
	})
	g.Go(func() error {
		_, err := io.Copy(stderr, stderrPipe)
		return err
	})
	readErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		os.Remove(job.OutputPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg export error: %w%s", err, stderr.Suffix())
	}
	if readErr != nil {
		s.Log.Debug().Err(readErr).Msg("progress stream")
	}
	onProgress(1)
	return job.OutputPath, nil
}

// Args builds the ffmpeg command line for job.
func Args(job Job) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-progress", "pipe:1",
		"-nostats",
		"-i", job.VideoPath,
	}

	hasAudio := job.AudioPath != ""
	if hasAudio {
		if job.AudioStart > 0 {
			args = append(args, "-ss", formatSeconds(job.AudioStart))
		}
		if job.AudioDuration > 0 {
			args = append(args, "-t", formatSeconds(job.AudioDuration))
		}
		args = append(args, "-i", job.AudioPath)
	}

	args = append(args, "-map", "0:v:0")
	if hasAudio {
		args = append(args, "-map", "1:a:0")
	}

	if needsReencode(job.VideoPath, job.OutputPath) {
		args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p", "-crf", "23", "-preset", "medium")
	} else {
		args = append(args, "-c:v", "copy")
	}

	if hasAudio {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest")
	}
	if ext := strings.ToLower(filepath.Ext(job.OutputPath)); ext == ".mp4" || ext == ".mov" || ext == ".m4v" {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, job.OutputPath)
}

// needsReencode reports whether the intermediate codec cannot be stream
// copied into the output container (MJPEG AVI into MP4/MOV).
func needsReencode(in, out string) bool {
	inExt := strings.ToLower(filepath.Ext(in))
	outExt := strings.ToLower(filepath.Ext(out))
	return inExt == ".avi" && outExt != ".avi"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// readProgress parses ffmpeg's key=value progress stream. out_time_us and
// out_time_ms both carry microseconds.
func readProgress(r io.Reader, duration float64, onProgress func(float64)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 || duration <= 0 {
				continue
			}
			onProgress(min(1, float64(us)/1e6/duration))
		case "progress":
			if value == "end" {
				onProgress(1)
			}
		}
	}
	return sc.Err()
}
