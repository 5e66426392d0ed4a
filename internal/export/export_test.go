package export

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		want    []string
		notWant []string
	}{
		{
			name:    "copy without audio",
			job:     Job{VideoPath: "tmp/v.mp4", OutputPath: "out/final.mp4"},
			want:    []string{"-i tmp/v.mp4 -map 0:v:0 -c:v copy -movflags +faststart out/final.mp4"},
			notWant: []string{"-shortest", "1:a:0"},
		},
		{
			name: "mjpeg intermediate with audio range",
			job: Job{
				VideoPath:     "tmp/v.avi",
				AudioPath:     "song.mp3",
				AudioStart:    12.5,
				AudioDuration: 30,
				OutputPath:    "final.mp4",
			},
			want: []string{
				"-ss 12.500 -t 30.000 -i song.mp3",
				"-map 0:v:0 -map 1:a:0 -c:v libx264",
				"-c:a aac -b:a 192k -shortest",
			},
			notWant: []string{"-c:v copy"},
		},
		{
			name:    "avi output keeps codec",
			job:     Job{VideoPath: "v.avi", OutputPath: "final.avi", AudioPath: "a.wav"},
			want:    []string{"-c:v copy", "-i a.wav"},
			notWant: []string{"-ss", "-t ", "faststart"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(Args(tt.job), " ")
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("args %q missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("args %q should not contain %q", got, w)
				}
			}
		})
	}
}

func TestReadProgress(t *testing.T) {
	stream := strings.Join([]string{
		"frame=10",
		"out_time_us=1000000",
		"progress=continue",
		"out_time_ms=2500000",
		"out_time_us=N/A",
		"garbage",
		"out_time_us=9000000",
		"progress=end",
	}, "\n")

	var got []float64
	if err := readProgress(strings.NewReader(stream), 4, func(p float64) { got = append(got, p) }); err != nil {
		t.Fatal(err)
	}
	want := []float64{0.25, 0.625, 1, 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
}

func TestExportRequiresPaths(t *testing.T) {
	if _, err := NewFFmpegStage(nil).Export(context.Background(), Job{}, nil); err == nil {
		t.Fatal("expected error for empty job")
	}
}
