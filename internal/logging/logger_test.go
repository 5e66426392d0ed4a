package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleLoggerTagAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleTo(&buf, false, "engine", true)

	log.Debug().Msg("hidden")
	log.Info().Int("photos", 3).Msg("planned")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %q", out)
	}
	if !strings.Contains(out, "[engine]") {
		t.Errorf("expected tag in output, got %q", out)
	}
	if !strings.Contains(out, "planned") || !strings.Contains(out, "photos=3") {
		t.Errorf("expected message and field, got %q", out)
	}
}

func TestNopDropsEverything(t *testing.T) {
	log := Nop()
	log.Error().Msg("nothing")
	child := log.Extend(log.With().Str("run", "x"))
	child.Info().Msg("still nothing")
}
