package cliutil

import (
	"strings"
	"testing"

	"github.com/wbrown/janus-cep/cep/event"
)

func TestFormatMatchesEmpty(t *testing.T) {
	got := FormatMatches(nil)
	if got != "_empty match_" {
		t.Fatalf("FormatMatches(nil) = %q, want %q", got, "_empty match_")
	}
}

func TestFormatMatchesHeaderAndRows(t *testing.T) {
	stages := map[string][]event.Wrapper{
		"end":   {event.New("b", 2)},
		"start": {event.New("a", 1)},
	}
	got := FormatMatches(stages)

	for _, want := range []string{"stage", "events", "start", "end"} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatMatches output missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(got, "_2 stages_") {
		t.Fatalf("FormatMatches output missing stage-count line:\n%s", got)
	}

	startIdx := strings.Index(got, "start")
	endIdx := strings.Index(got, "end")
	if startIdx == -1 || endIdx == -1 || endIdx > startIdx {
		t.Fatalf("expected stage names in sorted order (end before start), got:\n%s", got)
	}
}

func TestFormatMatchesJoinsMultipleEventsPerStage(t *testing.T) {
	stages := map[string][]event.Wrapper{
		"m": {event.New("a", 3), event.New("a", 4)},
	}
	got := FormatMatches(stages)
	if !strings.Contains(got, "a@3") || !strings.Contains(got, "a@4") {
		t.Fatalf("expected both events rendered, got:\n%s", got)
	}
}
