package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wbrown/janus-cep/cep/event"
)

func TestOutputFormatterFormatsEachKind(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(&buf)

	cases := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: Started, StateName: "s", Version: "1", Timestamp: 1}, "started"},
		{Event{Kind: Branched, StateName: "s", Version: "1.0", Timestamp: 2}, "branched"},
		{Event{Kind: Stopped, StateName: "s", Version: "1", Timestamp: 3}, "stopped"},
		{Event{Kind: TimedOut, StateName: "s", Version: "1", Timestamp: 4, StageMap: map[string][]event.Wrapper{"s": nil}}, "timed-out"},
		{Event{Kind: Matched, StateName: "e", Version: "2", Timestamp: 5, StageMap: map[string][]event.Wrapper{"s": nil, "e": nil}}, "matched"},
	}
	for _, c := range cases {
		line := f.Format(c.ev)
		if !strings.Contains(line, c.want) {
			t.Fatalf("Format(%+v) = %q, want substring %q", c.ev, line, c.want)
		}
	}
}

func TestOutputFormatterHandleWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(&buf)
	f.Handle(Event{Kind: Started, StateName: "s", Version: "1", Timestamp: 1})
	if buf.Len() == 0 {
		t.Fatal("expected Handle to write a line")
	}
}

func TestNewOutputFormatterDefaultsToStdoutWhenNil(t *testing.T) {
	f := NewOutputFormatter(nil)
	if f.writer == nil {
		t.Fatal("expected a non-nil default writer")
	}
}
