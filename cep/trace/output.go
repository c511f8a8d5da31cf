package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// OutputFormatter renders trace events as human-readable lines, with
// color support when writing to a terminal. Grounded on
// datalog/annotations.OutputFormatter: same useColor auto-detection,
// same "Handle writes one formatted line per event" shape.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter writing to w, auto-detecting
// color support the same way datalog/annotations does: only stdout and
// stderr are considered color-capable.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		useColor = fd == uintptr(1) || fd == uintptr(2)
	}
	return &OutputFormatter{useColor: useColor, writer: w}
}

// Handle implements Handler: format ev and print it.
func (f *OutputFormatter) Handle(ev Event) {
	fmt.Fprintln(f.writer, f.Format(ev))
}

// Format renders one trace event as a single line.
func (f *OutputFormatter) Format(ev Event) string {
	switch ev.Kind {
	case Started:
		return fmt.Sprintf("[%d] %s %s@%d", ev.Timestamp, f.colorize(ev.Kind.String(), color.FgCyan), ev.StateName, ev.Timestamp)
	case Branched:
		return fmt.Sprintf("[%d] %s %s (v%s)", ev.Timestamp, f.colorize(ev.Kind.String(), color.FgYellow), ev.StateName, ev.Version)
	case Stopped:
		return fmt.Sprintf("[%d] %s %s (v%s)", ev.Timestamp, f.colorize(ev.Kind.String(), color.FgRed), ev.StateName, ev.Version)
	case TimedOut:
		return fmt.Sprintf("[%d] %s %s (v%s, %d stages)", ev.Timestamp, f.colorize(ev.Kind.String(), color.FgYellow), ev.StateName, ev.Version, len(ev.StageMap))
	case Matched:
		return fmt.Sprintf("[%d] %s %s (v%s, %d stages)", ev.Timestamp, f.colorize(ev.Kind.String(), color.FgGreen), ev.StateName, ev.Version, len(ev.StageMap))
	default:
		return fmt.Sprintf("[%d] %s", ev.Timestamp, ev.Kind)
	}
}

func (f *OutputFormatter) colorize(text string, attr color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attr).Sprint(text)
}
