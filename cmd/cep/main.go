// Command cep is a small driver around the cep engine: it compiles a
// pattern described in a JSON file, feeds it a JSON event file (or
// interactive stdin lines), and prints matches and timeouts.
// Grounded on cmd/datalog/main.go's flag-based driver shape (db path /
// -i interactive mode / -query one-shot mode), adapted from "run a
// Datalog query against a database" to "run a pattern against an
// event stream."
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/wbrown/janus-cep/cep/cliutil"
	"github.com/wbrown/janus-cep/cep/compiler"
	"github.com/wbrown/janus-cep/cep/cond"
	"github.com/wbrown/janus-cep/cep/event"
	"github.com/wbrown/janus-cep/cep/pattern"
	"github.com/wbrown/janus-cep/cep/runtime"
	"github.com/wbrown/janus-cep/cep/trace"
)

// namedEvent is the CLI's event payload: a single string name, matched
// against each stage's "match" field by equality.
type namedEvent struct {
	Name string `json:"name"`
}

// stageSpec is the JSON shape of one pattern.Stage, as read from a
// -pattern file.
type stageSpec struct {
	Name            string `json:"name"`
	Match           string `json:"match"`
	Continuity      string `json:"continuity,omitempty"`      // strict|followedBy|followedByAny (default strict)
	Quantifier      string `json:"quantifier,omitempty"`      // single|times|oneOrMore|optional|oneOrMoreOptional (default single)
	Times           int    `json:"times,omitempty"`           // required when quantifier == times
	InnerContinuity string `json:"innerContinuity,omitempty"` // strict|followedByAny (any other value, followedBy included, leaves it strict)
}

// patternSpec is the JSON shape of a whole -pattern file.
type patternSpec struct {
	Stages []stageSpec `json:"stages"`
	Within int64       `json:"within,omitempty"` // <=0 means no window
}

// eventSpec is the JSON shape of one entry in a -events file.
type eventSpec struct {
	Name string `json:"name"`
	TS   int64  `json:"ts"`
}

func main() {
	var patternPath, eventsPath, demo string
	var within int64
	var handleTimeouts bool
	var verbose bool

	flag.StringVar(&patternPath, "pattern", "", "path to a JSON pattern spec file")
	flag.StringVar(&eventsPath, "events", "", "path to a JSON event list file")
	flag.Int64Var(&within, "within", -1, "window duration override (ignored if the pattern file sets one)")
	flag.BoolVar(&handleTimeouts, "timeouts", false, "emit timed-out partial matches")
	flag.StringVar(&demo, "demo", "", "run a built-in demo scenario instead of reading files (followedby|followedbyany|strict|window|oneormore|zeroormore)")
	flag.BoolVar(&verbose, "verbose", false, "print a trace line for every computation lifecycle event")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compile a pattern and run it against an event stream.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -demo followedby\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pattern pat.json -events events.json -timeouts\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pattern pat.json   # interactive mode: type \"name ts\" per line\n", os.Args[0])
	}
	flag.Parse()

	var chain *pattern.Chain
	var err error
	var events []event.Wrapper

	if demo != "" {
		chain, events, handleTimeouts, err = builtinDemo(demo)
	} else {
		if patternPath == "" {
			flag.Usage()
			os.Exit(2)
		}
		chain, err = loadPattern(patternPath, within)
	}
	if err != nil {
		log.Fatalf("pattern error: %v", err)
	}

	auto, err := compiler.Compile(chain, handleTimeouts)
	if err != nil {
		log.Fatalf("compile error: %v", err)
	}

	opts := runtime.Options{}
	if verbose {
		formatter := trace.NewOutputFormatter(os.Stderr)
		opts.Trace = formatter.Handle
	}
	r := runtime.New(auto, opts)

	if demo != "" {
		runEvents(r, events)
		return
	}
	if eventsPath != "" {
		events, err = loadEvents(eventsPath)
		if err != nil {
			log.Fatalf("events error: %v", err)
		}
		runEvents(r, events)
		return
	}
	runInteractive(r)
}

func continuity(s string) pattern.Continuity {
	switch s {
	case "followedBy":
		return pattern.SkipTillNext
	case "followedByAny":
		return pattern.SkipTillAny
	default:
		return pattern.Strict
	}
}

func loadPattern(path string, withinOverride int64) (*pattern.Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var spec patternSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(spec.Stages) == 0 {
		return nil, fmt.Errorf("%s: no stages", path)
	}

	first := spec.Stages[0]
	b := pattern.Begin(first.Name)
	if first.Match != "" {
		b = b.Where(matchCond(first.Match))
	}
	applyQuantifier(b, first)

	for _, s := range spec.Stages[1:] {
		switch continuity(s.Continuity) {
		case pattern.SkipTillNext:
			b = b.FollowedBy(s.Name)
		case pattern.SkipTillAny:
			b = b.FollowedByAny(s.Name)
		default:
			b = b.Next(s.Name)
		}
		if s.Match != "" {
			b = b.Where(matchCond(s.Match))
		}
		applyQuantifier(b, s)
	}

	window := spec.Within
	if window <= 0 {
		window = withinOverride
	}
	if window >= 0 {
		b = b.Within(window)
	}
	return b.Build()
}

func applyQuantifier(b *pattern.Builder, s stageSpec) {
	switch s.Quantifier {
	case "times":
		b.Times(s.Times)
	case "oneOrMore":
		b.OneOrMore()
	case "optional":
		b.Optional()
	case "oneOrMoreOptional":
		b.OneOrMore().Optional()
	}
	switch s.InnerContinuity {
	case "followedByAny":
		b.AllowCombinations()
	case "strict":
		b.Consecutive()
	}
}

func matchCond(want string) cond.Condition {
	return cond.Simple(func(w event.Wrapper) bool {
		e, ok := w.Event.(namedEvent)
		return ok && e.Name == want
	})
}

func loadEvents(path string) ([]event.Wrapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var specs []eventSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make([]event.Wrapper, len(specs))
	for i, s := range specs {
		out[i] = event.New(namedEvent{Name: s.Name}, s.TS)
	}
	return out, nil
}

func runEvents(r *runtime.Runtime, events []event.Wrapper) {
	for _, w := range events {
		matches, timeouts, err := r.Process(w)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error processing %v: %v\n", w, err)
			continue
		}
		printResults(matches, timeouts)
	}
}

func runInteractive(r *runtime.Runtime) {
	fmt.Println("=== cep interactive mode ===")
	fmt.Println("Enter \"name timestamp\" per line (e.g. \"start 1\"), or .exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == ".exit" || line == "" {
			if line == ".exit" {
				return
			}
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			fmt.Println("expected: <name> <timestamp>")
			continue
		}
		ts, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			fmt.Printf("bad timestamp %q: %v\n", parts[1], err)
			continue
		}
		w := event.New(namedEvent{Name: parts[0]}, ts)
		matches, timeouts, err := r.Process(w)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResults(matches, timeouts)
	}
}

func printResults(matches []runtime.Match, timeouts []runtime.Timeout) {
	for _, m := range matches {
		fmt.Println(color.GreenString("match:"))
		fmt.Print(cliutil.FormatMatches(m.StageMap()))
	}
	for _, t := range timeouts {
		fmt.Println(color.YellowString("timeout:"))
		fmt.Print(cliutil.FormatMatches(t.StageMap()))
	}
}
