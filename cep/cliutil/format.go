// Package cliutil renders completed matches and timeouts for terminal
// display. Grounded on datalog/executor/table_formatter.go's
// TableFormatter: same markdown-table-via-tablewriter shape, adapted
// from "relation of tuples" to "stage name -> ordered event list."
package cliutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-cep/cep/event"
)

// FormatMatches renders one match (or timeout) as a markdown table with
// columns "stage" and "events", one row per stage name in sorted order.
func FormatMatches(stages map[string][]event.Wrapper) string {
	if len(stages) == 0 {
		return "_empty match_"
	}

	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	alignment := []tw.Align{tw.AlignNone, tw.AlignNone}
	table := tablewriter.NewTable(&out,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"stage", "events"})

	for _, name := range names {
		events := stages[name]
		parts := make([]string, len(events))
		for i, w := range events {
			parts[i] = w.String()
		}
		table.Append([]string{name, strings.Join(parts, ", ")})
	}
	table.Render()

	out.WriteString(fmt.Sprintf("\n_%d stages_\n", len(names)))
	return out.String()
}
