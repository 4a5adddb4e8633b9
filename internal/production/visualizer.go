package production

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/comalice/fsmx/internal/primitives"
)

// DefaultVisualizer implements core.Visualizer.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the machine. current, if not
// empty, is highlighted. Transitions that stay are drawn as dashed self loops.
func (v *DefaultVisualizer) ExportDOT(config *primitives.MachineConfig, current string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `digraph %q {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
  "__start" [shape=point];
  "__start" -> %q;
`, config.ID, config.Initial)

	for _, id := range config.StateIDs() {
		style := ""
		if id == current {
			style = ` style="rounded,filled" fillcolor=lightgreen`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", id, stateLabel(config.States[id]), style)
	}

	for _, edge := range collectEdges(config) {
		attrs := fmt.Sprintf("label=%q", edge.Label)
		if edge.Stay {
			attrs += " style=dashed"
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", edge.From, edge.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the machine config to JSON.
func (v *DefaultVisualizer) ExportJSON(config *primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
	Stay  bool
}

// collectEdges collects all transitions, ordered by state then event.
func collectEdges(config *primitives.MachineConfig) []Edge {
	var edges []Edge
	for _, id := range config.StateIDs() {
		state := config.States[id]
		for _, event := range sortedEvents(state) {
			trans := state.On[event]
			edge := Edge{From: id, To: trans.Target, Label: event}
			if trans.Stays() {
				edge.To = id
				edge.Stay = true
			}
			if len(trans.Effects) > 0 {
				edge.Label += " / " + strings.Join(trans.Effects, ", ")
			}
			edges = append(edges, edge)
		}
	}
	return edges
}

func stateLabel(state *primitives.StateConfig) string {
	label := state.ID
	if len(state.Entry) > 0 {
		label += "\nentry / " + strings.Join(state.Entry, ", ")
	}
	if len(state.Exit) > 0 {
		label += "\nexit / " + strings.Join(state.Exit, ", ")
	}
	return label
}

func sortedEvents(state *primitives.StateConfig) []string {
	events := make([]string, 0, len(state.On))
	for event := range state.On {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}
