package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/pkg/cfg"
	"github.com/l3aro/go-jsflow/pkg/dataflow"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// LivenessEntry is one node of dataflow --liveness --json output.
type LivenessEntry struct {
	Kind     string   `json:"kind"`
	Location string   `json:"location"`
	LiveIn   []string `json:"live_in"`
	LiveOut  []string `json:"live_out"`
}

var dataflowCmd = &cobra.Command{
	Use:   "dataflow <file>",
	Short: "Show def-use chains or liveness",
	Long: `Runs a dataflow analysis over the control flow graph of a file.
By default prints reaching-definition def-use chains for local bindings;
with --liveness prints the bindings live on entry to and exit from each node.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		liveness, _ := cmd.Flags().GetBool("liveness")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")

		root, err := parseFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		g, err := buildGraph(root, settings.TraverseFunctions)
		if err != nil {
			return err
		}
		info := (&scope.Resolver{}).Resolve(root)
		out := cmd.OutOrStdout()

		if liveness {
			result, err := dataflow.ComputeLiveness(g, info, maxSteps)
			if err != nil {
				return fmt.Errorf("computing liveness: %w", err)
			}
			logger.Debug("liveness solved", "steps", result.Steps)
			entries := livenessEntries(g, result)
			if jsonOutput {
				return writeJSON(out, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-12s %-8s in=[%s] out=[%s]\n",
					e.Kind, e.Location, strings.Join(e.LiveIn, " "), strings.Join(e.LiveOut, " "))
			}
			return nil
		}

		result, err := dataflow.ComputeDefUseChains(g, info, maxSteps)
		if err != nil {
			return fmt.Errorf("computing def-use chains: %w", err)
		}
		logger.Debug("reaching definitions solved", "steps", result.Steps)
		if jsonOutput {
			return writeJSON(out, result.Edges)
		}
		fmt.Fprintf(out, "Data Flow Edges (%d):\n", len(result.Edges))
		for _, edge := range result.Edges {
			fmt.Fprintf(out, "  %s: def(line %d, col %d) -> use(line %d, col %d)\n",
				edge.VarName, edge.DefRef.Line, edge.DefRef.Column, edge.UseRef.Line, edge.UseRef.Column)
		}
		return nil
	},
}

func livenessEntries(g *cfg.Graph, result *dataflow.LivenessResult) []LivenessEntry {
	nodes := g.Sorted(true)
	entries := make([]LivenessEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, LivenessEntry{
			Kind:     n.String(),
			Location: location(n),
			LiveIn:   result.LiveIn[n].Names(),
			LiveOut:  result.LiveOut[n].Names(),
		})
	}
	return entries
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	dataflowCmd.Flags().Bool("liveness", false, "Compute live bindings instead of def-use chains")
	dataflowCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	dataflowCmd.Flags().Int("max-steps", dataflow.DefaultMaxSteps, "Abort after this many transfer evaluations")
}
