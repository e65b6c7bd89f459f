package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order <file>",
	Short: "List CFG nodes in priority order",
	Long: `Prints every CFG node of a file in the order a dataflow worklist
would visit it: forward priority order by default, or its reverse.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backward, _ := cmd.Flags().GetBool("backward")

		root, err := parseFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		g, err := buildGraph(root, settings.TraverseFunctions)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, n := range g.Sorted(!backward) {
			fmt.Fprintf(out, "%4d  %-12s %s\n", g.Priority(n), n, location(n))
		}
		return nil
	},
}

func init() {
	orderCmd.Flags().Bool("backward", false, "Use the order of a backward analysis")
}
