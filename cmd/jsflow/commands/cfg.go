package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/pkg/cfg"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <file>",
	Short: "Print the control flow graph of a file",
	Long: `Builds the control flow graph of a JavaScript file and prints it as
Graphviz DOT (default), JSON, or msgpack.

Examples:
  jsflow cfg app.js | dot -Tsvg > app.svg
  jsflow cfg app.js --format json
  jsflow cfg app.js --format msgpack -o app.cfg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		noFunctions, _ := cmd.Flags().GetBool("no-functions")
		output, _ := cmd.Flags().GetString("output")

		root, err := parseFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		g, err := buildGraph(root, settings.TraverseFunctions && !noFunctions)
		if err != nil {
			return err
		}

		var data []byte
		switch format {
		case "dot":
			data = []byte(cfg.Dot(root, g))
		case "json":
			if data, err = g.Snapshot().EncodeJSON(); err != nil {
				return err
			}
			data = append(data, '\n')
		case "msgpack":
			if data, err = g.Snapshot().EncodeMsgpack(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format: %s (use dot, json, or msgpack)", format)
		}

		if output != "" {
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			logger.Info("graph written", "path", output, "nodes", len(g.Nodes()))
			return nil
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	cfgCmd.Flags().StringP("format", "f", "dot", "Output format: dot, json, or msgpack")
	cfgCmd.Flags().Bool("no-functions", false, "Do not descend into nested functions")
	cfgCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}
