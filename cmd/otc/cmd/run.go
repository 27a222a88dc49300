package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/script"
)

var (
	runOutput string
	runBase   string
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Build a circuit from an editing script",
	Long: `Run an editing script and write the resulting circuit.

Script commands:
  place <type>
  move <id> <dx> <dy>
  rotate <id>
  value <id> "<text>"
  toggle <id>
  connect <comp>.<port> <comp>.<port>
  unwire <wire>
  delete <id>
  mode component|wire
  clear`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "-", "circuit file to write")
	runCmd.Flags().StringVar(&runBase, "base", "", "circuit file to start from")
}

func runScript(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	prog, err := script.Parse(f)
	if err != nil {
		return err
	}

	doc := circuit.NewDocument()
	if runBase != "" {
		if doc, err = loadDocument(runBase); err != nil {
			return err
		}
	}
	e := circuit.NewEditorFor(doc)
	if err := script.Run(e, prog); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return saveDocument(cmd, runOutput, doc)
}
