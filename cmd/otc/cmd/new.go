package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

var newCmd = &cobra.Command{
	Use:   "new <file> [type...]",
	Short: "Create a circuit file",
	Long: `Create a circuit file, placing one component of each given type in the
default layout. Use "-" to write to stdout.

Types: resistor, capacitor, inductor, voltage_source, current_source, ground,
diode, transistor, lightbulb, switch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	doc := circuit.NewDocument()
	for _, name := range args[1:] {
		kind, err := circuit.ParseKind(name)
		if err != nil {
			return err
		}
		if _, err := doc.Place(kind); err != nil {
			return err
		}
	}
	if err := saveDocument(cmd, args[0], doc); err != nil {
		return err
	}
	if args[0] != "-" {
		n, _ := doc.Len()
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d components)\n", args[0], n)
	}
	return nil
}
