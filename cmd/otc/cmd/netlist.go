package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/netlist"
)

var netlistFormat string

var netlistCmd = &cobra.Command{
	Use:   "netlist <file>",
	Short: "Print the netlist of a circuit",
	Long: `Group connected ports into nets and print them.

Formats:
  json   - nets, parts and unconnected ports as JSON
  kicad  - KiCad style S-expression netlist`,
	Args: cobra.ExactArgs(1),
	RunE: runNetlist,
}

func init() {
	rootCmd.AddCommand(netlistCmd)
	netlistCmd.Flags().StringVarP(&netlistFormat, "format", "f", "json", "output format (json, kicad)")
}

func runNetlist(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	nl := netlist.Build(doc.Snapshot())
	out := cmd.OutOrStdout()

	switch netlistFormat {
	case "json":
		data, err := nl.ExportJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "kicad":
		text, err := nl.ExportSExpr(filepath.Base(args[0]))
		if err != nil {
			return err
		}
		if verbose {
			st, err := netlist.Validate(text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "validated %d expressions, %d leaves\n", st.Expressions, st.Leaves)
		}
		fmt.Fprint(out, text)
	default:
		return fmt.Errorf("unknown format %q (want json or kicad)", netlistFormat)
	}
	return nil
}
