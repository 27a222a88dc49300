package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "otc",
	Short: "OpenTraceCircuit - circuit schematic editor",
	Long: `OpenTraceCircuit (otc) places, wires and summarizes small circuits.

Examples:
  otc ui divider.json                  # Edit a circuit in the GUI
  otc new divider.json resistor ground # Start a circuit from the command line
  otc run divider.otc -o divider.json  # Build a circuit from a script
  otc simulate divider.json            # Print the simulation summary
  otc netlist --format kicad d.json    # Print a KiCad style netlist
  otc export divider.json -o d.pdf     # Write the PDF report
  otc serve                            # Serve the editing API`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadDocument reads a circuit file.
func loadDocument(path string) (*circuit.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := circuit.NewDocument()
	if err := doc.Load(f); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	return doc, nil
}

// saveDocument writes a circuit file, or stdout when path is "-".
func saveDocument(cmd *cobra.Command, path string, doc *circuit.Document) error {
	if path == "-" {
		return doc.Save(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
