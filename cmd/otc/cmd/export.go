package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/export"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/simulate"
)

var (
	exportOutput string
	exportPNG    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the PDF report of a circuit",
	Long: `Write a PDF report with the circuit diagram, the summary and the
component readings. With --png only the diagram is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: input name with .pdf or .png)")
	exportCmd.Flags().BoolVar(&exportPNG, "png", false, "write only the diagram as PNG")
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ext := ".pdf"
	if exportPNG {
		ext = ".png"
	}
	out := exportOutput
	if out == "" {
		out = strings.TrimSuffix(args[0], ".json") + ext
	}

	diagram := export.NewDiagram()
	diagram.DPI = int(cfg.DiagramDPI)
	snap := doc.Snapshot()

	var buf bytes.Buffer
	if exportPNG {
		if err := diagram.WritePNG(&buf, snap); err != nil {
			return err
		}
	} else {
		report := export.NewPDFReport()
		report.Title = cfg.ReportTitle
		report.Diagram = diagram
		res, err := report.Write(&buf, snap, simulate.Summarize(snap))
		if err != nil {
			return err
		}
		if res.DiagramErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: diagram left out: %v\n", res.DiagramErr)
		}
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, buf.Len())
	return nil
}
