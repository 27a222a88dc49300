package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	appui "github.com/OpenTraceLab/OpenTraceCircuit/internal/ui"
)

var uiCmd = &cobra.Command{
	Use:   "ui [file]",
	Short: "Launch the interactive editor",
	Long: `Launch the circuit editor window. The optional file is opened at
startup; otherwise the last saved circuit is reopened when it still exists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		opts := appui.Options{Config: cfg}
		if len(args) == 1 {
			opts.File = args[0]
		}
		return appui.Run(opts)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
