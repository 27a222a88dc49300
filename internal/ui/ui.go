package ui

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
)

// Run launches the editor window and blocks until it closes. It never
// returns on platforms where app.Main does not return.
func Run(opts Options) error {
	go func() {
		w := new(app.Window)
		w.Option(app.Title("OpenTraceCircuit"), app.Size(unit.Dp(1360), unit.Dp(860)))
		ui := New(w, opts)
		if err := ui.Run(); err != nil {
			log.Printf("ui: %v", err)
		}
		os.Exit(0)
	}()

	app.Main()
	return nil
}
