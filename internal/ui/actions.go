package ui

import (
	"bytes"
	"io"
	"os"

	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"

	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

func (a *App) handleActions(gtx layout.Context) {
	for i := range a.paletteBtn {
		if a.paletteBtn[i].Clicked(gtx) {
			t := a.library[i]
			c, err := a.editor.Place(t.Kind)
			if err != nil {
				a.fail("place", err)
				continue
			}
			a.Logf("[INFO] Placed %s %s at (%.0f, %.0f)", t.Name, c.ID, c.Position.X, c.Position.Y)
		}
	}

	if a.openBtn.Clicked(gtx) {
		a.openFile()
	}
	if a.saveBtn.Clicked(gtx) {
		a.saveFile()
	}
	if a.exportBtn.Clicked(gtx) {
		a.exportPDF()
	}
	if a.rotateBtn.Clicked(gtx) {
		a.fail("rotate", a.editor.RotateSelected())
	}
	if a.deleteBtn.Clicked(gtx) {
		a.deleteSelected()
	}
	if a.clearBtn.Clicked(gtx) {
		a.editor.Clear()
		a.report = nil
		a.editingID = ""
		a.Logf("[INFO] Circuit cleared")
	}
	if a.simulateBtn.Clicked(gtx) {
		a.runSimulation()
	}
	if a.fitBtn.Clicked(gtx) {
		a.fitPending = true
	}
	if a.themeBtn.Clicked(gtx) {
		a.setDarkMode(!a.darkMode)
	}
	if a.modeBtn.Clicked(gtx) {
		a.modeMenu.ToggleVisibility(gtx)
	}

	a.handlePropertyActions(gtx)
}

func (a *App) handleKeys(gtx layout.Context) {
	filters := []key.Filter{
		{Name: key.NameDeleteBackward},
		{Name: key.NameDeleteForward},
		{Name: key.NameEscape},
		{Name: "R"},
		{Name: "W"},
		{Name: "C"},
		{Name: "F"},
		{Name: "O", Required: key.ModShortcut},
		{Name: "S", Required: key.ModShortcut},
		{Name: "E", Required: key.ModShortcut},
	}
	for _, f := range filters {
		for {
			ev, ok := gtx.Event(f)
			if !ok {
				break
			}
			ke, ok := ev.(key.Event)
			if !ok || ke.State != key.Press {
				continue
			}
			a.onKey(ke)
		}
	}
}

func (a *App) onKey(ke key.Event) {
	shortcut := ke.Modifiers.Contain(key.ModShortcut)
	switch {
	case ke.Name == key.NameDeleteBackward, ke.Name == key.NameDeleteForward:
		a.deleteSelected()
	case ke.Name == key.NameEscape:
		a.editor.PointerUpCanvas()
		a.editor.CloseProperties()
	case ke.Name == "R" && !shortcut:
		a.fail("rotate", a.editor.RotateSelected())
	case ke.Name == "W" && !shortcut:
		a.setMode(circuit.ModeWire)
	case ke.Name == "C" && !shortcut:
		a.setMode(circuit.ModeComponent)
	case ke.Name == "F" && !shortcut:
		a.fitPending = true
	case ke.Name == "O":
		a.openFile()
	case ke.Name == "S":
		a.saveFile()
	case ke.Name == "E":
		a.exportPDF()
	}
	a.invalidate()
}

func (a *App) setMode(m circuit.Mode) {
	if a.editor.Mode() == m {
		return
	}
	a.editor.SetMode(m)
	a.Logf("[INFO] %s mode", m)
}

func (a *App) deleteSelected() {
	id, ok := a.editor.Selected()
	if !ok {
		return
	}
	if err := a.editor.DeleteSelected(); err != nil {
		a.fail("delete", err)
		return
	}
	if a.editingID == id {
		a.editingID = ""
	}
	a.Logf("[INFO] Deleted %s", id)
}

func (a *App) runSimulation() {
	rep := a.sim.Summarize(a.editor.Document().Snapshot())
	a.report = &rep
	s := rep.Summary
	a.Logf("[INFO] Simulation: %d components, %d wires, complete=%v", s.ComponentCount, s.WireCount, s.IsComplete)
}

func (a *App) buildModeMenu() *menu.DropdownMenu {
	modes := []circuit.Mode{circuit.ModeComponent, circuit.ModeWire}
	opts := make([]menu.MenuOption, 0, len(modes))
	for _, m := range modes {
		mode := m
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				a.setMode(mode)
				return nil
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := material.Body1(th.Theme, modeLabel(mode))
				if mode == a.editor.Mode() {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(200)
	return drop
}

func modeLabel(m circuit.Mode) string {
	if m == circuit.ModeWire {
		return "Wire mode (W)"
	}
	return "Component mode (C)"
}

// ============================================================
// Files
// ============================================================

func (a *App) openFile() {
	go func() {
		file, err := a.explorer.ChooseFile("json")
		if err != nil {
			if err != explorer.ErrUserDecline {
				a.post(func() { a.Logf("[ERROR] File picker failed: %v", err) })
			}
			return
		}
		defer file.Close()

		name := "circuit.json"
		if f, ok := file.(*os.File); ok {
			name = f.Name()
		}
		data, err := io.ReadAll(file)
		a.post(func() {
			if err != nil {
				a.Logf("[ERROR] Reading %s: %v", name, err)
				return
			}
			a.fail("open", a.loadBytes(name, data))
		})
	}()
}

func (a *App) saveFile() {
	var buf bytes.Buffer
	if err := a.editor.Save(&buf); err != nil {
		a.fail("save", err)
		return
	}
	go func() {
		file, err := a.explorer.CreateFile("circuit.json")
		if err != nil {
			if err != explorer.ErrUserDecline {
				a.post(func() { a.Logf("[ERROR] Save dialog failed: %v", err) })
			}
			return
		}
		_, err = file.Write(buf.Bytes())
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		name := "circuit.json"
		if f, ok := file.(*os.File); ok {
			name = f.Name()
		}
		a.post(func() {
			if err != nil {
				a.Logf("[ERROR] Saving %s: %v", name, err)
				return
			}
			a.file = name
			a.cfg.LastFile = name
			a.saveConfig()
			a.Logf("[INFO] Saved %s", name)
		})
	}()
}

func (a *App) exportPDF() {
	snap := a.editor.Document().Snapshot()
	rep := a.sim.Summarize(snap)
	a.report = &rep

	go func() {
		var buf bytes.Buffer
		res, err := a.pdf.Write(&buf, snap, rep)
		if err != nil {
			a.post(func() { a.Logf("[ERROR] Export failed: %v", err) })
			return
		}

		file, err := a.explorer.CreateFile("circuit.pdf")
		if err != nil {
			if err != explorer.ErrUserDecline {
				a.post(func() { a.Logf("[ERROR] Export dialog failed: %v", err) })
			}
			return
		}
		_, err = file.Write(buf.Bytes())
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		a.post(func() {
			switch {
			case err != nil:
				a.Logf("[ERROR] Writing PDF: %v", err)
			case !res.WithDiagram:
				a.Logf("[WARN] PDF exported without diagram: %v", res.DiagramErr)
			default:
				a.Logf("[INFO] PDF exported (%d pages)", res.Pages)
			}
		})
	}()
}
