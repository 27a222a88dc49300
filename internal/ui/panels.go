package ui

import (
	"fmt"
	"time"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/render"
)

func (a *App) th() *material.Theme { return a.gvTheme.Theme }

func (a *App) layoutToolbar(gtx layout.Context) layout.Dimensions {
	iconBtn := func(btn *widget.Clickable, icon *widget.Icon, desc string) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if icon == nil {
				return material.Button(a.th(), btn, desc).Layout(gtx)
			}
			b := material.IconButton(a.th(), btn, icon, desc)
			b.Size = unit.Dp(20)
			b.Inset = layout.UniformInset(unit.Dp(8))
			return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, b.Layout)
		})
	}
	textBtn := func(btn *widget.Clickable, label string) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, material.Button(a.th(), btn, label).Layout)
		})
	}

	return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			iconBtn(&a.openBtn, a.openIcon, "Open"),
			iconBtn(&a.saveBtn, a.saveIcon, "Save"),
			iconBtn(&a.exportBtn, a.exportIcon, "Export PDF"),
			layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
			iconBtn(&a.rotateBtn, a.rotateIcon, "Rotate"),
			iconBtn(&a.deleteBtn, a.deleteIcon, "Delete"),
			iconBtn(&a.simulateBtn, a.runIcon, "Simulate"),
			layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				dims := material.Button(a.th(), &a.modeBtn, modeLabel(a.editor.Mode())).Layout(gtx)
				a.modeMenu.Layout(gtx, a.gvTheme)
				return dims
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
			textBtn(&a.clearBtn, "Clear"),
			textBtn(&a.fitBtn, "Fit (F)"),
			textBtn(&a.themeBtn, "Theme"),
		)
	})
}

func (a *App) layoutPalette(gtx layout.Context) layout.Dimensions {
	width := gtx.Dp(unit.Dp(180))
	gtx.Constraints.Min.X = width
	gtx.Constraints.Max.X = width
	paint.FillShape(gtx.Ops, a.gvTheme.Bg2, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.H6(a.th(), "Components").Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return material.List(a.th(), &a.paletteLst).Layout(gtx, len(a.library), func(gtx layout.Context, i int) layout.Dimensions {
					t := a.library[i]
					label := fmt.Sprintf("%s  %s", t.Symbol, t.Name)
					return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						gtx.Constraints.Min.X = gtx.Constraints.Max.X
						return material.Button(a.th(), &a.paletteBtn[i], label).Layout(gtx)
					})
				})
			}),
		)
	})
}

func (a *App) layoutCanvas(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	a.camera.UpdateScreenSize(size.X, size.Y)
	if a.fitPending {
		a.fitPending = false
		view := a.editor.View()
		if bb := view.Snapshot.Bounds(); !bb.IsEmpty() {
			a.camera.Fit(bb.Inset(-40))
		}
	}

	a.handleCanvasInput(gtx)

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, &a.canvasTag)
	pointer.CursorCrosshair.Add(gtx.Ops)

	view := a.editor.View()
	render.RenderView(gtx, a.camera, &view, a.colors)
	return layout.Dimensions{Size: size}
}

func (a *App) handleCanvasInput(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  &a.canvasTag,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Move | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		world := a.camera.ScreenToWorld(float64(pe.Position.X), float64(pe.Position.Y))

		switch pe.Kind {
		case pointer.Press:
			if pe.Buttons.Contain(pointer.ButtonSecondary) || pe.Buttons.Contain(pointer.ButtonTertiary) {
				a.panning = true
				a.panLast = [2]float32{pe.Position.X, pe.Position.Y}
				break
			}
			msg, err := a.canvas.Press(world, time.Now())
			a.fail("press", err)
			if msg != "" {
				a.status = msg
			}
		case pointer.Drag, pointer.Move:
			if a.panning {
				a.camera.Pan(float64(pe.Position.X-a.panLast[0]), float64(pe.Position.Y-a.panLast[1]))
				a.panLast = [2]float32{pe.Position.X, pe.Position.Y}
				break
			}
			a.fail("move", a.canvas.Move(world))
		case pointer.Release:
			if a.panning {
				a.panning = false
				break
			}
			w, created, err := a.canvas.Release(world)
			a.fail("connect", err)
			if created {
				a.Logf("[INFO] Connected %s to %s", w.From, w.To)
			}
		case pointer.Scroll:
			if pe.Scroll.Y != 0 {
				factor := 1.0 - float64(pe.Scroll.Y)*0.01
				a.camera.ZoomAt(float64(pe.Position.X), float64(pe.Position.Y), factor)
			}
		}
		a.invalidate()
	}
}

func (a *App) layoutSidePanel(gtx layout.Context) layout.Dimensions {
	width := gtx.Dp(unit.Dp(300))
	gtx.Constraints.Min.X = width
	gtx.Constraints.Max.X = width
	paint.FillShape(gtx.Ops, a.gvTheme.Bg2, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.UniformInset(unit.Dp(10)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(a.layoutProperties),
			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
			layout.Flexed(1, a.layoutSimulation),
		)
	})
}

// syncEditing loads the value editor when a different component opens.
func (a *App) syncEditing() {
	c, ok := a.editor.Editing()
	if !ok {
		a.editingID = ""
		return
	}
	if c.ID != a.editingID {
		a.editingID = c.ID
		a.valueEditor.SetText(c.Value)
	}
}

func (a *App) handlePropertyActions(gtx layout.Context) {
	a.syncEditing()
	if a.editingID == "" {
		return
	}

	apply := a.applyBtn.Clicked(gtx)
	for {
		ev, ok := a.valueEditor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			apply = true
		}
	}
	if apply {
		if err := a.editor.SetValue(a.editingID, a.valueEditor.Text()); err != nil {
			a.fail("value", err)
		} else {
			a.Logf("[INFO] %s value set to %q", a.editingID, a.valueEditor.Text())
		}
	}
	if a.toggleBtn.Clicked(gtx) {
		state, err := a.editor.ToggleState(a.editingID)
		if err != nil {
			a.fail("toggle", err)
		} else {
			a.Logf("[INFO] %s is now %s", a.editingID, state)
		}
	}
	if a.closeBtn.Clicked(gtx) {
		a.editor.CloseProperties()
		a.editingID = ""
	}
}

func (a *App) layoutProperties(gtx layout.Context) layout.Dimensions {
	c, ok := a.editor.Editing()
	if !ok {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.H6(a.th(), "Properties").Layout),
			layout.Rigid(material.Caption(a.th(), "Double-click a component to edit it").Layout),
		)
	}

	rows := []layout.FlexChild{
		layout.Rigid(material.H6(a.th(), c.Name+" "+c.ID).Layout),
		layout.Rigid(material.Caption(a.th(), fmt.Sprintf("Type: %s  Rotation: %s", c.Kind, c.Rotation)).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(material.Body2(a.th(), "Value").Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			ed := material.Editor(a.th(), &a.valueEditor, "e.g. 4.7kΩ")
			return widget.Border{Color: a.gvTheme.Palette.Fg, Width: unit.Dp(1), CornerRadius: unit.Dp(4)}.Layout(gtx,
				func(gtx layout.Context) layout.Dimensions {
					return layout.UniformInset(unit.Dp(6)).Layout(gtx, ed.Layout)
				})
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
	}
	buttons := []layout.FlexChild{
		layout.Rigid(material.Button(a.th(), &a.applyBtn, "Apply").Layout),
		layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout),
	}
	if c.State != "" {
		buttons = append(buttons,
			layout.Rigid(material.Button(a.th(), &a.toggleBtn, "Turn "+otherState(c.State)).Layout),
			layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout),
		)
	}
	buttons = append(buttons, layout.Rigid(material.Button(a.th(), &a.closeBtn, "Close").Layout))
	rows = append(rows, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, buttons...)
	}))

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, rows...)
}

func otherState(s string) string {
	switch s {
	case "off":
		return "on"
	case "on":
		return "off"
	case "open":
		return "closed"
	default:
		return "open"
	}
}

func (a *App) layoutSimulation(gtx layout.Context) layout.Dimensions {
	if a.report == nil {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.H6(a.th(), "Simulation").Layout),
			layout.Rigid(material.Caption(a.th(), "Press the play button to analyse the circuit").Layout),
		)
	}
	rep := a.report
	s := rep.Summary
	lines := []string{
		fmt.Sprintf("Components: %d   Wires: %d", s.ComponentCount, s.WireCount),
		fmt.Sprintf("Power source: %s   Ground: %s", yesNo(s.HasPower), yesNo(s.HasGround)),
		fmt.Sprintf("Complete circuit: %s", yesNo(s.IsComplete)),
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(material.H6(a.th(), "Simulation").Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			children := make([]layout.FlexChild, len(lines))
			for i, l := range lines {
				children[i] = layout.Rigid(material.Body2(a.th(), l).Layout)
			}
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(a.th(), &a.nodeList).Layout(gtx, len(rep.Nodes), func(gtx layout.Context, i int) layout.Dimensions {
				n := rep.Nodes[i]
				text := fmt.Sprintf("Node at %s: %s, %s", n.Name, n.VoltageText, n.CurrentText)
				lbl := material.Caption(a.th(), text)
				if n.Placeholder {
					lbl.Color.A = 0xA0
				}
				return layout.Inset{Bottom: unit.Dp(2)}.Layout(gtx, lbl.Layout)
			})
		}),
	)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (a *App) layoutStatusBar(gtx layout.Context) layout.Dimensions {
	comps, wires := a.editor.Document().Len()
	mode := a.editor.DisplayMode()
	file := a.file
	if file == "" {
		file = "untitled"
	}
	info := fmt.Sprintf("%s | %d components, %d wires | %s mode | zoom %.0f%%",
		file, comps, wires, mode, a.camera.Zoom*100)

	return layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Spacing: layout.SpaceBetween}.Layout(gtx,
			layout.Rigid(material.Caption(a.th(), a.status).Layout),
			layout.Rigid(material.Caption(a.th(), info).Layout),
		)
	})
}
