package ui

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"
	"gioui.org/x/explorer"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/export"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/render"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/simulate"
)

// Options configures the editor window.
type Options struct {
	Config *config.AppConfig
	File   string // circuit to open at startup
}

// App is the desktop circuit editor.
type App struct {
	window   *app.Window
	ops      op.Ops
	explorer *explorer.Explorer

	cfg      *config.AppConfig
	gvTheme  *theme.Theme
	darkMode bool
	colors   *render.Colors

	editor *circuit.Editor
	canvas *Canvas
	camera *render.Camera
	sim    *simulate.Summarizer
	report *simulate.Report // last simulation run, nil until one ran
	pdf    *export.PDFReport

	// Toolbar
	openBtn, saveBtn, exportBtn     widget.Clickable
	rotateBtn, deleteBtn, clearBtn  widget.Clickable
	simulateBtn, fitBtn, themeBtn   widget.Clickable
	openIcon, saveIcon, exportIcon  *widget.Icon
	rotateIcon, deleteIcon, runIcon *widget.Icon
	modeMenu                        *menu.DropdownMenu
	modeBtn                         widget.Clickable

	// Palette
	library    []circuit.Template
	paletteBtn []widget.Clickable
	paletteLst widget.List

	// Property editor
	editingID   string
	valueEditor widget.Editor
	applyBtn    widget.Clickable
	toggleBtn   widget.Clickable
	closeBtn    widget.Clickable

	// Simulation panel
	nodeList widget.List

	// Canvas input
	canvasTag  bool
	panning    bool
	panLast    [2]float32
	fitPending bool

	status  string
	logs    []string
	pending chan func()
	file    string
}

// New creates the editor app.
func New(w *app.Window, opts Options) *App {
	if w == nil {
		w = new(app.Window)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	a := &App{
		window:   w,
		explorer: explorer.NewExplorer(w),
		cfg:      cfg,
		gvTheme:  theme.NewTheme("", nil, true),
		darkMode: render.ParseTheme(cfg.Theme) == render.ThemeDark,
		editor:   circuit.NewEditor(),
		camera:   render.NewCamera(1024, 720),
		sim:      simulate.New(),
		pdf:      export.NewPDFReport(),
		library:  circuit.Library(),
		pending:  make(chan func(), 16),
		status:   "Ready",
	}
	a.canvas = NewCanvas(a.editor)
	a.paletteBtn = make([]widget.Clickable, len(a.library))
	a.paletteLst.Axis = layout.Vertical
	a.nodeList.Axis = layout.Vertical
	a.valueEditor.SingleLine = true
	a.valueEditor.Submit = true

	a.pdf.Title = cfg.ReportTitle
	if d, ok := a.pdf.Diagram.(*export.Diagram); ok {
		d.DPI = int(cfg.DiagramDPI)
	}

	a.openIcon = mustIcon(icons.FileFolderOpen)
	a.saveIcon = mustIcon(icons.ContentSave)
	a.exportIcon = mustIcon(icons.FileFileDownload)
	a.rotateIcon = mustIcon(icons.ImageRotateRight)
	a.deleteIcon = mustIcon(icons.ActionDelete)
	a.runIcon = mustIcon(icons.AVPlayArrow)
	a.modeMenu = a.buildModeMenu()

	a.applyPalette()

	if opts.File != "" {
		if err := a.loadPath(opts.File); err != nil {
			a.Logf("[ERROR] %v", err)
		}
	}
	a.Logf("[BOOT] Editor ready")
	return a
}

func mustIcon(data []byte) *widget.Icon {
	icon, err := widget.NewIcon(data)
	if err != nil {
		log.Printf("ui: icon: %v", err)
		return nil
	}
	return icon
}

// Run blocks processing window events until the window closes.
func (a *App) Run() error {
	for {
		e := a.window.Event()
		a.explorer.ListenEvents(e)
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			a.drainPending()
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

// post schedules fn on the UI goroutine. File dialogs run on their own
// goroutines and hand results back through here.
func (a *App) post(fn func()) {
	a.pending <- fn
	a.window.Invalidate()
}

func (a *App) drainPending() {
	for {
		select {
		case fn := <-a.pending:
			fn()
		default:
			return
		}
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	a.handleActions(gtx)
	a.handleKeys(gtx)

	paint.FillShape(gtx.Ops, a.gvTheme.Palette.Bg, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(a.layoutToolbar),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Rigid(a.layoutPalette),
				layout.Flexed(1, a.layoutCanvas),
				layout.Rigid(a.layoutSidePanel),
			)
		}),
		layout.Rigid(a.layoutStatusBar),
	)
}

func (a *App) applyPalette() {
	if a.darkMode {
		a.gvTheme.WithPalette(theme.Palette{
			Bg:         color.NRGBA{R: 18, G: 20, B: 26, A: 255},
			Fg:         color.NRGBA{R: 233, G: 236, B: 245, A: 255},
			ContrastBg: color.NRGBA{R: 120, G: 150, B: 255, A: 255},
			ContrastFg: color.NRGBA{R: 12, G: 16, B: 24, A: 255},
			Bg2:        color.NRGBA{R: 34, G: 40, B: 50, A: 255},
		})
		a.colors = render.ColorsFor(render.ThemeDark)
	} else {
		a.gvTheme.WithPalette(theme.Palette{
			Bg:         color.NRGBA{R: 245, G: 247, B: 253, A: 255},
			Fg:         color.NRGBA{R: 34, G: 37, B: 49, A: 255},
			ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
			ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			Bg2:        color.NRGBA{R: 225, G: 230, B: 244, A: 255},
		})
		a.colors = render.ColorsFor(render.ThemeLight)
	}
}

func (a *App) setDarkMode(enabled bool) {
	if a.darkMode == enabled {
		return
	}
	a.darkMode = enabled
	a.applyPalette()
	if enabled {
		a.cfg.Theme = "dark"
	} else {
		a.cfg.Theme = "light"
	}
	a.saveConfig()
	a.Logf("[INFO] Theme switched to %s", a.cfg.Theme)
}

func (a *App) saveConfig() {
	if err := config.SaveConfig(a.cfg); err != nil {
		a.Logf("[WARN] Saving config: %v", err)
	}
}

func (a *App) invalidate() {
	if a.window != nil {
		a.window.Invalidate()
	}
}

// Logf records a line in the log and shows it in the status bar.
func (a *App) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	entry := fmt.Sprintf("[%s] %s", time.Now().Format(time.Stamp), msg)
	a.logs = append(a.logs, entry)
	if len(a.logs) > 200 {
		a.logs = a.logs[len(a.logs)-200:]
	}
	a.status = strings.TrimSpace(msg[strings.Index(msg, "]")+1:])
	a.invalidate()
}

// fail reports an editor error without stopping the app.
func (a *App) fail(what string, err error) {
	if err != nil {
		a.Logf("[ERROR] %s: %v", what, err)
	}
}

func (a *App) loadPath(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return a.loadBytes(path, data)
}

func (a *App) loadBytes(name string, data []byte) error {
	if err := a.editor.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	a.report = nil
	a.editingID = ""
	a.file = name
	a.fitPending = true
	if name != "" {
		a.cfg.LastFile = name
		a.saveConfig()
	}
	comps, wires := a.editor.Document().Len()
	a.Logf("[INFO] Loaded %s: %d components, %d wires", name, comps, wires)
	return nil
}
