// Package server exposes circuit editing sessions over HTTP.
package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/events"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/store"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/export"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/simulate"
)

// Options wires the server to its collaborators. Store and Events may be
// nil: the library routes then answer 503 and no events are published.
type Options struct {
	Config      *config.AppConfig
	Store       *store.Store
	Events      *events.Publisher
	Summarizer  *simulate.Summarizer
	Logging     bool
	MaxSessions int
}

// Server is the HTTP front end.
type Server struct {
	app      *fiber.App
	cfg      *config.AppConfig
	sessions *Sessions
	store    *store.Store
	events   *events.Publisher
	sim      *simulate.Summarizer
	report   *export.PDFReport
}

// New builds the fiber app and its routes.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	sim := opts.Summarizer
	if sim == nil {
		sim = simulate.New()
	}

	diagram := export.NewDiagram()
	diagram.DPI = int(cfg.DiagramDPI)
	report := export.NewPDFReport()
	report.Title = cfg.ReportTitle
	report.Diagram = diagram

	s := &Server{
		cfg:      cfg,
		sessions: NewSessions(opts.MaxSessions),
		store:    opts.Store,
		events:   opts.Events,
		sim:      sim,
		report:   report,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "OpenTraceCircuit",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    8 << 20,
		ErrorHandler: errorHandler,
	})

	s.app.Use(recover.New())
	if opts.Logging {
		s.app.Use(Logger())
	}
	s.app.Use(Tracing())
	s.app.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	api := s.app.Group("/api/v1")

	api.Post("/sessions", s.createSession)
	api.Get("/sessions", s.listSessions)
	api.Get("/sessions/:id", s.getSession)
	api.Delete("/sessions/:id", s.deleteSession)

	api.Post("/sessions/:id/components", s.placeComponent)
	api.Patch("/sessions/:id/components/:cid", s.updateComponent)
	api.Post("/sessions/:id/components/:cid/rotate", s.rotateComponent)
	api.Post("/sessions/:id/components/:cid/toggle", s.toggleComponent)
	api.Delete("/sessions/:id/components/:cid", s.deleteComponent)

	api.Post("/sessions/:id/wires", s.connectWire)
	api.Delete("/sessions/:id/wires/:wid", s.deleteWire)

	api.Post("/sessions/:id/clear", s.clearSession)
	api.Get("/sessions/:id/simulation", s.simulate)
	api.Get("/sessions/:id/netlist", s.netlist)
	api.Get("/sessions/:id/export.pdf", s.exportPDF)
	api.Get("/sessions/:id/document", s.getDocument)
	api.Put("/sessions/:id/document", s.putDocument)

	api.Post("/library", s.saveToLibrary)
	api.Get("/library", s.listLibrary)
	api.Get("/library/:id", s.getLibraryEntry)
	api.Put("/library/:id", s.updateLibraryEntry)
	api.Delete("/library/:id", s.deleteLibraryEntry)
	api.Post("/library/:id/open", s.openFromLibrary)
}

// App returns the fiber app, mostly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Sessions returns the live session set.
func (s *Server) Sessions() *Sessions { return s.sessions }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	log.Printf("Starting OpenTraceCircuit server on %s", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// emit publishes an event. Failures are logged and never fail the request.
func (s *Server) emit(c fiber.Ctx, session, op, target string, data any) {
	if err := s.events.Emit(c.Context(), session, op, target, data); err != nil {
		log.Printf("[SERVER] publish %s: %v", events.Subject(session, op), err)
	}
}
