package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/store"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/netlist"
)

var (
	errBadRequest      = errors.New("bad request")
	errLibraryDisabled = errors.New("circuit library is not configured")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ============================================================
// Payloads
// ============================================================

type portPayload struct {
	ID        string     `json:"id"`
	Offset    geom.Point `json:"offset"`
	Position  geom.Point `json:"position"`
	Connected bool       `json:"connected"`
}

type componentPayload struct {
	ID       string        `json:"id"`
	Type     circuit.Kind  `json:"type"`
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Symbol   string        `json:"symbol"`
	Position geom.Point    `json:"position"`
	Rotation int           `json:"rotation"`
	State    string        `json:"state,omitempty"`
	Ports    []portPayload `json:"ports"`
}

func componentJSON(c circuit.Component) componentPayload {
	out := componentPayload{
		ID:       c.ID,
		Type:     c.Kind,
		Name:     c.Name,
		Value:    c.Value,
		Symbol:   c.Symbol,
		Position: c.Position,
		Rotation: int(c.Rotation),
		State:    c.State,
		Ports:    make([]portPayload, len(c.Ports)),
	}
	for i, p := range c.Ports {
		out.Ports[i] = portPayload{ID: p.ID, Offset: p.Offset, Position: c.Position.Add(p.Offset), Connected: p.Connected}
	}
	return out
}

type endpointPayload struct {
	ComponentID string      `json:"componentId"`
	PortID      string      `json:"portId"`
	Position    *geom.Point `json:"position,omitempty"`
}

type wirePayload struct {
	ID   string          `json:"id"`
	From endpointPayload `json:"from"`
	To   endpointPayload `json:"to"`
}

func wireJSON(w circuit.Wire) wirePayload {
	from, to := w.From.Pos, w.To.Pos
	return wirePayload{
		ID:   w.ID,
		From: endpointPayload{ComponentID: w.From.ComponentID, PortID: w.From.PortID, Position: &from},
		To:   endpointPayload{ComponentID: w.To.ComponentID, PortID: w.To.PortID, Position: &to},
	}
}

type snapshotPayload struct {
	ID         string             `json:"id"`
	Components []componentPayload `json:"components"`
	Wires      []wirePayload      `json:"wires"`
	NextID     int                `json:"nextId"`
}

func snapshotJSON(id string, snap circuit.Snapshot) snapshotPayload {
	out := snapshotPayload{
		ID:         id,
		Components: make([]componentPayload, len(snap.Components)),
		Wires:      make([]wirePayload, len(snap.Wires)),
		NextID:     snap.NextID,
	}
	for i, c := range snap.Components {
		out.Components[i] = componentJSON(c)
	}
	for i, w := range snap.Wires {
		out.Wires[i] = wireJSON(w)
	}
	return out
}

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return badRequest("empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return badRequest("invalid json: %v", err)
	}
	return nil
}

// ============================================================
// Sessions
// ============================================================

func (s *Server) session(c fiber.Ctx) (*Session, error) {
	return s.sessions.Get(c.Params("id"))
}

func (s *Server) createSession(c fiber.Ctx) error {
	sess, err := s.sessions.Create(nil)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	s.emit(c, sess.ID, "create", "", nil)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": sess.ID})
}

func (s *Server) listSessions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"sessions": s.sessions.IDs()})
}

func (s *Server) getSession(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var out snapshotPayload
	if err := sess.Do(func(e *circuit.Editor) error {
		out = snapshotJSON(sess.ID, e.Document().Snapshot())
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) deleteSession(c fiber.Ctx) error {
	id := c.Params("id")
	if err := s.sessions.Remove(id); err != nil {
		return err
	}
	s.emit(c, id, "close", "", nil)
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Components
// ============================================================

type placeRequest struct {
	Type string `json:"type"`
}

func (s *Server) placeComponent(c fiber.Ctx) error {
	var req placeRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	kind, err := circuit.ParseKind(req.Type)
	if err != nil {
		return err
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	var comp circuit.Component
	if err := sess.Do(func(e *circuit.Editor) error {
		comp, err = e.Place(kind)
		return err
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, "place", comp.ID, fiber.Map{"type": kind})
	return c.Status(http.StatusCreated).JSON(componentJSON(comp))
}

type updateRequest struct {
	DX    *float64 `json:"dx"`
	DY    *float64 `json:"dy"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Value *string  `json:"value"`
}

func (s *Server) updateComponent(c fiber.Ctx) error {
	var req updateRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	moving := req.DX != nil || req.DY != nil
	placing := req.X != nil || req.Y != nil
	switch {
	case moving && placing:
		return badRequest("dx/dy and x/y are exclusive")
	case placing && (req.X == nil || req.Y == nil):
		return badRequest("x and y go together")
	case !moving && !placing && req.Value == nil:
		return badRequest("expected dx/dy, x/y or value")
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	cid := c.Params("cid")

	var comp circuit.Component
	if err := sess.Do(func(e *circuit.Editor) error {
		// Check the id first so a failed request changes nothing.
		if _, ok := e.Document().Component(cid); !ok {
			return fmt.Errorf("circuit: component %q: %w", cid, circuit.ErrNotFound)
		}
		if moving {
			var dx, dy float64
			if req.DX != nil {
				dx = *req.DX
			}
			if req.DY != nil {
				dy = *req.DY
			}
			if err := e.Move(cid, dx, dy); err != nil {
				return err
			}
		}
		if placing {
			if err := e.Document().MoveTo(cid, geom.Pt(*req.X, *req.Y)); err != nil {
				return err
			}
		}
		if req.Value != nil {
			if err := e.SetValue(cid, *req.Value); err != nil {
				return err
			}
		}
		comp, _ = e.Document().Component(cid)
		return nil
	}); err != nil {
		return err
	}

	if moving || placing {
		s.emit(c, sess.ID, "move", cid, comp.Position)
	}
	if req.Value != nil {
		s.emit(c, sess.ID, "value", cid, fiber.Map{"value": comp.Value})
	}
	return c.JSON(componentJSON(comp))
}

// componentAction runs fn on the component named in the path and answers
// with its new state.
func (s *Server) componentAction(c fiber.Ctx, op string, fn func(e *circuit.Editor, id string) error) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	cid := c.Params("cid")

	var comp circuit.Component
	if err := sess.Do(func(e *circuit.Editor) error {
		if err := fn(e, cid); err != nil {
			return err
		}
		comp, _ = e.Document().Component(cid)
		return nil
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, op, cid, nil)
	return c.JSON(componentJSON(comp))
}

func (s *Server) rotateComponent(c fiber.Ctx) error {
	return s.componentAction(c, "rotate", func(e *circuit.Editor, id string) error {
		return e.Rotate(id)
	})
}

func (s *Server) toggleComponent(c fiber.Ctx) error {
	return s.componentAction(c, "toggle", func(e *circuit.Editor, id string) error {
		_, err := e.ToggleState(id)
		return err
	})
}

func (s *Server) deleteComponent(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	cid := c.Params("cid")
	if err := sess.Do(func(e *circuit.Editor) error {
		return e.Delete(cid)
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, "delete", cid, nil)
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Wires
// ============================================================

type connectRequest struct {
	From endpointPayload `json:"from"`
	To   endpointPayload `json:"to"`
}

func (s *Server) connectWire(c fiber.Ctx) error {
	var req connectRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	var w circuit.Wire
	if err := sess.Do(func(e *circuit.Editor) error {
		w, err = e.Connect(
			circuit.PortRef{ComponentID: req.From.ComponentID, PortID: req.From.PortID},
			circuit.PortRef{ComponentID: req.To.ComponentID, PortID: req.To.PortID},
		)
		return err
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, "connect", w.ID, wireJSON(w))
	return c.Status(http.StatusCreated).JSON(wireJSON(w))
}

func (s *Server) deleteWire(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	wid := c.Params("wid")
	if err := sess.Do(func(e *circuit.Editor) error {
		return e.DeleteWire(wid)
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, "unwire", wid, nil)
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Whole document
// ============================================================

func (s *Server) clearSession(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var out snapshotPayload
	if err := sess.Do(func(e *circuit.Editor) error {
		e.Clear()
		out = snapshotJSON(sess.ID, e.Document().Snapshot())
		return nil
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, "clear", "", nil)
	return c.JSON(out)
}

// snapshot copies the session document under its lock.
func (s *Server) snapshot(c fiber.Ctx) (*Session, circuit.Snapshot, error) {
	sess, err := s.session(c)
	if err != nil {
		return nil, circuit.Snapshot{}, err
	}
	var snap circuit.Snapshot
	if err := sess.Do(func(e *circuit.Editor) error {
		snap = e.Document().Snapshot()
		return nil
	}); err != nil {
		return nil, circuit.Snapshot{}, err
	}
	return sess, snap, nil
}

func (s *Server) simulate(c fiber.Ctx) error {
	_, snap, err := s.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(s.sim.Summarize(snap))
}

func (s *Server) netlist(c fiber.Ctx) error {
	sess, snap, err := s.snapshot(c)
	if err != nil {
		return err
	}
	nl := netlist.Build(snap)

	switch format := c.Query("format", "json"); format {
	case "json":
		data, err := nl.ExportJSON()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	case "kicad":
		text, err := nl.ExportSExpr(sess.ID)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(text)
	default:
		return badRequest("unknown netlist format %q", format)
	}
}

func (s *Server) exportPDF(c fiber.Ctx) error {
	_, snap, err := s.snapshot(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	res, err := s.report.Write(&buf, snap, s.sim.Summarize(snap))
	if err != nil {
		return err
	}
	diagram := "included"
	if !res.WithDiagram {
		diagram = "omitted"
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="circuit.pdf"`)
	c.Set("X-Circuit-Diagram", diagram)
	return c.Send(buf.Bytes())
}

func (s *Server) getDocument(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := sess.Do(func(e *circuit.Editor) error {
		return e.Save(&buf)
	}); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(buf.Bytes())
}

func (s *Server) putDocument(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var out snapshotPayload
	if err := sess.Do(func(e *circuit.Editor) error {
		if err := e.Load(bytes.NewReader(c.Body())); err != nil {
			return err
		}
		out = snapshotJSON(sess.ID, e.Document().Snapshot())
		return nil
	}); err != nil {
		return err
	}
	s.emit(c, sess.ID, "load", "", nil)
	return c.JSON(out)
}

// ============================================================
// Library
// ============================================================

type saveRequest struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

func (s *Server) saveToLibrary(c fiber.Ctx) error {
	if s.store == nil {
		return errLibraryDisabled
	}
	var req saveRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return badRequest("name required")
	}
	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return err
	}

	doc, err := documentOf(sess)
	if err != nil {
		return err
	}

	entry, err := s.store.Save(c.Context(), req.Name, doc)
	if err != nil {
		return err
	}
	s.emit(c, sess.ID, "save", entry.ID, entry)
	return c.Status(http.StatusCreated).JSON(entry)
}

type updateLibraryRequest struct {
	SessionID string `json:"sessionId"`
}

// updateLibraryEntry overwrites a stored circuit with a session document.
func (s *Server) updateLibraryEntry(c fiber.Ctx) error {
	if s.store == nil {
		return errLibraryDisabled
	}
	var req updateLibraryRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return err
	}
	doc, err := documentOf(sess)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if err := s.store.Update(c.Context(), id, doc); err != nil {
		return err
	}
	entry, err := s.store.Get(c.Context(), id)
	if err != nil {
		return err
	}
	s.emit(c, sess.ID, "save", entry.ID, entry)
	return c.JSON(entry)
}

// documentOf copies the session document under the lock so it can be
// stored outside it.
func documentOf(sess *Session) (*circuit.Document, error) {
	var buf bytes.Buffer
	if err := sess.Do(func(e *circuit.Editor) error {
		return e.Save(&buf)
	}); err != nil {
		return nil, fmt.Errorf("session %s: save: %w", sess.ID, err)
	}
	doc := circuit.NewDocument()
	if err := doc.Load(&buf); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Server) listLibrary(c fiber.Ctx) error {
	if s.store == nil {
		return errLibraryDisabled
	}
	list, err := s.store.List(c.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []store.Entry{}
	}
	return c.JSON(fiber.Map{"circuits": list})
}

func (s *Server) getLibraryEntry(c fiber.Ctx) error {
	if s.store == nil {
		return errLibraryDisabled
	}
	entry, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func (s *Server) deleteLibraryEntry(c fiber.Ctx) error {
	if s.store == nil {
		return errLibraryDisabled
	}
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) openFromLibrary(c fiber.Ctx) error {
	if s.store == nil {
		return errLibraryDisabled
	}
	doc, err := s.store.Document(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	sess, err := s.sessions.Create(doc)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	s.emit(c, sess.ID, "open", c.Params("id"), nil)
	return c.Status(http.StatusCreated).JSON(snapshotJSON(sess.ID, doc.Snapshot()))
}
