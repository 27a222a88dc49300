package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/store"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/simulate"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit = 0
	opts := Options{Config: cfg, Summarizer: simulate.New(simulate.WithSeed(7))}
	if withStore {
		st, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "library.db"))
		if err != nil {
			t.Fatalf("store.Open: %v", err)
		}
		t.Cleanup(func() { st.Close() })
		opts.Store = st
	}
	return New(opts)
}

func call(t *testing.T, s *Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, out
}

func mustJSON(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func newSession(t *testing.T, s *Server) string {
	t.Helper()
	code, body := call(t, s, http.MethodPost, "/api/v1/sessions", nil)
	if code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", code, body)
	}
	var out struct{ ID string }
	mustJSON(t, body, &out)
	return out.ID
}

func place(t *testing.T, s *Server, sid, kind string) componentPayload {
	t.Helper()
	code, body := call(t, s, http.MethodPost, "/api/v1/sessions/"+sid+"/components", map[string]string{"type": kind})
	if code != http.StatusCreated {
		t.Fatalf("place %s: status %d: %s", kind, code, body)
	}
	var c componentPayload
	mustJSON(t, body, &c)
	return c
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	code, _ := call(t, s, http.MethodGet, "/health/live", nil)
	if code != http.StatusOK {
		t.Errorf("got status %d, want 200", code)
	}
}

func TestPlaceMoveRotate(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)

	r := place(t, s, sid, "resistor")
	if r.ID != "comp-1" || r.Position.X != 150 || r.Position.Y != 150 {
		t.Fatalf("placed = %+v", r)
	}
	if r.Type.String() != "resistor" || len(r.Ports) != 2 {
		t.Errorf("placed = %+v", r)
	}

	base := "/api/v1/sessions/" + sid + "/components/" + r.ID
	code, body := call(t, s, http.MethodPatch, base, map[string]float64{"dx": 10, "dy": -5})
	if code != http.StatusOK {
		t.Fatalf("move: status %d: %s", code, body)
	}
	var moved componentPayload
	mustJSON(t, body, &moved)
	if moved.Position.X != 160 || moved.Position.Y != 145 {
		t.Errorf("moved to %v, want (160, 145)", moved.Position)
	}

	code, body = call(t, s, http.MethodPatch, base, map[string]string{"value": "2.2kΩ"})
	if code != http.StatusOK {
		t.Fatalf("value: status %d: %s", code, body)
	}
	var valued componentPayload
	mustJSON(t, body, &valued)
	if valued.Value != "2.2kΩ" {
		t.Errorf("value = %q", valued.Value)
	}

	code, body = call(t, s, http.MethodPost, base+"/rotate", nil)
	if code != http.StatusOK {
		t.Fatalf("rotate: status %d: %s", code, body)
	}
	var rotated componentPayload
	mustJSON(t, body, &rotated)
	if rotated.Rotation != 90 {
		t.Errorf("rotation = %d, want 90", rotated.Rotation)
	}
	// (-30, 0) turns into (0, -30).
	if got := rotated.Ports[0].Offset; got.X != 0 || got.Y != -30 {
		t.Errorf("port offset = %v, want (0, -30)", got)
	}
}

func TestPatchAbsolutePosition(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	r := place(t, s, sid, "resistor")
	base := "/api/v1/sessions/" + sid + "/components/" + r.ID

	code, body := call(t, s, http.MethodPatch, base, map[string]float64{"x": 400, "y": 250})
	if code != http.StatusOK {
		t.Fatalf("move to: status %d: %s", code, body)
	}
	var moved componentPayload
	mustJSON(t, body, &moved)
	if moved.Position != geom.Pt(400, 250) {
		t.Errorf("position = %v, want (400, 250)", moved.Position)
	}
	if got := moved.Ports[1].Position; got != geom.Pt(430, 250) {
		t.Errorf("port position = %v, want (430, 250)", got)
	}

	tests := []struct {
		name string
		body map[string]float64
	}{
		{"x without y", map[string]float64{"x": 10}},
		{"relative and absolute", map[string]float64{"dx": 1, "x": 10, "y": 10}},
	}
	for _, tt := range tests {
		code, body := call(t, s, http.MethodPatch, base, tt.body)
		if code != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want 400 (%s)", tt.name, code, body)
		}
	}

	code, _ = call(t, s, http.MethodPatch, "/api/v1/sessions/"+sid+"/components/comp-9", map[string]float64{"x": 1, "y": 1})
	if code != http.StatusNotFound {
		t.Errorf("unknown component: got status %d, want 404", code)
	}
}

func TestConnectAndCascade(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	a := place(t, s, sid, "voltage_source")
	b := place(t, s, sid, "resistor")

	req := map[string]any{
		"from": map[string]string{"componentId": a.ID, "portId": a.Ports[1].ID},
		"to":   map[string]string{"componentId": b.ID, "portId": b.Ports[0].ID},
	}
	code, body := call(t, s, http.MethodPost, "/api/v1/sessions/"+sid+"/wires", req)
	if code != http.StatusCreated {
		t.Fatalf("connect: status %d: %s", code, body)
	}
	var w wirePayload
	mustJSON(t, body, &w)
	if w.From.Position == nil || *w.From.Position != a.Ports[1].Position {
		t.Errorf("wire from = %+v, want %v", w.From, a.Ports[1].Position)
	}

	code, _ = call(t, s, http.MethodDelete, "/api/v1/sessions/"+sid+"/components/"+b.ID, nil)
	if code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}
	_, body = call(t, s, http.MethodGet, "/api/v1/sessions/"+sid, nil)
	var snap snapshotPayload
	mustJSON(t, body, &snap)
	if len(snap.Components) != 1 || len(snap.Wires) != 0 {
		t.Errorf("after delete: %d components, %d wires", len(snap.Components), len(snap.Wires))
	}
	if snap.NextID != 4 {
		t.Errorf("nextId = %d, want 4", snap.NextID)
	}
}

func TestErrorStatus(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	a := place(t, s, sid, "resistor")

	self := map[string]any{
		"from": map[string]string{"componentId": a.ID, "portId": a.Ports[0].ID},
		"to":   map[string]string{"componentId": a.ID, "portId": a.Ports[1].ID},
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", nil, http.StatusNotFound},
		{"unknown component", http.MethodPost, "/api/v1/sessions/" + sid + "/components/comp-99/rotate", nil, http.StatusNotFound},
		{"unknown wire", http.MethodDelete, "/api/v1/sessions/" + sid + "/wires/wire-9", nil, http.StatusNotFound},
		{"unknown type", http.MethodPost, "/api/v1/sessions/" + sid + "/components", map[string]string{"type": "flux-capacitor"}, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/v1/sessions/" + sid + "/components", nil, http.StatusBadRequest},
		{"empty patch", http.MethodPatch, "/api/v1/sessions/" + sid + "/components/" + a.ID, map[string]string{}, http.StatusBadRequest},
		{"self connection", http.MethodPost, "/api/v1/sessions/" + sid + "/wires", self, http.StatusBadRequest},
		{"no state", http.MethodPost, "/api/v1/sessions/" + sid + "/components/" + a.ID + "/toggle", nil, http.StatusBadRequest},
		{"malformed document", http.MethodPut, "/api/v1/sessions/" + sid + "/document", `{"components": 3}`, http.StatusBadRequest},
		{"bad netlist format", http.MethodGet, "/api/v1/sessions/" + sid + "/netlist?format=spice", nil, http.StatusBadRequest},
		{"library disabled", http.MethodGet, "/api/v1/library", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, s, tt.method, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("got status %d, want %d (%s)", code, tt.want, body)
			}
			var e struct{ Error string }
			mustJSON(t, body, &e)
			if e.Error == "" {
				t.Error("missing error message")
			}
		})
	}

	// Nothing above changed the document.
	_, body := call(t, s, http.MethodGet, "/api/v1/sessions/"+sid, nil)
	var snap snapshotPayload
	mustJSON(t, body, &snap)
	if len(snap.Components) != 1 || len(snap.Wires) != 0 || snap.NextID != 2 {
		t.Errorf("document changed: %+v", snap)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	place(t, s, sid, "lightbulb")
	place(t, s, sid, "switch")

	code, doc := call(t, s, http.MethodGet, "/api/v1/sessions/"+sid+"/document", nil)
	if code != http.StatusOK {
		t.Fatalf("get document: %d", code)
	}

	other := newSession(t, s)
	code, body := call(t, s, http.MethodPut, "/api/v1/sessions/"+other+"/document", string(doc))
	if code != http.StatusOK {
		t.Fatalf("put document: status %d: %s", code, body)
	}
	var snap snapshotPayload
	mustJSON(t, body, &snap)
	if len(snap.Components) != 2 || snap.NextID != 3 {
		t.Errorf("loaded %+v", snap)
	}

	_, again := call(t, s, http.MethodGet, "/api/v1/sessions/"+other+"/document", nil)
	if !bytes.Equal(doc, again) {
		t.Errorf("document changed across sessions:\n%s\n%s", doc, again)
	}
}

func TestClearKeepsCounter(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	place(t, s, sid, "capacitor")
	place(t, s, sid, "inductor")

	code, body := call(t, s, http.MethodPost, "/api/v1/sessions/"+sid+"/clear", nil)
	if code != http.StatusOK {
		t.Fatalf("clear: %d", code)
	}
	var snap snapshotPayload
	mustJSON(t, body, &snap)
	if len(snap.Components) != 0 || snap.NextID != 3 {
		t.Errorf("after clear: %+v", snap)
	}
	if c := place(t, s, sid, "diode"); c.ID != "comp-3" {
		t.Errorf("next id = %s, want comp-3", c.ID)
	}
}

func TestSimulationAndNetlist(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	place(t, s, sid, "resistor")
	src := place(t, s, sid, "voltage_source")

	code, body := call(t, s, http.MethodPatch, "/api/v1/sessions/"+sid+"/components/"+src.ID, map[string]string{"value": "10V"})
	if code != http.StatusOK {
		t.Fatalf("value: %d %s", code, body)
	}

	code, body = call(t, s, http.MethodGet, "/api/v1/sessions/"+sid+"/simulation", nil)
	if code != http.StatusOK {
		t.Fatalf("simulation: %d", code)
	}
	var rep simulate.Report
	mustJSON(t, body, &rep)
	if rep.Summary.ComponentCount != 2 || !rep.Summary.HasPower {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if len(rep.Nodes) != 2 || rep.Nodes[0].CurrentText != "0.010 A" || rep.Nodes[0].VoltageText != "8.00 V" {
		t.Errorf("nodes = %+v", rep.Nodes)
	}

	code, body = call(t, s, http.MethodGet, "/api/v1/sessions/"+sid+"/netlist?format=kicad", nil)
	if code != http.StatusOK || !strings.HasPrefix(string(body), "(export") {
		t.Errorf("kicad netlist: %d %q", code, body)
	}
	code, body = call(t, s, http.MethodGet, "/api/v1/sessions/"+sid+"/netlist", nil)
	if code != http.StatusOK || !json.Valid(body) {
		t.Errorf("json netlist: %d %q", code, body)
	}
}

func TestExportPDF(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)
	place(t, s, sid, "voltage_source")
	place(t, s, sid, "ground")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sid+"/export.pdf", nil)
	resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Errorf("body does not start with %%PDF-")
	}
	if d := resp.Header.Get("X-Circuit-Diagram"); d != "included" {
		t.Errorf("diagram = %q, want included", d)
	}
}

func TestLibrary(t *testing.T) {
	s := newTestServer(t, true)
	sid := newSession(t, s)
	place(t, s, sid, "transistor")

	code, body := call(t, s, http.MethodPost, "/api/v1/library", map[string]string{"sessionId": sid, "name": "amp"})
	if code != http.StatusCreated {
		t.Fatalf("save: %d %s", code, body)
	}
	var entry store.Entry
	mustJSON(t, body, &entry)
	if entry.Name != "amp" || entry.Components != 1 {
		t.Errorf("entry = %+v", entry)
	}

	code, body = call(t, s, http.MethodGet, "/api/v1/library", nil)
	var list struct{ Circuits []store.Entry }
	mustJSON(t, body, &list)
	if code != http.StatusOK || len(list.Circuits) != 1 {
		t.Fatalf("list: %d %s", code, body)
	}

	code, body = call(t, s, http.MethodPost, "/api/v1/library/"+entry.ID+"/open", nil)
	if code != http.StatusCreated {
		t.Fatalf("open: %d %s", code, body)
	}
	var snap snapshotPayload
	mustJSON(t, body, &snap)
	if snap.ID == sid || len(snap.Components) != 1 || len(snap.Components[0].Ports) != 3 {
		t.Errorf("opened %+v", snap)
	}

	place(t, s, sid, "ground")
	code, body = call(t, s, http.MethodPut, "/api/v1/library/"+entry.ID, map[string]string{"sessionId": sid})
	if code != http.StatusOK {
		t.Fatalf("update: %d %s", code, body)
	}
	var updated store.Entry
	mustJSON(t, body, &updated)
	if updated.ID != entry.ID || updated.Name != "amp" || updated.Components != 2 {
		t.Errorf("updated = %+v", updated)
	}
	code, _ = call(t, s, http.MethodPut, "/api/v1/library/not-there", map[string]string{"sessionId": sid})
	if code != http.StatusNotFound {
		t.Errorf("update missing entry: status %d, want 404", code)
	}

	code, _ = call(t, s, http.MethodGet, "/api/v1/library/not-there", nil)
	if code != http.StatusNotFound {
		t.Errorf("missing entry: status %d, want 404", code)
	}
	code, _ = call(t, s, http.MethodPost, "/api/v1/library", map[string]string{"sessionId": "nope", "name": "x"})
	if code != http.StatusNotFound {
		t.Errorf("unknown session: status %d, want 404", code)
	}
}

func TestDocumentOfCopiesUnderLock(t *testing.T) {
	sessions := NewSessions(0)
	sess, err := sessions.Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	sess.Do(func(e *circuit.Editor) error {
		_, err := e.Place(circuit.KindResistor)
		return err
	})

	doc, err := documentOf(sess)
	if err != nil {
		t.Fatalf("documentOf: %v", err)
	}
	sess.Do(func(e *circuit.Editor) error {
		e.Clear()
		return nil
	})
	if n, _ := doc.Len(); n != 1 {
		t.Errorf("copy has %d components, want 1", n)
	}
	if err := doc.Check(); err != nil {
		t.Error(err)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	s := New(Options{Config: cfg})

	var codes []int
	for range 3 {
		code, _ := call(t, s, http.MethodGet, "/health/live", nil)
		codes = append(codes, code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestSessionsConcurrent(t *testing.T) {
	s := newTestServer(t, false)
	sid := newSession(t, s)

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sid+"/components",
				strings.NewReader(`{"type":"resistor"}`))
			resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	for range 8 {
		<-done
	}

	_, body := call(t, s, http.MethodGet, "/api/v1/sessions/"+sid, nil)
	var snap snapshotPayload
	mustJSON(t, body, &snap)
	if len(snap.Components) != 8 || snap.NextID != 9 {
		t.Errorf("got %d components and nextId %d, want 8 and 9", len(snap.Components), snap.NextID)
	}
	seen := map[string]bool{}
	for _, c := range snap.Components {
		if seen[c.ID] {
			t.Errorf("duplicate id %s", c.ID)
		}
		seen[c.ID] = true
	}
}
