package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func divider(t *testing.T) *circuit.Document {
	t.Helper()
	e := circuit.NewEditor()
	src, err := e.Place(circuit.KindVoltageSource)
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.Place(circuit.KindResistor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Connect(
		circuit.PortRef{ComponentID: src.ID, PortID: src.Ports[1].ID},
		circuit.PortRef{ComponentID: r.ID, PortID: r.Ports[0].ID},
	); err != nil {
		t.Fatal(err)
	}
	return e.Document()
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	doc := divider(t)

	e, err := s.Save(ctx, "divider", doc)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.ID == "" || e.Components != 2 || e.Wires != 1 {
		t.Errorf("entry = %+v", e)
	}

	got, err := s.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "divider" || got.Components != 2 {
		t.Errorf("Get = %+v", got)
	}

	loaded, err := s.Document(ctx, e.ID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	comps, wires := loaded.Len()
	if comps != 2 || wires != 1 {
		t.Errorf("loaded %d components and %d wires, want 2 and 1", comps, wires)
	}
	if loaded.NextID() != doc.NextID() {
		t.Errorf("nextId = %d, want %d", loaded.NextID(), doc.NextID())
	}
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		if _, err := s.Save(ctx, name, circuit.NewDocument()); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d entries, want 3", len(list))
	}
	if list[0].Name != "third" || list[2].Name != "first" {
		t.Errorf("order = %s, %s, %s", list[0].Name, list[1].Name, list[2].Name)
	}
	if !list[2].CreatedAt.Equal(base) {
		t.Errorf("created = %v, want %v", list[2].CreatedAt, base)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	e, err := s.Save(ctx, "scratch", circuit.NewDocument())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(ctx, e.ID, divider(t)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Components != 2 || got.Wires != 1 {
		t.Errorf("after update = %+v", got)
	}

	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	if _, err := s.Document(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Document(missing) = %v, want ErrNotFound", err)
	}
}

func TestSaveRequiresName(t *testing.T) {
	s := openTest(t)
	if _, err := s.Save(context.Background(), "", circuit.NewDocument()); err == nil {
		t.Error("Save accepted an empty name")
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	e, err := s.Save(ctx, "kept", divider(t))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, e.ID); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
