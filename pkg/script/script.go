// Package script implements a small line-oriented command language that
// drives an editor session without a pointer, for batch edits and tests:
//
//	# voltage divider
//	place voltage_source
//	place resistor
//	value comp-1 "10V"
//	connect comp-1.port-1-2 comp-2.port-2-1
//	rotate comp-2
//	move comp-2 0 40
package script

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

// ScriptLexer tokenizes editor scripts.
var ScriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[-+]?(\d*\.)?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*`},
	{Name: "Dot", Pattern: `\.`},
})

// Program is a parsed script.
type Program struct {
	Commands []*Command `@@*`
}

// Command is one script statement. Exactly one field is set.
type Command struct {
	Pos lexer.Position

	Place   *string  `  "place" @Ident`
	Move    *Move    `| "move" @@`
	Rotate  *string  `| "rotate" @Ident`
	Delete  *string  `| "delete" @Ident`
	Value   *Value   `| "value" @@`
	Connect *Connect `| "connect" @@`
	Unwire  *string  `| "unwire" @Ident`
	Toggle  *string  `| "toggle" @Ident`
	Mode    *string  `| "mode" @Ident`
	Clear   bool     `| @"clear"`
}

// Move translates a component.
type Move struct {
	ID string  `@Ident`
	DX float64 `@Number`
	DY float64 `@Number`
}

// Value sets a component value.
type Value struct {
	ID   string `@Ident`
	Text string `@String`
}

// Connect wires two ports.
type Connect struct {
	From PortSpec `@@`
	To   PortSpec `@@`
}

// PortSpec is written component.port.
type PortSpec struct {
	Component string `@Ident Dot`
	Port      string `@Ident`
}

func (p PortSpec) ref() circuit.PortRef {
	return circuit.PortRef{ComponentID: p.Component, PortID: p.Port}
}

var parser = participle.MustBuild[Program](
	participle.Lexer(ScriptLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

// Parse reads a script.
func Parse(r io.Reader) (*Program, error) {
	prog, err := parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return prog, nil
}

// ParseString reads a script from a string.
func ParseString(s string) (*Program, error) {
	prog, err := parser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return prog, nil
}

// Run applies the commands of prog to the editor in order and stops at
// the first failing command. Commands before it stay applied.
func Run(e *circuit.Editor, prog *Program) error {
	for _, cmd := range prog.Commands {
		if err := exec(e, cmd); err != nil {
			return fmt.Errorf("script: line %d: %w", cmd.Pos.Line, err)
		}
	}
	return nil
}

func exec(e *circuit.Editor, cmd *Command) error {
	switch {
	case cmd.Place != nil:
		kind, err := circuit.ParseKind(*cmd.Place)
		if err != nil {
			return err
		}
		_, err = e.Place(kind)
		return err
	case cmd.Move != nil:
		return e.Move(cmd.Move.ID, cmd.Move.DX, cmd.Move.DY)
	case cmd.Rotate != nil:
		return e.Rotate(*cmd.Rotate)
	case cmd.Delete != nil:
		return e.Delete(*cmd.Delete)
	case cmd.Value != nil:
		return e.SetValue(cmd.Value.ID, cmd.Value.Text)
	case cmd.Connect != nil:
		_, err := e.Connect(cmd.Connect.From.ref(), cmd.Connect.To.ref())
		return err
	case cmd.Unwire != nil:
		return e.DeleteWire(*cmd.Unwire)
	case cmd.Toggle != nil:
		_, err := e.ToggleState(*cmd.Toggle)
		return err
	case cmd.Mode != nil:
		m, err := circuit.ParseMode(*cmd.Mode)
		if err != nil {
			return err
		}
		e.SetMode(m)
		return nil
	case cmd.Clear:
		e.Clear()
		return nil
	}
	return fmt.Errorf("empty command")
}
