// Package graphfile reads and writes control-flow graphs as binary files so
// pre-built graphs can move between the producing compiler and this tool.
package graphfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"

	"stackflow/internal/cfg"
)

// Ext is the graph file extension.
const Ext = ".sfg"

// Current schema version - increment when the payload format changes.
const schemaVersion uint16 = 1

// ErrSchema reports a graph file written with an incompatible schema.
var ErrSchema = errors.New("unsupported graph file schema")

type payload struct {
	Schema uint16
	Graph  cfg.Graph
}

// Encode writes g to w in the binary graph format.
func Encode(w io.Writer, g *cfg.Graph) error {
	if _, err := safecast.Conv[int32](len(g.Blocks)); err != nil {
		return fmt.Errorf("block count %d exceeds ref range: %w", len(g.Blocks), err)
	}
	enc := msgpack.NewEncoder(w)
	return enc.Encode(payload{Schema: schemaVersion, Graph: *g})
}

// Decode reads a graph from r, normalizes its names and literal texts to
// NFC, and validates it. Normalization keeps exports byte-identical across
// frontends that emit the same names in different Unicode normal forms.
func Decode(r io.Reader) (*cfg.Graph, error) {
	dec := msgpack.NewDecoder(r)
	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, p.Schema, schemaVersion)
	}

	g := p.Graph
	normalize(&g)
	if err := cfg.Validate(&g); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return &g, nil
}

// Write stores g at path, replacing any existing file atomically.
func Write(path string, g *cfg.Graph) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := Encode(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Read loads, normalizes and validates the graph stored at path.
func Read(path string) (*cfg.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func normalize(g *cfg.Graph) {
	for i := range g.Functions {
		g.Functions[i].Name = nfc(g.Functions[i].Name)
	}
	for i := range g.Builtins {
		g.Builtins[i].Name = nfc(g.Builtins[i].Name)
	}
	for i := range g.Blocks {
		b := &g.Blocks[i]
		for j := range b.Ops {
			normalizeOp(&b.Ops[j])
		}
		if b.Exit.Kind == cfg.ExitConditionalJump {
			normalizeSlot(&b.Exit.CondJump.Cond)
		}
		if b.Exit.Kind == cfg.ExitFunctionReturn {
			b.Exit.Return.Function = nfc(b.Exit.Return.Function)
		}
	}
}

func normalizeOp(op *cfg.Operation) {
	switch op.Kind {
	case cfg.OpFunctionCall:
		op.Call.Name = nfc(op.Call.Name)
	case cfg.OpBuiltinCall:
		op.Builtin.Name = nfc(op.Builtin.Name)
		for i := range op.Builtin.Args {
			op.Builtin.Args[i].Text = nfc(op.Builtin.Args[i].Text)
		}
	case cfg.OpAssignment:
		for i := range op.Assign.Vars {
			normalizeSlot(&op.Assign.Vars[i])
		}
	}
	for i := range op.In {
		normalizeSlot(&op.In[i])
	}
	for i := range op.Out {
		normalizeSlot(&op.Out[i])
	}
}

func normalizeSlot(s *cfg.Slot) {
	s.Name = nfc(s.Name)
	s.Text = nfc(s.Text)
}

func nfc(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}
