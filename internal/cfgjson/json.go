package cfgjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"stackflow/internal/cfg"
)

// ErrNonLiteralArg reports a builtin call whose argument in a literal-only
// position is not a literal. The producing stage is supposed to reject such
// graphs, so hitting this aborts the export as a fatal internal error.
var ErrNonLiteralArg = errors.New("argument in literal-only position is not a literal")

// OpJSON is one operation record. In and Out are always present, possibly
// empty. Op is absent for assignments; Assignment is present exactly for
// assignments, even when the destination list is empty; BuiltinArgs appears
// only when a builtin declares literal-only positions that are present in
// the call.
type OpJSON struct {
	Op          string   `json:"op,omitempty"`
	BuiltinArgs []string `json:"builtinArgs,omitempty"`
	Assignment  []string `json:"assignment,omitempty"`
	In          []string `json:"in"`
	Out         []string `json:"out"`
}

// MarshalJSON keys the assignment field off nil rather than len: a non-nil
// empty destination list still writes "assignment":[], which omitempty alone
// cannot express. Call records leave Assignment nil and carry no key.
func (op OpJSON) MarshalJSON() ([]byte, error) {
	type record struct {
		Op          string    `json:"op,omitempty"`
		BuiltinArgs []string  `json:"builtinArgs,omitempty"`
		Assignment  *[]string `json:"assignment,omitempty"`
		In          []string  `json:"in"`
		Out         []string  `json:"out"`
	}
	rec := record{
		Op:          op.Op,
		BuiltinArgs: op.BuiltinArgs,
		In:          op.In,
		Out:         op.Out,
	}
	if op.Assignment != nil {
		rec.Assignment = &op.Assignment
	}
	return json.Marshal(rec)
}

// BlockJSON is one basic-block record. Exit names the block's own exit node.
type BlockJSON struct {
	ID           string   `json:"id"`
	Instructions []OpJSON `json:"instructions"`
	Exit         string   `json:"exit"`
	Type         string   `json:"type"`
}

// ExitJSON is one block-terminator record. Exit lists successor block
// references; Cond is present only for conditional jumps; Instructions
// carries the returning function's name for function returns and is empty
// otherwise.
type ExitJSON struct {
	ID           string   `json:"id"`
	Instructions []string `json:"instructions"`
	Exit         []string `json:"exit"`
	Cond         []string `json:"cond,omitempty"`
	Type         string   `json:"type"`
}

// Options configures an export.
type Options struct {
	// SlotText renders a stack slot to its canonical display string.
	// Defaults to cfg.SlotText. Must be pure: the same slot must render to
	// the same string for the whole export.
	SlotText func(cfg.Slot) string
	// Pretty indents the document written by Write.
	Pretty bool
}

// Export renders g to the interchange document: a flat sequence alternating
// block and exit records in breadth-first traversal order. The traversal is
// seeded with the main entry followed by every function entry in table
// order; every reachable block is rendered exactly once, so re-exporting an
// unchanged graph yields an identical document.
func Export(g *cfg.Graph, opts Options) ([]any, error) {
	e := &exporter{
		graph:    g,
		slotText: opts.SlotText,
		ids:      make(map[cfg.BlockRef]int, len(g.Blocks)),
	}
	if e.slotText == nil {
		e.slotText = cfg.SlotText
	}
	return e.run()
}

// Write renders g and writes the JSON document to w.
func Write(w io.Writer, g *cfg.Graph, opts Options) error {
	nodes, err := Export(g, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(nodes)
}

// exporter holds the per-call state: the block-id table and its counter.
// An exporter is created fresh per export and discarded afterwards.
type exporter struct {
	graph    *cfg.Graph
	slotText func(cfg.Slot) string
	ids      map[cfg.BlockRef]int
	next     int
}

func (e *exporter) run() ([]any, error) {
	queue := make([]cfg.BlockRef, 0, len(e.graph.Blocks))
	queued := make(map[cfg.BlockRef]bool, len(e.graph.Blocks))

	// push assigns the block's id on first sight and enqueues it once, so
	// id order equals visit order and revisits never re-emit.
	push := func(ref cfg.BlockRef) {
		e.blockID(ref)
		if queued[ref] {
			return
		}
		queued[ref] = true
		queue = append(queue, ref)
	}

	push(e.graph.Entry)
	for _, fn := range e.graph.Functions {
		push(fn.Entry)
	}

	nodes := make([]any, 0, 2*len(e.graph.Blocks))
	for i := 0; i < len(queue); i++ {
		ref := queue[i]
		block, err := e.blockJSON(ref)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, block, e.exitJSON(ref, push))
	}
	return nodes, nil
}

// blockID returns the block's id, assigning the next counter value on first
// lookup. Ids are never rebound within a run and are not stable across runs.
func (e *exporter) blockID(ref cfg.BlockRef) int {
	if id, ok := e.ids[ref]; ok {
		return id
	}
	id := e.next
	e.next++
	e.ids[ref] = id
	return id
}

func (e *exporter) blockName(ref cfg.BlockRef) string {
	return fmt.Sprintf("Block%d", e.blockID(ref))
}

func (e *exporter) blockJSON(ref cfg.BlockRef) (BlockJSON, error) {
	b := e.graph.Block(ref)
	name := e.blockName(ref)

	ops := make([]OpJSON, 0, len(b.Ops))
	for i := range b.Ops {
		op, err := e.opJSON(&b.Ops[i])
		if err != nil {
			return BlockJSON{}, err
		}
		ops = append(ops, op)
	}
	return BlockJSON{
		ID:           name,
		Instructions: ops,
		Exit:         name + "Exit",
		Type:         "BasicBlock",
	}, nil
}

func (e *exporter) opJSON(op *cfg.Operation) (OpJSON, error) {
	rec := OpJSON{
		In:  e.stackText(op.In),
		Out: e.stackText(op.Out),
	}
	switch op.Kind {
	case cfg.OpFunctionCall:
		rec.Op = op.Call.Name
	case cfg.OpBuiltinCall:
		args, err := e.literalArgs(&op.Builtin)
		if err != nil {
			return OpJSON{}, err
		}
		rec.BuiltinArgs = args
		// The name written at the call site, not the builtin's internal name.
		rec.Op = op.Builtin.Name
	case cfg.OpAssignment:
		vars := make([]string, 0, len(op.Assign.Vars))
		for _, v := range op.Assign.Vars {
			vars = append(vars, e.slotText(v))
		}
		rec.Assignment = vars
	}
	return rec, nil
}

// literalArgs collects the literal texts of declared-literal positions that
// are present in the call, in declared order. A declared-literal position
// holding a non-literal argument means the upstream graph is internally
// inconsistent; the export aborts rather than skipping the argument.
func (e *exporter) literalArgs(call *cfg.BuiltinCall) ([]string, error) {
	builtin := &e.graph.Builtins[call.Builtin]
	var args []string
	for i, mustLit := range builtin.LiteralArgs {
		if !mustLit || i >= len(call.Args) {
			continue
		}
		if call.Args[i].Kind != cfg.ArgLiteral {
			return nil, fmt.Errorf("builtin %s argument %d: %w", call.Name, i, ErrNonLiteralArg)
		}
		args = append(args, call.Args[i].Text)
	}
	return args, nil
}

func (e *exporter) exitJSON(ref cfg.BlockRef, push func(cfg.BlockRef)) ExitJSON {
	b := e.graph.Block(ref)
	self := e.blockName(ref)

	rec := ExitJSON{
		ID:           self + "Exit",
		Instructions: []string{},
		Type:         b.Exit.Kind.String(),
	}
	switch b.Exit.Kind {
	case cfg.ExitMainExit, cfg.ExitTerminated:
		rec.Exit = []string{self}
	case cfg.ExitJump:
		target := b.Exit.Jump.Target
		rec.Exit = []string{e.blockName(target)}
		push(target)
	case cfg.ExitConditionalJump:
		cj := &b.Exit.CondJump
		rec.Exit = []string{e.blockName(cj.Zero), e.blockName(cj.NonZero)}
		rec.Cond = []string{e.slotText(cj.Cond)}
		push(cj.Zero)
		push(cj.NonZero)
	case cfg.ExitFunctionReturn:
		rec.Instructions = append(rec.Instructions, b.Exit.Return.Function)
		rec.Exit = []string{self}
	}
	return rec
}

// stackText renders an ordered stack to an ordered list of canonical
// strings. The result is never nil so empty stacks encode as [].
func (e *exporter) stackText(stack []cfg.Slot) []string {
	out := make([]string, len(stack))
	for i, s := range stack {
		out[i] = e.slotText(s)
	}
	return out
}
