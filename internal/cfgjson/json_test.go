package cfgjson_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"stackflow/internal/cfg"
	"stackflow/internal/cfgjson"
)

// TestExportSingleAssignment checks the end-to-end document for a one-block
// graph holding a single assignment.
func TestExportSingleAssignment(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Blocks: []cfg.BasicBlock{
			{
				Ops: []cfg.Operation{
					{
						Kind:   cfg.OpAssignment,
						Assign: cfg.Assignment{Vars: []cfg.Slot{cfg.VarSlot("x")}},
						Out:    []cfg.Slot{cfg.VarSlot("x")},
					},
				},
				Exit: cfg.Exit{Kind: cfg.ExitMainExit},
			},
		},
	}

	nodes, err := cfgjson.Export(g, cfgjson.Options{})
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `[{"id":"Block0","instructions":[{"assignment":["x"],"in":[],"out":["x"]}],"exit":"Block0Exit","type":"BasicBlock"},{"id":"Block0Exit","instructions":[],"exit":["Block0"],"type":"MainExit"}]`
	if string(data) != want {
		t.Errorf("document mismatch\n got: %s\nwant: %s", data, want)
	}
}

// TestExportBFSOrder checks that ids follow breadth-first visit order and
// that root-set entries receive the first ids in root order.
func TestExportBFSOrder(t *testing.T) {
	// Block layout (arena index != expected id on purpose):
	//   0: entry, conditional jump to 3 (zero) / 2 (non-zero)
	//   1: entry of function f, function return
	//   2: jump to 4
	//   3: jump to 4
	//   4: main exit
	g := &cfg.Graph{
		Entry: 0,
		Functions: []cfg.Function{
			{Name: "f", Entry: 1},
		},
		Blocks: []cfg.BasicBlock{
			{Exit: cfg.Exit{Kind: cfg.ExitConditionalJump, CondJump: cfg.CondJumpExit{
				Cond: cfg.VarSlot("c"), Zero: 3, NonZero: 2,
			}}},
			{Exit: cfg.Exit{Kind: cfg.ExitFunctionReturn, Return: cfg.ReturnExit{Function: "f"}}},
			{Exit: cfg.Exit{Kind: cfg.ExitJump, Jump: cfg.JumpExit{Target: 4}}},
			{Exit: cfg.Exit{Kind: cfg.ExitJump, Jump: cfg.JumpExit{Target: 4}}},
			{Exit: cfg.Exit{Kind: cfg.ExitMainExit}},
		},
	}

	pairs := exportPairs(t, g)
	if len(pairs) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(pairs))
	}

	// Visit order: entry, f entry, then the entry's branches in zero /
	// non-zero order, then the join block.
	wantIDs := []string{"Block0", "Block1", "Block2", "Block3", "Block4"}
	for i, p := range pairs {
		if p.Block.ID != wantIDs[i] {
			t.Errorf("pair %d: id %s, want %s", i, p.Block.ID, wantIDs[i])
		}
	}

	// Zero branch (arena 3) was named first, so it holds Block2.
	cond := pairs[0].Exit
	if cond.Type != "ConditionalJump" {
		t.Fatalf("entry exit type %s, want ConditionalJump", cond.Type)
	}
	if len(cond.Exit) != 2 || cond.Exit[0] != "Block2" || cond.Exit[1] != "Block3" {
		t.Errorf("conditional exit %v, want [Block2 Block3]", cond.Exit)
	}
}

// TestExportConditionalJump checks the exit record shape for a conditional
// jump: successor order and the one-element cond list.
func TestExportConditionalJump(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Blocks: []cfg.BasicBlock{
			{Exit: cfg.Exit{Kind: cfg.ExitConditionalJump, CondJump: cfg.CondJumpExit{
				Cond: cfg.TempSlot(7), Zero: 1, NonZero: 2,
			}}},
			{Exit: cfg.Exit{Kind: cfg.ExitMainExit}},
			{Exit: cfg.Exit{Kind: cfg.ExitTerminated}},
		},
	}

	pairs := exportPairs(t, g)
	exit := pairs[0].Exit
	if len(exit.Exit) != 2 || exit.Exit[0] != "Block1" || exit.Exit[1] != "Block2" {
		t.Errorf("exit refs %v, want [Block1 Block2]", exit.Exit)
	}
	if len(exit.Cond) != 1 || exit.Cond[0] != "TMP[7]" {
		t.Errorf("cond %v, want [TMP[7]]", exit.Cond)
	}

	if last := pairs[2].Exit; last.Type != "Terminated" || len(last.Exit) != 1 || last.Exit[0] != "Block2" {
		t.Errorf("terminated exit %+v, want self-reference Block2", last)
	}
}

// TestExportCycleTerminates checks that a two-block cycle exports each block
// and exit exactly once.
func TestExportCycleTerminates(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Blocks: []cfg.BasicBlock{
			{Exit: cfg.Exit{Kind: cfg.ExitJump, Jump: cfg.JumpExit{Target: 1}}},
			{Exit: cfg.Exit{Kind: cfg.ExitJump, Jump: cfg.JumpExit{Target: 0}}},
		},
	}

	pairs := exportPairs(t, g)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(pairs))
	}
	if pairs[0].Block.ID != "Block0" || pairs[1].Block.ID != "Block1" {
		t.Errorf("ids %s, %s, want Block0, Block1", pairs[0].Block.ID, pairs[1].Block.ID)
	}
	// The back-edge renders like any forward edge.
	if got := pairs[1].Exit.Exit; len(got) != 1 || got[0] != "Block0" {
		t.Errorf("back-edge exit %v, want [Block0]", got)
	}
}

// TestExportBuiltinArgs checks literal-only argument collection.
func TestExportBuiltinArgs(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Builtins: []cfg.Builtin{
			{Name: "datasize", LiteralArgs: []bool{true}},
			{Name: "add"},
		},
		Blocks: []cfg.BasicBlock{
			{
				Ops: []cfg.Operation{
					{
						Kind: cfg.OpBuiltinCall,
						Builtin: cfg.BuiltinCall{
							Builtin: 0,
							Name:    "datasize",
							Args:    []cfg.CallArg{{Kind: cfg.ArgLiteral, Text: "5"}},
						},
						Out: []cfg.Slot{cfg.TempSlot(0)},
					},
					{
						Kind: cfg.OpBuiltinCall,
						Builtin: cfg.BuiltinCall{
							Builtin: 1,
							Name:    "add",
							Args: []cfg.CallArg{
								{Kind: cfg.ArgExpr, Text: "a"},
								{Kind: cfg.ArgExpr, Text: "b"},
							},
						},
						In:  []cfg.Slot{cfg.VarSlot("a"), cfg.VarSlot("b")},
						Out: []cfg.Slot{cfg.TempSlot(1)},
					},
				},
				Exit: cfg.Exit{Kind: cfg.ExitMainExit},
			},
		},
	}

	pairs := exportPairs(t, g)
	ops := pairs[0].Block.Instructions
	if len(ops) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(ops))
	}

	if ops[0].Op != "datasize" {
		t.Errorf("op %q, want datasize", ops[0].Op)
	}
	if len(ops[0].BuiltinArgs) != 1 || ops[0].BuiltinArgs[0] != "5" {
		t.Errorf("builtinArgs %v, want [5]", ops[0].BuiltinArgs)
	}

	// No declared-literal positions: the key must be absent, not empty.
	raw, err := json.Marshal(ops[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["builtinArgs"]; ok {
		t.Errorf("builtinArgs present for builtin without literal positions: %s", raw)
	}
}

// TestExportNonLiteralArgFails checks the single fail-fast condition: a
// literal-only position holding a non-literal argument aborts the export.
func TestExportNonLiteralArgFails(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Builtins: []cfg.Builtin{
			{Name: "dataoffset", LiteralArgs: []bool{true}},
		},
		Blocks: []cfg.BasicBlock{
			{
				Ops: []cfg.Operation{
					{
						Kind: cfg.OpBuiltinCall,
						Builtin: cfg.BuiltinCall{
							Builtin: 0,
							Name:    "dataoffset",
							Args:    []cfg.CallArg{{Kind: cfg.ArgExpr, Text: "x"}},
						},
					},
				},
				Exit: cfg.Exit{Kind: cfg.ExitMainExit},
			},
		},
	}

	_, err := cfgjson.Export(g, cfgjson.Options{})
	if err == nil {
		t.Fatal("expected error for non-literal argument in literal-only position")
	}
	if !errors.Is(err, cfgjson.ErrNonLiteralArg) {
		t.Errorf("error %v, want ErrNonLiteralArg", err)
	}
}

// TestExportAssignmentRecord checks that assignments emit an assignment list
// and no op key.
func TestExportAssignmentRecord(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Blocks: []cfg.BasicBlock{
			{
				Ops: []cfg.Operation{
					{
						Kind: cfg.OpAssignment,
						Assign: cfg.Assignment{Vars: []cfg.Slot{
							cfg.VarSlot("x"), cfg.VarSlot("y"),
						}},
						In:  []cfg.Slot{cfg.TempSlot(0), cfg.TempSlot(1)},
						Out: []cfg.Slot{cfg.VarSlot("x"), cfg.VarSlot("y")},
					},
				},
				Exit: cfg.Exit{Kind: cfg.ExitMainExit},
			},
		},
	}

	pairs := exportPairs(t, g)
	op := pairs[0].Block.Instructions[0]
	if len(op.Assignment) != 2 || op.Assignment[0] != "x" || op.Assignment[1] != "y" {
		t.Errorf("assignment %v, want [x y]", op.Assignment)
	}

	raw, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["op"]; ok {
		t.Errorf("op key present for assignment: %s", raw)
	}
	for _, key := range []string{"in", "out"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("%s key missing: %s", key, raw)
		}
	}
}

// TestExportEmptyAssignment checks that an assignment with no destinations
// still carries the assignment key as an empty list, while call records
// carry no assignment key at all.
func TestExportEmptyAssignment(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Functions: []cfg.Function{
			{Name: "f", Entry: 0},
		},
		Blocks: []cfg.BasicBlock{
			{
				Ops: []cfg.Operation{
					{Kind: cfg.OpAssignment},
					{Kind: cfg.OpFunctionCall, Call: cfg.FunctionCall{Name: "f"}},
				},
				Exit: cfg.Exit{Kind: cfg.ExitMainExit},
			},
		},
	}

	nodes, err := cfgjson.Export(g, cfgjson.Options{})
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	raw, err := json.Marshal(nodes)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"assignment":[]`) {
		t.Errorf("empty assignment list dropped: %s", raw)
	}

	pairs := exportPairs(t, g)
	call, err := json.Marshal(pairs[0].Block.Instructions[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(call, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["assignment"]; ok {
		t.Errorf("assignment key present for call: %s", call)
	}
}

// TestExportFunctionReturn checks the function-return exit record.
func TestExportFunctionReturn(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Functions: []cfg.Function{
			{Name: "helper", Entry: 1},
		},
		Blocks: []cfg.BasicBlock{
			{Exit: cfg.Exit{Kind: cfg.ExitMainExit}},
			{Exit: cfg.Exit{Kind: cfg.ExitFunctionReturn, Return: cfg.ReturnExit{Function: "helper"}}},
		},
	}

	pairs := exportPairs(t, g)
	exit := pairs[1].Exit
	if exit.Type != "FunctionReturn" {
		t.Fatalf("exit type %s, want FunctionReturn", exit.Type)
	}
	if len(exit.Instructions) != 1 || exit.Instructions[0] != "helper" {
		t.Errorf("instructions %v, want [helper]", exit.Instructions)
	}
	if len(exit.Exit) != 1 || exit.Exit[0] != "Block1" {
		t.Errorf("exit refs %v, want [Block1]", exit.Exit)
	}
}

// TestExportDeterminism checks that re-exporting an unchanged graph twice
// yields byte-identical output.
func TestExportDeterminism(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Functions: []cfg.Function{
			{Name: "f", Entry: 2},
			{Name: "g", Entry: 3},
		},
		Blocks: []cfg.BasicBlock{
			{Exit: cfg.Exit{Kind: cfg.ExitConditionalJump, CondJump: cfg.CondJumpExit{
				Cond: cfg.VarSlot("c"), Zero: 1, NonZero: 0,
			}}},
			{Exit: cfg.Exit{Kind: cfg.ExitTerminated}},
			{Exit: cfg.Exit{Kind: cfg.ExitFunctionReturn, Return: cfg.ReturnExit{Function: "f"}}},
			{Exit: cfg.Exit{Kind: cfg.ExitFunctionReturn, Return: cfg.ReturnExit{Function: "g"}}},
		},
	}

	var first, second bytes.Buffer
	if err := cfgjson.Write(&first, g, cfgjson.Options{}); err != nil {
		t.Fatalf("first Write() error: %v", err)
	}
	if err := cfgjson.Write(&second, g, cfgjson.Options{}); err != nil {
		t.Fatalf("second Write() error: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Errorf("exports differ:\n%s\n%s", first.String(), second.String())
	}
}

// TestExportCustomSlotText checks that the externally supplied renderer is
// used for stacks and conditions.
func TestExportCustomSlotText(t *testing.T) {
	g := &cfg.Graph{
		Entry: 0,
		Blocks: []cfg.BasicBlock{
			{Exit: cfg.Exit{Kind: cfg.ExitConditionalJump, CondJump: cfg.CondJumpExit{
				Cond: cfg.VarSlot("c"), Zero: 1, NonZero: 1,
			}}},
			{Exit: cfg.Exit{Kind: cfg.ExitMainExit}},
		},
	}

	opts := cfgjson.Options{
		SlotText: func(s cfg.Slot) string { return "<" + cfg.SlotText(s) + ">" },
	}
	nodes, err := cfgjson.Export(g, opts)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	exit, ok := nodes[1].(cfgjson.ExitJSON)
	if !ok {
		t.Fatalf("node 1 is %T, want ExitJSON", nodes[1])
	}
	if len(exit.Cond) != 1 || exit.Cond[0] != "<c>" {
		t.Errorf("cond %v, want [<c>]", exit.Cond)
	}
}

// exportPairs exports g and decodes the document back into pairs.
func exportPairs(t *testing.T, g *cfg.Graph) []cfgjson.Pair {
	t.Helper()
	nodes, err := cfgjson.Export(g, cfgjson.Options{})
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	pairs, err := cfgjson.DecodePairs(data)
	if err != nil {
		t.Fatalf("DecodePairs() error: %v", err)
	}
	return pairs
}
