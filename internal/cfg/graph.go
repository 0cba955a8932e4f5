package cfg

// BlockRef is an index into a Graph's block arena. Successor edges are refs,
// never pointers, so cyclic graphs carry no ownership cycles and two
// structurally identical blocks keep distinct identities.
type BlockRef int32

// BuiltinID is an index into a Graph's builtin table.
type BuiltinID int32

const (
	NoBlockRef  BlockRef  = -1
	NoBuiltinID BuiltinID = -1
)

// Function names an entry point in the graph's function table.
type Function struct {
	Name  string
	Entry BlockRef
}

// Builtin describes a compiler intrinsic. LiteralArgs marks argument
// positions that must hold literal values at every call site.
type Builtin struct {
	Name        string
	LiteralArgs []bool
}

// BasicBlock is a straight-line operation sequence ending in exactly one
// terminator.
type BasicBlock struct {
	Ops  []Operation
	Exit Exit
}

// Graph is a finished control-flow graph: a main entry, an ordered function
// table, and an arena of basic blocks. It is immutable once handed to a
// consumer; nothing in this package or its consumers mutates it.
type Graph struct {
	Entry     BlockRef
	Functions []Function
	Builtins  []Builtin
	Blocks    []BasicBlock
}

// Block returns the block for ref. The ref must be in range; callers are
// expected to run Validate on untrusted graphs first.
func (g *Graph) Block(ref BlockRef) *BasicBlock {
	return &g.Blocks[ref]
}

// ValidRef reports whether ref points into the block arena.
func (g *Graph) ValidRef(ref BlockRef) bool {
	return ref >= 0 && int(ref) < len(g.Blocks)
}
