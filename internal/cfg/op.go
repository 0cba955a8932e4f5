package cfg

// OpKind enumerates operation kinds.
type OpKind uint8

const (
	// OpFunctionCall represents a call to a user-defined function.
	OpFunctionCall OpKind = iota
	// OpBuiltinCall represents a call to a compiler intrinsic.
	OpBuiltinCall
	// OpAssignment represents an assignment to one or more slots.
	OpAssignment
)

// Operation is one instruction of a basic block. In and Out are the ordered
// stacks consumed and produced by the operation.
type Operation struct {
	Kind OpKind

	Call    FunctionCall
	Builtin BuiltinCall
	Assign  Assignment

	In  []Slot
	Out []Slot
}

// FunctionCall carries the callee's declared name.
type FunctionCall struct {
	Name string
}

// ArgKind distinguishes call-site argument forms.
type ArgKind uint8

const (
	// ArgLiteral is a literal value written at the call site.
	ArgLiteral ArgKind = iota
	// ArgExpr is any non-literal argument expression.
	ArgExpr
)

// CallArg is one call-site argument. Text holds the literal's text for
// ArgLiteral and a display form otherwise.
type CallArg struct {
	Kind ArgKind
	Text string
}

// BuiltinCall carries the builtin's metadata ref, the name written at the
// call site, and the ordered argument list.
type BuiltinCall struct {
	Builtin BuiltinID
	Name    string
	Args    []CallArg
}

// Assignment carries the ordered destination slots.
type Assignment struct {
	Vars []Slot
}
