package cfg

type ExitKind uint8

const (
	ExitMainExit ExitKind = iota
	ExitJump
	ExitConditionalJump
	ExitFunctionReturn
	ExitTerminated
)

type Exit struct {
	Kind ExitKind

	Jump     JumpExit
	CondJump CondJumpExit
	Return   ReturnExit
}

type JumpExit struct {
	Target BlockRef
}

type CondJumpExit struct {
	Cond    Slot
	Zero    BlockRef
	NonZero BlockRef
}

type ReturnExit struct {
	Function string
}

func (k ExitKind) String() string {
	switch k {
	case ExitMainExit:
		return "MainExit"
	case ExitJump:
		return "Jump"
	case ExitConditionalJump:
		return "ConditionalJump"
	case ExitFunctionReturn:
		return "FunctionReturn"
	case ExitTerminated:
		return "Terminated"
	}
	return "Unknown"
}
