package cfg

import "strconv"

// SlotKind enumerates abstract stack-slot kinds.
type SlotKind uint8

const (
	// SlotVariable is a named variable slot.
	SlotVariable SlotKind = iota
	// SlotLiteral is a literal value slot.
	SlotLiteral
	// SlotTemporary is a compiler-generated temporary slot.
	SlotTemporary
	// SlotJunk is a slot whose value is irrelevant.
	SlotJunk
)

// Slot is an abstract operand-stack location. Consumers treat it as opaque
// and render it through SlotText (or a compatible function).
type Slot struct {
	Kind SlotKind

	// Name holds the variable name for SlotVariable.
	Name string
	// Text preserves the literal's source text for SlotLiteral.
	Text string
	// Temp numbers the temporary for SlotTemporary.
	Temp int32
}

// VarSlot returns a named variable slot.
func VarSlot(name string) Slot {
	return Slot{Kind: SlotVariable, Name: name}
}

// LitSlot returns a literal slot with the given source text.
func LitSlot(text string) Slot {
	return Slot{Kind: SlotLiteral, Text: text}
}

// TempSlot returns a numbered temporary slot.
func TempSlot(n int32) Slot {
	return Slot{Kind: SlotTemporary, Temp: n}
}

// SlotText renders a slot to its canonical display string. It is pure and
// total: every slot kind has a string form.
func SlotText(s Slot) string {
	switch s.Kind {
	case SlotVariable:
		return s.Name
	case SlotLiteral:
		return s.Text
	case SlotTemporary:
		return "TMP[" + strconv.FormatInt(int64(s.Temp), 10) + "]"
	case SlotJunk:
		return "JUNK"
	}
	return "?"
}
