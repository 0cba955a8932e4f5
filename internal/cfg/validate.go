package cfg

import (
	"errors"
	"fmt"
)

// Validate checks structural graph invariants.
// Returns error if any invariant is violated.
func Validate(g *Graph) error {
	if g == nil {
		return nil
	}
	var errs []error

	if err := validateRoots(g); err != nil {
		errs = append(errs, err)
	}
	for i := range g.Blocks {
		if err := validateBlock(g, BlockRef(i)); err != nil {
			errs = append(errs, fmt.Errorf("block %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// validateRoots checks the main entry and every function entry.
func validateRoots(g *Graph) error {
	var errs []error
	if !g.ValidRef(g.Entry) {
		errs = append(errs, fmt.Errorf("main entry ref %d out of range", g.Entry))
	}
	for i, fn := range g.Functions {
		if fn.Name == "" {
			errs = append(errs, fmt.Errorf("function %d: empty name", i))
		}
		if !g.ValidRef(fn.Entry) {
			errs = append(errs, fmt.Errorf("function %s: entry ref %d out of range", fn.Name, fn.Entry))
		}
	}
	return errors.Join(errs...)
}

func validateBlock(g *Graph, ref BlockRef) error {
	b := g.Block(ref)

	var errs []error
	for i := range b.Ops {
		if err := validateOp(g, &b.Ops[i]); err != nil {
			errs = append(errs, fmt.Errorf("op %d: %w", i, err))
		}
	}
	if err := validateExit(g, &b.Exit); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateOp(g *Graph, op *Operation) error {
	switch op.Kind {
	case OpFunctionCall:
		if op.Call.Name == "" {
			return errors.New("function call without callee name")
		}
		return nil
	case OpAssignment:
		return nil
	case OpBuiltinCall:
		call := &op.Builtin
		if call.Name == "" {
			return errors.New("builtin call without call-site name")
		}
		if call.Builtin < 0 || int(call.Builtin) >= len(g.Builtins) {
			return fmt.Errorf("builtin id %d out of range", call.Builtin)
		}
		// Literal-only positions must hold literal arguments. The exporter
		// also enforces this, but catching it here points at the producing
		// stage.
		builtin := &g.Builtins[call.Builtin]
		var errs []error
		for i, mustLit := range builtin.LiteralArgs {
			if !mustLit || i >= len(call.Args) {
				continue
			}
			if call.Args[i].Kind != ArgLiteral {
				errs = append(errs, fmt.Errorf("builtin %s: argument %d must be a literal", call.Name, i))
			}
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
}

func validateExit(g *Graph, exit *Exit) error {
	switch exit.Kind {
	case ExitJump:
		if !g.ValidRef(exit.Jump.Target) {
			return fmt.Errorf("jump target ref %d out of range", exit.Jump.Target)
		}
	case ExitConditionalJump:
		cj := &exit.CondJump
		var errs []error
		if !g.ValidRef(cj.Zero) {
			errs = append(errs, fmt.Errorf("zero branch ref %d out of range", cj.Zero))
		}
		if !g.ValidRef(cj.NonZero) {
			errs = append(errs, fmt.Errorf("non-zero branch ref %d out of range", cj.NonZero))
		}
		return errors.Join(errs...)
	case ExitFunctionReturn:
		if exit.Return.Function == "" {
			return errors.New("function return without function name")
		}
	case ExitMainExit, ExitTerminated:
	default:
		return fmt.Errorf("unknown exit kind %d", exit.Kind)
	}
	return nil
}
