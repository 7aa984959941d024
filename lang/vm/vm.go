// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package vm implements the stack machine that interprets a compiled
// bytecode.Chunk.
package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/rameshpdl/bish/lang/bytecode"
	"github.com/rameshpdl/bish/lang/value"
)

// ---- Error sentinels -------------------------------------------------------

// ErrStackUnderflow is returned when an opcode needs an operand but the
// stack is empty.
var ErrStackUnderflow = errors.New("vm: stack underflow")

// ErrPoolExhausted is returned when a pool-consuming opcode finds the
// constant pool empty or out of sync. It indicates a compiler defect, not
// a fault any source program can cause.
var ErrPoolExhausted = errors.New("vm: constant pool exhausted")

// ErrUndefinedGlobal is returned by LOAD_GLOBAL when the name was never
// installed by a DEF_GLOBAL.
var ErrUndefinedGlobal = errors.New("vm: undefined global")

// ErrUnprintable is returned by PRINT when the popped value is Unknown.
var ErrUnprintable = errors.New("vm: unprintable value")

// ErrBadOperand is returned by arithmetic opcodes when an operand is not
// numeric.
var ErrBadOperand = errors.New("vm: operand is not numeric")

// ErrBadLogicalOperand is returned by AND/OR when an operand is not an Int.
var ErrBadLogicalOperand = errors.New("vm: logical operand must be an integer")

// ErrBadComparisonOperand is returned by LT/GT when an operand is not
// numeric, and by EQ_EQ when the operand kinds differ.
var ErrBadComparisonOperand = errors.New("vm: comparison operand mismatch")

// ErrBadNegateOperand is returned by NEGATE when the operand is not numeric.
var ErrBadNegateOperand = errors.New("vm: negate operand must be numeric")

// ErrBadNotOperand is returned by NOT when the operand is neither a Bool
// nor an Int.
var ErrBadNotOperand = errors.New("vm: not operand must be a boolean or integer")

// Fault wraps a sentinel error with the instruction offset at which it
// occurred, letting the caller report a location without the VM depending
// on lang/diag's token-based Position.
type Fault struct {
	Err    error
	Offset int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s (at offset %04x)", f.Err, f.Offset)
}

func (f *Fault) Unwrap() error { return f.Err }

func fault(err error, offset int) *Fault { return &Fault{Err: err, Offset: offset} }

// VM owns the operand stack, the global-name bindings, and the instruction
// pointer for one run of a Chunk.
type VM struct {
	Chunk   *bytecode.Chunk
	ip      int
	stack   []value.Value
	Globals map[string]value.Value

	// Out is where PRINT and the final stack dump are written. Defaults to
	// nil, meaning the caller must set it before Run (cmd/bish wires
	// os.Stdout here).
	Out io.Writer
}

// New creates a VM ready to run chunk, writing PRINT output and the final
// stack dump to out.
func New(chunk *bytecode.Chunk, out io.Writer) *VM {
	return &VM{
		Chunk:   chunk,
		Globals: make(map[string]value.Value),
		Out:     out,
	}
}

func (m *VM) push(v value.Value) {
	m.stack = append(m.stack, v)
}

// pop removes and returns the top of the stack, or value.Unknown with
// ErrStackUnderflow if the stack is empty.
func (m *VM) pop() (value.Value, error) {
	n := len(m.stack)
	if n == 0 {
		return value.Unknown, ErrStackUnderflow
	}
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v, nil
}

// Run executes the chunk to completion or to the first runtime fault, then
// unconditionally dumps the final stack (top first) to Out, matching the
// reference interpreter's behavior regardless of outcome.
func (m *VM) Run() error {
	err := m.run()
	m.dumpStack()
	return err
}

func (m *VM) run() error {
	code := m.Chunk.Code
	for m.ip < len(code) {
		op := bytecode.FromByte(code[m.ip])
		if err := m.step(op); err != nil {
			return err
		}
		m.ip++
	}
	return nil
}

func (m *VM) step(op bytecode.Opcode) error {
	switch op {
	case bytecode.OpReturn, bytecode.OpNop:
		// no-op; RETURN does not halt execution early.

	case bytecode.OpConst, bytecode.OpTrue, bytecode.OpFalse, bytecode.OpNil:
		v := m.Chunk.Pool.Pop()
		if v.Kind == value.KindUnknown {
			return fault(ErrPoolExhausted, m.ip)
		}
		m.push(v)

	case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide:
		return m.arithmetic(op)

	case bytecode.OpEqEq, bytecode.OpLt, bytecode.OpGt:
		return m.comparison(op)

	case bytecode.OpLte, bytecode.OpGte, bytecode.OpEq:
		// Reserved opcodes: no compiler emission site targets these, and
		// the reference grammar exposes only thulo/sano/barabar.

	case bytecode.OpAnd, bytecode.OpOr:
		return m.logical(op)

	case bytecode.OpNegate:
		return m.negate()

	case bytecode.OpNot:
		return m.not()

	case bytecode.OpPrint:
		return m.print()

	case bytecode.OpPop:
		if _, err := m.pop(); err != nil {
			return fault(err, m.ip)
		}

	case bytecode.OpDefGlobal:
		return m.defGlobal()

	case bytecode.OpLoadGlobal:
		return m.loadGlobal()

	case bytecode.OpJmpIfFalse:
		return m.jmpIfFalse()

	case bytecode.OpElse:
		return m.elseJump()
	}
	return nil
}

// arithmetic pops a then b (b pushed first, so b is the left operand) and
// pushes b op a. Int unless either operand is Float.
func (m *VM) arithmetic(op bytecode.Opcode) error {
	a, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	b, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return fault(ErrBadOperand, m.ip)
	}

	if a.Kind == value.KindFloat || b.Kind == value.KindFloat {
		af, bf := a.AsFloat64(), b.AsFloat64()
		var r float64
		switch op {
		case bytecode.OpAdd:
			r = bf + af
		case bytecode.OpSubtract:
			r = bf - af
		case bytecode.OpMultiply:
			r = bf * af
		case bytecode.OpDivide:
			r = bf / af
		}
		m.push(value.Float(r))
		return nil
	}

	var r int64
	switch op {
	case bytecode.OpAdd:
		r = b.I + a.I
	case bytecode.OpSubtract:
		r = b.I - a.I
	case bytecode.OpMultiply:
		r = b.I * a.I
	case bytecode.OpDivide:
		r = int64(float64(b.I) / float64(a.I))
	}
	m.push(value.Int(r))
	return nil
}

// comparison pops a then b and evaluates b op a.
func (m *VM) comparison(op bytecode.Opcode) error {
	a, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	b, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}

	switch op {
	case bytecode.OpEqEq:
		if a.Kind != b.Kind {
			return fault(ErrBadComparisonOperand, m.ip)
		}
		m.push(value.Bool(a.Equal(b)))
		return nil
	case bytecode.OpGt, bytecode.OpLt:
		if !a.IsNumeric() || !b.IsNumeric() {
			return fault(ErrBadComparisonOperand, m.ip)
		}
		bf, af := b.AsFloat64(), a.AsFloat64()
		if op == bytecode.OpGt {
			m.push(value.Bool(bf > af))
		} else {
			m.push(value.Bool(bf < af))
		}
		return nil
	}
	return nil
}

// logical pops a then b; both must be Int, combined bitwise.
func (m *VM) logical(op bytecode.Opcode) error {
	a, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	b, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return fault(ErrBadLogicalOperand, m.ip)
	}
	if op == bytecode.OpAnd {
		m.push(value.Int(b.I & a.I))
	} else {
		m.push(value.Int(b.I | a.I))
	}
	return nil
}

func (m *VM) negate() error {
	v, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	switch v.Kind {
	case value.KindInt:
		m.push(value.Int(-v.I))
	case value.KindFloat:
		m.push(value.Float(-v.F))
	default:
		return fault(ErrBadNegateOperand, m.ip)
	}
	return nil
}

// not yields !v on a Bool and zero-ness on an Int.
func (m *VM) not() error {
	v, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	switch v.Kind {
	case value.KindBool:
		m.push(value.Bool(!v.B))
	case value.KindInt:
		m.push(value.Bool(v.I == 0))
	default:
		return fault(ErrBadNotOperand, m.ip)
	}
	return nil
}

func (m *VM) print() error {
	v, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	s, perr := v.Print()
	if perr != nil {
		return fault(ErrUnprintable, m.ip)
	}
	fmt.Fprintln(m.Out, s)
	return nil
}

func (m *VM) defGlobal() error {
	name := m.Chunk.Pool.Pop()
	if name.Kind != value.KindStr {
		return fault(ErrPoolExhausted, m.ip)
	}
	v, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	m.Globals[name.S] = v
	return nil
}

func (m *VM) loadGlobal() error {
	name := m.Chunk.Pool.Pop()
	if name.Kind != value.KindStr {
		return fault(ErrPoolExhausted, m.ip)
	}
	v, ok := m.Globals[name.S]
	if !ok {
		return fault(ErrUndefinedGlobal, m.ip)
	}
	m.push(v)
	return nil
}

// jmpIfFalse reads the 2-byte offset, pops the condition, and when false
// scans forward `offset` bytes from the post-operand position, replaying
// (dequeuing) one pool entry for every pool-consuming opcode found so the
// FIFO pool stays in sync with code that is never executed. The post-scan
// ip lands on the last byte of the skipped block; the outer run loop's
// ip++ then advances onto the first instruction following it.
func (m *VM) jmpIfFalse() error {
	offset := m.Chunk.ReadJumpOffset(m.ip + 1)
	m.ip += 2

	cond, err := m.pop()
	if err != nil {
		return fault(err, m.ip)
	}
	if cond.Kind != value.KindBool {
		return fault(ErrBadComparisonOperand, m.ip)
	}
	if !cond.B {
		m.Chunk.SkipPoolEntries(m.ip+1, offset)
		m.ip += int(offset)
	}
	return nil
}

// elseJump is an unconditional forward skip by the 2-byte offset. The
// skipped range gets the same pool replay as jmpIfFalse: the else block's
// code was emitted with its own pool entries, and jumping over it without
// dequeuing them would leave every later pool consumer off by that many
// entries.
func (m *VM) elseJump() error {
	offset := m.Chunk.ReadJumpOffset(m.ip + 1)
	m.ip += 2
	m.Chunk.SkipPoolEntries(m.ip+1, offset)
	m.ip += int(offset)
	return nil
}

func (m *VM) dumpStack() {
	for i := len(m.stack) - 1; i >= 0; i-- {
		v := m.stack[i]
		switch v.Kind {
		case value.KindBool:
			if v.B {
				fmt.Fprintln(m.Out, "[sahi(true)]")
			} else {
				fmt.Fprintln(m.Out, "[galat(false)]")
			}
		case value.KindStr:
			fmt.Fprintf(m.Out, "[%s(%d)]\n", v.S, len(v.S))
		case value.KindNil:
			fmt.Fprintln(m.Out, "[nil]")
		case value.KindUnknown:
			fmt.Fprintln(m.Out, "[UNKNOWN]")
		default:
			s, _ := v.Print()
			fmt.Fprintf(m.Out, "[%s]\n", s)
		}
	}
}
