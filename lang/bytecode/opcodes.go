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

// Package bytecode implements the stack-machine instruction set, the
// Chunk container, and the FIFO constant pool shared by the compiler and
// the VM.
package bytecode

// Opcode is a single byte instruction code. The numeric values match the
// reference implementation's layout exactly; unrecognized bytes decode as
// OpNop.
type Opcode uint8

const (
	OpReturn       Opcode = 0
	OpConst        Opcode = 1
	OpAnd          Opcode = 2
	OpOr           Opcode = 3
	OpAdd          Opcode = 4
	OpNegate       Opcode = 5
	OpSubtract     Opcode = 6
	OpMultiply     Opcode = 7
	OpDivide       Opcode = 8
	OpTrue         Opcode = 9
	OpFalse        Opcode = 10
	OpNil          Opcode = 11
	OpEqEq         Opcode = 12
	OpLt           Opcode = 13
	OpGt           Opcode = 14
	OpLte          Opcode = 15
	OpGte          Opcode = 16
	OpEq           Opcode = 17
	OpNot          Opcode = 18
	OpPrint        Opcode = 19
	OpPop          Opcode = 20
	OpDefGlobal    Opcode = 21
	OpLoadGlobal   Opcode = 22
	OpJmpIfFalse   Opcode = 23
	OpElse         Opcode = 24
	OpNop          Opcode = 100
)

// opcodeInfo describes an opcode's disassembly name and the number of
// operand bytes following it in the instruction stream (0 for everything
// except the two jump instructions, which carry a 2-byte big-endian
// offset).
type opcodeInfo struct {
	name     string
	operands int
}

var opcodeTable = map[Opcode]opcodeInfo{
	OpReturn:     {"RETURN", 0},
	OpConst:      {"CONST", 0},
	OpAnd:        {"AND", 0},
	OpOr:         {"OR", 0},
	OpAdd:        {"ADD", 0},
	OpNegate:     {"NEGATE", 0},
	OpSubtract:   {"SUB", 0},
	OpMultiply:   {"MUL", 0},
	OpDivide:     {"DIV", 0},
	OpTrue:       {"TRUE", 0},
	OpFalse:      {"FALSE", 0},
	OpNil:        {"NIL", 0},
	OpEqEq:       {"EQ_EQ", 0},
	OpLt:         {"LT", 0},
	OpGt:         {"GT", 0},
	OpLte:        {"LTE", 0},
	OpGte:        {"GTE", 0},
	OpEq:         {"EQ", 0},
	OpNot:        {"NOT", 0},
	OpPrint:      {"PRINT", 0},
	OpPop:        {"POP", 0},
	OpDefGlobal:  {"DEF_GLOBAL", 0},
	OpLoadGlobal: {"LOAD_GLOBAL", 0},
	OpJmpIfFalse: {"JMP_IF_FALSE", 2},
	OpElse:       {"ELSE", 2},
	OpNop:        {"NOP", 0},
}

// FromByte maps a raw instruction byte to an Opcode, treating anything
// unrecognized as OpNop — matching the reference decoder.
func FromByte(b byte) Opcode {
	if _, ok := opcodeTable[Opcode(b)]; ok {
		return Opcode(b)
	}
	return OpNop
}

// String returns the disassembly mnemonic for op.
func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.name
	}
	return "NOP"
}

// Operands returns the number of operand bytes following op in the code
// stream.
func (op Opcode) Operands() int {
	if info, ok := opcodeTable[op]; ok {
		return info.operands
	}
	return 0
}

// ConsumesPool reports whether executing op dequeues exactly one pool
// entry. Used by the pool replay of the JMP_IF_FALSE and ELSE skip-scans
// (see Chunk.SkipPoolEntries).
func (op Opcode) ConsumesPool() bool {
	switch op {
	case OpConst, OpTrue, OpFalse, OpNil, OpDefGlobal, OpLoadGlobal:
		return true
	default:
		return false
	}
}
