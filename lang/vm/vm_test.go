// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rameshpdl/bish/lang/bytecode"
	"github.com/rameshpdl/bish/lang/compiler"
	"github.com/rameshpdl/bish/lang/lexer"
)

// run compiles and executes src, returning stdout and any runtime error.
// It fails the test outright on a compile error, since these are VM-focused
// cases, not compiler diagnostics cases.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	toks := lexer.New("test.bish", src).Tokenize()
	var compileDiag, warn bytes.Buffer
	chunk, ok := compiler.New(&compileDiag, &warn, "test.bish", toks).Compile()
	require.True(t, ok, "compile failed: %s", compileDiag.String())

	var out bytes.Buffer
	m := New(chunk, &out)
	err := m.Run()
	return out.String(), err
}

func firstLine(s string) string {
	parts := strings.SplitN(s, "\n", 2)
	return parts[0]
}

func TestArithmeticPrecedenceAndGrouping(t *testing.T) {
	out, err := run(t, "dekhau 1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, "7", firstLine(out))

	out, err = run(t, "dekhau (1 + 2) * 3;")
	require.NoError(t, err)
	assert.Equal(t, "9", firstLine(out))
}

func TestGlobalDeclarationAndLoad(t *testing.T) {
	out, err := run(t, "rakha x ma 10; dekhau x;")
	require.NoError(t, err)
	assert.Equal(t, "10", firstLine(out))

	out, err = run(t, `rakha s ma "hi"; dekhau s;`)
	require.NoError(t, err)
	assert.Equal(t, "hi", firstLine(out))
}

func TestLaterDefGlobalOverwrites(t *testing.T) {
	out, err := run(t, "rakha x ma 1; rakha x ma 2; dekhau x;")
	require.NoError(t, err)
	assert.Equal(t, "2", firstLine(out))
}

func TestIfTakenBranch(t *testing.T) {
	out, err := run(t, "yadi sahi barabar sahi { dekhau 1; }")
	require.NoError(t, err)
	assert.Equal(t, "1", firstLine(out))
}

func TestIfSkippedBranchFallsThroughToNextStatement(t *testing.T) {
	out, err := run(t, "yadi galat { dekhau 1; } dekhau 2;")
	require.NoError(t, err)
	assert.Equal(t, "2", firstLine(out))
}

// A false condition lands the instruction pointer on the ELSE opcode
// itself, whose unconditional forward skip then jumps over the else block
// too — under this encoding an else block never executes, on either path.
// What matters is that the pool replay through both skips keeps every
// later statement resolving against its own constants.
func TestIfFalseWithElseSkipsBothBranches(t *testing.T) {
	out, err := run(t, "yadi galat { dekhau 1; } natra { dekhau 2; } dekhau 3;")
	require.NoError(t, err)
	assert.Equal(t, "3", firstLine(out))
}

func TestIfTrueWithElseRunsOnlyTruthyBranch(t *testing.T) {
	out, err := run(t, "yadi sahi barabar sahi { dekhau 1; } natra { dekhau 2; } dekhau 3;")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0])
	assert.Equal(t, "3", lines[1])
}

func TestNegativeAndDivision(t *testing.T) {
	out, err := run(t, "dekhau 0 - 3;")
	require.NoError(t, err)
	assert.Equal(t, "-3", firstLine(out))

	out, err = run(t, "dekhau 7 / 2;")
	require.NoError(t, err)
	assert.Equal(t, "3", firstLine(out))

	out, err = run(t, "dekhau 7.0 / 2;")
	require.NoError(t, err)
	assert.Equal(t, "3.5", firstLine(out))
}

func TestComparisonPopOrderIsLeftOperandFirst(t *testing.T) {
	out, err := run(t, "dekhau 5 thulo 3;")
	require.NoError(t, err)
	assert.Equal(t, "sahi", firstLine(out))

	out, err = run(t, "dekhau 3 thulo 5;")
	require.NoError(t, err)
	assert.Equal(t, "galat", firstLine(out))

	out, err = run(t, "dekhau 5 sano 3;")
	require.NoError(t, err)
	assert.Equal(t, "galat", firstLine(out))
}

func TestLiteralRoundTrip(t *testing.T) {
	out, err := run(t, `dekhau sahi; dekhau galat; dekhau nil; dekhau 2.5; dekhau "k";`)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"sahi", "galat", "nil", "2.5", "k"}, lines)
}

func TestUnaryNegateAndNot(t *testing.T) {
	out, err := run(t, "dekhau -5; dekhau chhaina galat;")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "-5", lines[0])
	assert.Equal(t, "sahi", lines[1])
}

func TestArithmeticTypeMismatchFaults(t *testing.T) {
	_, err := run(t, "dekhau 1 + sahi;")
	assert.ErrorIs(t, err, ErrBadOperand)
}

func TestNegateOnStringFaults(t *testing.T) {
	_, err := run(t, `dekhau -"a";`)
	assert.ErrorIs(t, err, ErrBadNegateOperand)
}

func TestMixedKindEqualityFaults(t *testing.T) {
	_, err := run(t, `dekhau 1 barabar "1";`)
	assert.ErrorIs(t, err, ErrBadComparisonOperand)
}

func TestUndefinedGlobalFaults(t *testing.T) {
	_, err := run(t, "dekhau never_declared;")
	assert.ErrorIs(t, err, ErrUndefinedGlobal)
}

func TestNotOnIntIsZeroTest(t *testing.T) {
	out, err := run(t, "dekhau chhaina 0; dekhau chhaina 5;")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "sahi", lines[0])
	assert.Equal(t, "galat", lines[1])
}

func TestNotOnStringFaults(t *testing.T) {
	_, err := run(t, `rakha x ma "hi"; dekhau chhaina x;`)
	assert.ErrorIs(t, err, ErrBadNotOperand)
}

// AND/OR have no surface syntax (the grammar never produces them), so
// these exercise the opcodes on hand-built chunks.
func TestBitwiseAndOr(t *testing.T) {
	cases := []struct {
		op   bytecode.Opcode
		a, b int64
		want string
	}{
		{bytecode.OpAnd, 6, 3, "2"},
		{bytecode.OpOr, 6, 1, "7"},
	}
	for _, c := range cases {
		var chunk bytecode.Chunk
		chunk.EmitInt(c.a)
		chunk.EmitInt(c.b)
		chunk.Write(c.op)
		chunk.Write(bytecode.OpPrint)

		var out bytes.Buffer
		m := New(&chunk, &out)
		require.NoError(t, m.Run())
		assert.Equal(t, c.want, firstLine(out.String()), c.op.String())
	}
}

func TestAndOnNonIntFaults(t *testing.T) {
	var chunk bytecode.Chunk
	chunk.EmitBool(true)
	chunk.EmitInt(1)
	chunk.Write(bytecode.OpAnd)

	m := New(&chunk, &bytes.Buffer{})
	err := m.Run()
	assert.ErrorIs(t, err, ErrBadLogicalOperand)
}

func TestPoolFIFOSurvivesASkippedIfBranchWithMixedPoolOpcodes(t *testing.T) {
	// The skipped branch emits CONST, TRUE, and DEF_GLOBAL pool entries;
	// SkipPoolEntries must dequeue all three so the later `dekhau y;`
	// still resolves against its own, still-correctly-queued constant.
	out, err := run(t, `yadi galat { rakha y ma sahi; dekhau 1; } rakha y ma 42; dekhau y;`)
	require.NoError(t, err)
	assert.Equal(t, "42", firstLine(out))
}

func TestExpressionStatementLeaksOneStackValue(t *testing.T) {
	toks := lexer.New("test.bish", "1 + 1; rakha x ma 2;").Tokenize()
	var diagBuf, warnBuf bytes.Buffer
	chunk, ok := compiler.New(&diagBuf, &warnBuf, "test.bish", toks).Compile()
	require.True(t, ok, diagBuf.String())

	var out bytes.Buffer
	m := New(chunk, &out)
	require.NoError(t, m.Run())
	// The dump line for the bare expression's leaked value is the only
	// remaining stack entry once DEF_GLOBAL has consumed x's own value.
	assert.Equal(t, "[2]", firstLine(out.String()))
}

func TestStackUnderflowOnEmptyPop(t *testing.T) {
	m := New(nil, &bytes.Buffer{})
	_, err := m.pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)
}
