// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package compiler implements the single-pass Pratt-style recursive-descent
// compiler: it drives the token stream and emits bytecode directly into a
// bytecode.Chunk, with no intermediate AST or IR stage.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	mapset "github.com/deckarep/golang-set"

	"github.com/rameshpdl/bish/lang/bytecode"
	"github.com/rameshpdl/bish/lang/diag"
	"github.com/rameshpdl/bish/lang/token"
)

// Precedence climbs low to high, matching the reference implementation's
// enum ordering exactly.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type prefixFn func(*Compiler)
type infixFn func(*Compiler)

type rule struct {
	prefix prefixFn
	infix  infixFn
	prec   Precedence
}

// Compiler holds all state for one compilation run. It is not reused across
// runs.
type Compiler struct {
	file   string
	tokens []token.Token
	pos    int // index of c.current in tokens

	current  token.Token
	previous token.Token

	chunk *bytecode.Chunk

	hadError  bool
	panicMode bool

	w io.Writer // diagnostic sink (stdout, per SPEC_FULL.md §6)

	declaredGlobals mapset.Set // duplicate-`rakha` warning, SPEC_FULL.md §10.4
	warn            io.Writer  // non-fatal warning sink (stderr)

	rules map[token.Type]rule
}

// New creates a Compiler over tokens (the full stream, EOF-terminated).
// Diagnostics are written to w; non-fatal warnings (duplicate globals) to
// warn.
func New(w, warn io.Writer, file string, tokens []token.Token) *Compiler {
	c := &Compiler{
		file:            file,
		tokens:          tokens,
		chunk:           &bytecode.Chunk{},
		w:               w,
		warn:            warn,
		declaredGlobals: mapset.NewSet(),
	}
	c.current = tokens[0]
	c.previous = tokens[0]
	c.rules = c.buildRules()
	return c
}

func (c *Compiler) buildRules() map[token.Type]rule {
	return map[token.Type]rule{
		token.LPAREN:    {prefix: (*Compiler).parseGrouping, prec: PrecNone},
		token.RPAREN:    {prec: PrecNone},
		token.LBRACE:    {prec: PrecNone},
		token.RBRACE:    {prec: PrecNone},
		token.FLOAT_NUM: {prefix: (*Compiler).parseNumber, prec: PrecNone},
		token.INT_NUM:   {prefix: (*Compiler).parseNumber, prec: PrecNone},
		token.PLUS:      {infix: (*Compiler).parseBinary, prec: PrecTerm},
		token.MINUS:     {prefix: (*Compiler).parseUnary, infix: (*Compiler).parseBinary, prec: PrecTerm},
		token.SLASH:     {infix: (*Compiler).parseBinary, prec: PrecFactor},
		token.STAR:      {infix: (*Compiler).parseBinary, prec: PrecFactor},
		token.THULO:     {infix: (*Compiler).parseBinary, prec: PrecComparison},
		token.SANO:      {infix: (*Compiler).parseBinary, prec: PrecComparison},
		token.BARABAR:   {infix: (*Compiler).parseBinary, prec: PrecEquality},
		token.SAHI:      {prefix: (*Compiler).parseLiteral, prec: PrecNone},
		token.GALAT:     {prefix: (*Compiler).parseLiteral, prec: PrecNone},
		token.NIL:       {prefix: (*Compiler).parseLiteral, prec: PrecNone},
		token.STRING:    {prefix: (*Compiler).parseString, prec: PrecNone},
		token.CHHAINA:   {prefix: (*Compiler).parseUnary, prec: PrecUnary},
		token.DEKHAU:    {prec: PrecNone},
		token.SEMICOLON: {prec: PrecNone},
		token.RAKHA:     {prec: PrecNone},
		token.MA:        {prec: PrecNone},
		token.IDENT:     {prefix: (*Compiler).parseVariable, prec: PrecNone},
		token.EOF:       {prec: PrecNone},
	}
}

func (c *Compiler) getRule(t token.Type) rule {
	if r, ok := c.rules[t]; ok {
		return r
	}
	return rule{prec: PrecNone}
}

// Compile drives the whole token stream and returns the resulting chunk and
// whether compilation succeeded (no diagnostics recorded). On failure the
// chunk is partial and must not be run.
func (c *Compiler) Compile() (*bytecode.Chunk, bool) {
	for !c.match(token.EOF) {
		c.parseDeclStmt()
		if c.panicMode {
			c.syncErr()
		}
	}
	return c.chunk, !c.hadError
}

func (c *Compiler) parseDeclStmt() {
	c.advance()
	if c.previous.Type == token.RAKHA {
		c.parseVarDeclStmt()
	} else {
		c.parseStmt()
	}
}

func (c *Compiler) parseVarDeclStmt() {
	if !c.match(token.IDENT) {
		c.errorAtCurrent(fmt.Sprintf("'rakha' pachhi variable ko naam dinus, '%s' hoina.", c.current.Literal))
		return
	}
	name := c.previous.Literal
	nameTok := c.previous

	if c.match(token.MA) {
		c.parseExpression()
		c.consume(token.SEMICOLON, "'rakha' statement pachhi ';' lekhnus.")
	} else {
		c.chunk.EmitNil()
		c.consume(token.SEMICOLON, fmt.Sprintf("'%s' ma value nabhaye pani ';' lekhnus.", name))
	}

	if c.declaredGlobals.Contains(name) {
		fmt.Fprintf(c.warn, "warning: %s redeclared at %s\n", name, nameTok.Pos)
	}
	c.declaredGlobals.Add(name)

	c.chunk.EmitDefGlobal(name)
}

func (c *Compiler) parseStmt() {
	switch c.previous.Type {
	case token.DEKHAU:
		c.parsePrintStmt()
	case token.YADI:
		c.parseIfStmt()
	case token.NATRA:
		c.parseNatraStmt()
	case token.LBRACE:
		c.parseBlockStmt()
	default:
		c.parseExprStmt()
	}
}

func (c *Compiler) parseIfStmt() {
	c.parseExpression()
	offset := c.chunk.EmitJumpPlaceholder(bytecode.OpJmpIfFalse)
	c.advance()
	c.parseBlockStmt()
	c.chunk.PatchJump(offset)
}

func (c *Compiler) parseNatraStmt() {
	offset := c.chunk.EmitJumpPlaceholder(bytecode.OpElse)
	c.advance()
	c.parseBlockStmt()
	c.chunk.PatchJump(offset)
}

func (c *Compiler) parseBlockStmt() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.parseDeclStmt()
	}
	c.consume(token.RBRACE, "'{' pachhi '}' le antya garnus.")
}

// parseExprStmt intentionally does not emit OP_POP — the expression's
// value remains on the stack (SPEC_FULL.md §9, preserved from the
// reference implementation).
func (c *Compiler) parseExprStmt() {
	// parseDeclStmt already consumed the expression's first token; step
	// back so parsePrecedence's own advance lands on it again.
	c.pos--
	c.current = c.previous
	c.parseExpression()
	c.consume(token.SEMICOLON, fmt.Sprintf("'%s' pachhi ';' lekhnus.", c.previous.Literal))
}

func (c *Compiler) parsePrintStmt() {
	c.parseExpression()
	c.consume(token.SEMICOLON, "dekhau statement pachhi ';' lekhnus.")
	c.chunk.Write(bytecode.OpPrint)
}

func (c *Compiler) syncErr() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.current.Type == token.SEMICOLON {
			c.advance()
			return
		}
		switch c.current.Type {
		case token.DEKHAU, token.GHUMAU:
			return
		}
		c.advance()
	}
	c.panicMode = false
}

func (c *Compiler) parseExpression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence implements the Pratt loop. The infix call for binary
// operators climbs to prec+1 (not prec), making the grammar
// left-associative as SPEC_FULL.md §9 directs — the reference
// implementation's identical-precedence recursion made it accidentally
// right-associative.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	if prefix := c.getRule(c.previous.Type).prefix; prefix != nil {
		prefix(c)
	} else {
		c.errorAt(c.previous, fmt.Sprintf("'%s' pachhadi expression chahiyo.", c.previous.Literal))
		return
	}

	for prec <= c.getRule(c.current.Type).prec {
		c.advance()
		if infix := c.getRule(c.previous.Type).infix; infix != nil {
			infix(c)
		}
	}
}

func (c *Compiler) parseLiteral() {
	switch c.previous.Type {
	case token.SAHI:
		c.chunk.EmitBool(true)
	case token.GALAT:
		c.chunk.EmitBool(false)
	case token.NIL:
		c.chunk.EmitNil()
	}
}

func (c *Compiler) parseString() {
	c.chunk.EmitString(c.previous.Literal)
}

func (c *Compiler) parseVariable() {
	c.chunk.EmitLoadGlobal(c.previous.Literal)
}

func (c *Compiler) parseNumber() {
	switch c.previous.Type {
	case token.FLOAT_NUM:
		f, _ := strconv.ParseFloat(c.previous.Literal, 64)
		c.chunk.EmitFloat(f)
	case token.INT_NUM:
		i, _ := strconv.ParseInt(c.previous.Literal, 10, 64)
		c.chunk.EmitInt(i)
	}
}

// parseBinary reads the operator's own precedence and recurses at prec+1,
// giving left-associative binary expressions.
func (c *Compiler) parseBinary() {
	opType := c.previous.Type
	prec := c.getRule(opType).prec
	c.parsePrecedence(prec + 1)

	switch opType {
	case token.PLUS:
		c.chunk.Write(bytecode.OpAdd)
	case token.MINUS:
		c.chunk.Write(bytecode.OpSubtract)
	case token.STAR:
		c.chunk.Write(bytecode.OpMultiply)
	case token.SLASH:
		c.chunk.Write(bytecode.OpDivide)
	case token.THULO:
		c.chunk.Write(bytecode.OpGt)
	case token.SANO:
		c.chunk.Write(bytecode.OpLt)
	case token.BARABAR:
		c.chunk.Write(bytecode.OpEqEq)
	}
}

func (c *Compiler) parseUnary() {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.MINUS:
		c.chunk.Write(bytecode.OpNegate)
	case token.CHHAINA:
		c.chunk.Write(bytecode.OpNot)
	}
}

func (c *Compiler) parseGrouping() {
	c.parseExpression()
	c.consume(token.RPAREN, "'(' pachhi ')' le antya garnus.")
}

// match advances and returns true if c.current is of type t; otherwise it
// leaves the cursor untouched and returns false.
func (c *Compiler) match(t token.Type) bool {
	if c.current.Type == t {
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) advance() {
	c.previous = c.current
	c.pos++
	if c.pos < len(c.tokens) {
		c.current = c.tokens[c.pos]
	}
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	diag.Report(c.w, diag.Diagnostic{Category: diag.CompileError, Message: msg, Pos: tok.Pos})
}
