// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

import "testing"

func TestLookupIdentFindsKeywords(t *testing.T) {
	cases := map[string]Type{
		"rakha":   RAKHA,
		"dekhau":  DEKHAU,
		"yadi":    YADI,
		"natra":   NATRA,
		"sahi":    SAHI,
		"galat":   GALAT,
		"nil":     NIL,
		"thulo":   THULO,
		"sano":    SANO,
		"barabar": BARABAR,
		"chhaina": CHHAINA,
		"ghumau":  GHUMAU,
		"patak":   PATAK,
		"ma":      MA,
	}
	for lexeme, want := range cases {
		if got := LookupIdent(lexeme); got != want {
			t.Errorf("LookupIdent(%q) = %s, want %s", lexeme, got, want)
		}
	}
}

func TestLookupIdentFallsBackToIdent(t *testing.T) {
	if got := LookupIdent("agent_x"); got != IDENT {
		t.Errorf("LookupIdent(%q) = %s, want IDENT", "agent_x", got)
	}
}

func TestIsKeyword(t *testing.T) {
	if !RAKHA.IsKeyword() {
		t.Error("RAKHA should be a keyword")
	}
	if IDENT.IsKeyword() {
		t.Error("IDENT should not be a keyword")
	}
	if EOF.IsKeyword() {
		t.Error("EOF should not be a keyword")
	}
}

func TestPositionString(t *testing.T) {
	p := Position{File: "prog.bish", Line: 2, Column: 5}
	if got, want := p.String(), "prog.bish:2:5"; got != want {
		t.Errorf("Position.String() = %q, want %q", got, want)
	}

	p2 := Position{Line: 1, Column: 1}
	if got, want := p2.String(), "1:1"; got != want {
		t.Errorf("Position.String() (no file) = %q, want %q", got, want)
	}
}
