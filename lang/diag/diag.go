// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package diag renders the compiler's and VM's diagnostic lines on the
// interpreter's contractual stdout surface.
//
// Output deliberately excludes the ANSI color escapes present in the
// reference implementation's error_at (ordered by SPEC_FULL.md §7: terminal
// color is an out-of-scope external concern on this path, kept plain so the
// golden end-to-end output stays byte-stable).
package diag

import (
	"fmt"
	"io"

	"github.com/rameshpdl/bish/lang/token"
)

// Category selects the diagnostic's leading label.
type Category int

const (
	CompileError Category = iota
	TypeError
	RuntimeError
)

// String returns the category's leading label, e.g. "Runtime error".
func (c Category) String() string {
	return c.label()
}

func (c Category) label() string {
	switch c {
	case CompileError:
		return "Compilation error"
	case TypeError:
		return "Type error"
	case RuntimeError:
		return "Runtime error"
	default:
		return "Error"
	}
}

// Diagnostic is one reported problem, tied to a source position.
type Diagnostic struct {
	Category Category
	Message  string
	Pos      token.Position
}

// Report writes d to w in the interpreter's two-line diagnostic format:
//
//	<Category>: <message>
//	  --> path:line:column
func Report(w io.Writer, d Diagnostic) {
	fmt.Fprintf(w, "%s: %s\n", d.Category.label(), d.Message)
	fmt.Fprintf(w, "  --> %s\n", d.Pos)
}
