// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintCanonicalForms(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Int(42), "42"},
		{Int(-3), "-3"},
		{Float(3.5), "3.5"},
		{Float(2), "2"},
		{Bool(true), "sahi"},
		{Bool(false), "galat"},
		{Str("hi"), "hi"},
		{Nil, "nil"},
	}
	for _, c := range cases {
		got, err := c.v.Print()
		assert.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestPrintUnknownIsAnError(t *testing.T) {
	_, err := Unknown.Print()
	assert.Error(t, err)
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, Int(1).IsNumeric())
	assert.True(t, Float(1).IsNumeric())
	assert.False(t, Bool(true).IsNumeric())
	assert.False(t, Str("x").IsNumeric())
	assert.False(t, Nil.IsNumeric())
}

func TestAsFloat64Widens(t *testing.T) {
	assert.Equal(t, 3.0, Int(3).AsFloat64())
	assert.Equal(t, 3.5, Float(3.5).AsFloat64())
}

func TestEqualRequiresSameKind(t *testing.T) {
	assert.True(t, Int(5).Equal(Int(5)))
	assert.False(t, Int(5).Equal(Int(6)))
	assert.False(t, Int(5).Equal(Float(5)))
	assert.True(t, Str("a").Equal(Str("a")))
	assert.True(t, Nil.Equal(Nil))
	assert.True(t, Bool(true).Equal(Bool(true)))
}

func TestGoStringTagsEachVariant(t *testing.T) {
	assert.Equal(t, "Int(5)", Int(5).GoString())
	assert.Equal(t, `Str(2,"hi")`, Str("hi").GoString())
	assert.Equal(t, "Nil", Nil.GoString())
	assert.Equal(t, "Unknown", Unknown.GoString())
}
