// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitter_WhitespaceMode(t *testing.T) {
	s := NewSplitter("")
	assert.Equal(t, []string{"a", "b", "c"}, s.Split("  a \t b   c "))
	assert.Empty(t, s.Split("   "))
	assert.Equal(t, "a b", s.Join([]string{"a", "b"}))
}

func TestSplitter_ExplicitSeparator(t *testing.T) {
	s := NewSplitter(",")
	assert.Equal(t, []string{"a", "", "c"}, s.Split("a,,c"))
	assert.Equal(t, []string{" a", "b "}, s.Split(" a,b "), "no trimming with an explicit separator")
	assert.Equal(t, "a,,c", s.Join([]string{"a", "", "c"}))
}

func TestSplitter_MultiByteSeparator(t *testing.T) {
	s := NewSplitter("::")
	assert.Equal(t, []string{"a", "b"}, s.Split("a::b"))
	assert.Equal(t, "a::b", s.Join([]string{"a", "b"}))
}
