// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collectSeqs(emitted *[]uint64) func(Completion) {
	return func(c Completion) {
		*emitted = append(*emitted, c.Seq)
	}
}

func TestReorderBuffer_InOrderPassThrough(t *testing.T) {
	var emitted []uint64

	b := NewReorderBuffer(collectSeqs(&emitted))

	for seq := range uint64(4) {
		b.Push(Completion{Seq: seq})
	}

	assert.Equal(t, []uint64{0, 1, 2, 3}, emitted)
	assert.Zero(t, b.Len())
}

func TestReorderBuffer_OutOfOrderHeldThenFlushed(t *testing.T) {
	var emitted []uint64

	b := NewReorderBuffer(collectSeqs(&emitted))

	b.Push(Completion{Seq: 2})
	b.Push(Completion{Seq: 1})
	assert.Empty(t, emitted, "nothing flushes before seq 0 arrives")
	assert.Equal(t, 2, b.Len())

	b.Push(Completion{Seq: 0})
	assert.Equal(t, []uint64{0, 1, 2}, emitted, "contiguous run flushes opportunistically")
	assert.Zero(t, b.Len())
}

func TestReorderBuffer_InterleavedGaps(t *testing.T) {
	var emitted []uint64

	b := NewReorderBuffer(collectSeqs(&emitted))

	b.Push(Completion{Seq: 1})
	b.Push(Completion{Seq: 0})
	b.Push(Completion{Seq: 4})
	b.Push(Completion{Seq: 3})
	b.Push(Completion{Seq: 2})

	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, emitted)
	assert.Zero(t, b.Len())
	assert.Equal(t, uint64(5), b.NextExpected())
}
