/*
 * simdjson-go, (C) 2026 The OpenJSON Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package simdjson

import "math/bits"

// indexBatchSize is the capacity of one structural-index batch handed from
// stage 1 to stage 2. A batch is flushed once it gets within 128 offsets
// (two blocks' worth of structurals) of its capacity, so the unrolled flattening below
// never has to bounds-check mid-block.
const (
	indexBatchSize  = 1536
	indexBatchFlush = indexBatchSize - 128
)

// indexBatch is one fixed-size window of structural byte offsets in flight
// between the stage-1 goroutine and the stage-2 goroutine.
type indexBatch struct {
	offsets [indexBatchSize]uint32
	n       int
}

// scalarFollower tracks whether the block boundary split a run of scalar
// bytes, so "scalar-start" (the first byte of a number/string/atom token)
// is computed correctly across blocks.
type scalarFollower struct {
	prevScalar uint64 // 0 or 1
}

// structuralMasksForBlock fuses the classifier and string-scanner outputs
// into the structural-start and unescaped-control masks.
// With ndjson set, newlines outside strings count as structurals so stage 2
// sees the document boundaries.
func structuralMasksForBlock(buf []byte, ss *stringScanner, sf *scalarFollower, ndjson bool) (structuralStart, unescapedControl uint64) {
	whitespace, op := classifyBlock(buf)
	sm := ss.scanBlock(buf)

	scalar := ^(whitespace | op)

	followsPrevScalar := (scalar << 1) | sf.prevScalar
	sf.prevScalar = scalar >> 63

	potentialStructural := op | (scalar &^ followsPrevScalar)
	structuralStart = potentialStructural &^ sm.stringTail
	if ndjson {
		structuralStart |= loadBlockBits(buf, '\n') &^ sm.stringTail
	}

	controlChar := loadBlockBitsLE(buf, 0x1F)
	unescapedControl = controlChar & sm.inString &^ sm.quote
	return
}

// loadBlockBitsLE sets bit i iff buf[i] <= max. Used for the "is this an
// unescaped control character" test (byte <= 0x1F).
func loadBlockBitsLE(buf []byte, max byte) uint64 {
	var mask uint64
	for i := 0; i < len(buf); i++ {
		if buf[i] <= max {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// flattenBits appends the set-bit positions of mask (offset by base) into
// dst starting at *pos. Up to 8 (then 16, then the rest) offsets are
// written unconditionally
// per round and the cursor is advanced by the true popcount afterward, so
// the "extra" writes past the real count land harmlessly in the slack
// capacity baked into indexBatchSize/indexBatchFlush. dst must have at
// least 7 words of room past *pos + popcount(mask).
func flattenBits(dst []uint32, pos *int, base uint32, mask uint64) {
	cnt := bits.OnesCount64(mask)
	if cnt == 0 {
		return
	}
	p := *pos
	for i := 0; i < 8; i++ {
		dst[p+i] = base + uint32(bits.TrailingZeros64(mask))
		mask &= mask - 1
	}
	if cnt > 8 {
		for i := 8; i < 16; i++ {
			dst[p+i] = base + uint32(bits.TrailingZeros64(mask))
			mask &= mask - 1
		}
		if cnt > 16 {
			for i := 16; mask != 0; i++ {
				dst[p+i] = base + uint32(bits.TrailingZeros64(mask))
				mask &= mask - 1
			}
		}
	}
	*pos = p + cnt
}
