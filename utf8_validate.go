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

// UTF-8 validation classifies each lead byte via table lookup, then checks
// the following continuation bytes against the exact bounds that byte's
// class requires, rejecting overlong encodings, surrogates, and codepoints
// above U+10FFFF. It walks one byte at a time since there is no vector
// compare to drive a lane-parallel version.

// leadInfo describes what a lead byte requires of its continuation bytes.
type leadInfo struct {
	length   uint8 // total sequence length, 0 if this byte cannot start a sequence
	lo0, hi0 byte  // inclusive bounds for the first continuation byte
}

// utf8Lead classifies every possible lead byte. Continuation bytes
// (0x80-0xBF) and invalid leads (0xC0, 0xC1, 0xF5-0xFF) have length 0.
var utf8Lead = func() [256]leadInfo {
	var t [256]leadInfo
	for b := 0x00; b <= 0x7F; b++ {
		t[b] = leadInfo{length: 1}
	}
	for b := 0xC2; b <= 0xDF; b++ {
		t[b] = leadInfo{length: 2, lo0: 0x80, hi0: 0xBF}
	}
	// 0xE0 must be followed by [0xA0, 0xBF] to forbid overlong 3-byte forms.
	t[0xE0] = leadInfo{length: 3, lo0: 0xA0, hi0: 0xBF}
	for b := 0xE1; b <= 0xEC; b++ {
		t[b] = leadInfo{length: 3, lo0: 0x80, hi0: 0xBF}
	}
	// 0xED must be followed by [0x80, 0x9F] to forbid encoding surrogates.
	t[0xED] = leadInfo{length: 3, lo0: 0x80, hi0: 0x9F}
	for b := 0xEE; b <= 0xEF; b++ {
		t[b] = leadInfo{length: 3, lo0: 0x80, hi0: 0xBF}
	}
	// 0xF0 must be followed by [0x90, 0xBF] to forbid overlong 4-byte forms.
	t[0xF0] = leadInfo{length: 4, lo0: 0x90, hi0: 0xBF}
	for b := 0xF1; b <= 0xF3; b++ {
		t[b] = leadInfo{length: 4, lo0: 0x80, hi0: 0xBF}
	}
	// 0xF4 must be followed by [0x80, 0x8F] to forbid codepoints > U+10FFFF.
	t[0xF4] = leadInfo{length: 4, lo0: 0x80, hi0: 0x8F}
	return t
}()

// ValidateUTF8 reports whether buf is valid UTF-8 end to end. It is
// exposed independently of Parse so callers that only need validation
// (not a full tape) have a direct entry point.
func ValidateUTF8(buf []byte) bool {
	v := utf8Validator{}
	v.processBlock(buf)
	return v.finish()
}

// utf8Validator accumulates state across the whole input for stage 1, so
// validation can run incrementally alongside structural indexing rather
// than requiring its own separate pass over the buffer. The multibyte
// carry across blocks is pending/pendingLeft: the number of continuation
// bytes still owed from a sequence whose lead byte appeared in an earlier
// block.
type utf8Validator struct {
	bad          bool
	pending      leadInfo
	pendingLeft  uint8 // continuation bytes still required
	pendingFirst bool  // next continuation byte must satisfy pending.lo0/hi0
}

func (v *utf8Validator) processBlock(buf []byte) {
	if v.bad {
		return
	}
	i := 0
	for i < len(buf) {
		b := buf[i]
		if v.pendingLeft > 0 {
			if v.pendingFirst {
				if b < v.pending.lo0 || b > v.pending.hi0 {
					v.bad = true
					return
				}
				v.pendingFirst = false
			} else if b < 0x80 || b > 0xBF {
				v.bad = true
				return
			}
			v.pendingLeft--
			i++
			continue
		}
		if b < 0x80 {
			i++
			continue
		}
		info := utf8Lead[b]
		if info.length < 2 {
			v.bad = true
			return
		}
		v.pending = info
		v.pendingLeft = info.length - 1
		v.pendingFirst = true
		i++
	}
}

// finish reports whether the stream ended on a complete sequence. A nonzero
// pendingLeft here means the input ended mid-sequence.
func (v *utf8Validator) finish() bool {
	return !v.bad && v.pendingLeft == 0
}
