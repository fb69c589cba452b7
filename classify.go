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

// Nibble lookup tables. Indexed by the low nibble of a byte, each
// table answers "is this byte one of the canonical members of my class?" by
// returning the canonical byte sharing that nibble; comparing the table
// result against the original byte answers the membership question without
// a branch per candidate value.
var whitespaceTable = [16]byte{
	0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x09, 0x0A, 0x00, 0x00, 0x0D, 0x00, 0x00,
}

// opTableSize biases the op table to (byte - ','), so '{' '}' '[' ']' ',' ':'
// all land in [0, opTableSize); any other byte either wraps out of range
// (bytes below ',') or exceeds it (bytes above '}'), which the caller treats
// identically to a table miss (not an operator).
const opTableSize = '}' - ',' + 1

var opTable = [opTableSize]byte{
	',' - ',': ',',
	':' - ',': ':',
	'[' - ',': '[',
	']' - ',': ']',
	'{' - ',': '{',
	'}' - ',': '}',
}

// classifyBlock computes the whitespace and structural-operator bitmasks for
// a blockSize-byte block. Bit i of each mask describes buf[i].
func classifyBlock(buf []byte) (whitespace, op uint64) {
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if whitespaceTable[c&0x0F] == c {
			whitespace |= 1 << uint(i)
		}
		if d := c - ','; d < opTableSize && opTable[d] == c {
			op |= 1 << uint(i)
		}
	}
	return
}
