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

// Minify reuses the same classification and string-scanner masks as
// structural indexing to strip whitespace that falls outside string
// literals, without building a tape at all.
func Minify(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmpty
	}
	dst := make([]byte, 0, len(buf))

	reader := newBlockReader(buf)
	var scanner stringScanner
	for {
		block, base, ok := reader.next()
		if !ok {
			break
		}
		whitespace, _ := classifyBlock(block)
		sm := scanner.scanBlock(block)
		keep := ^(whitespace &^ sm.inString)

		n := len(buf) - base
		if n > blockSize {
			n = blockSize
		}
		for i := 0; i < n; i++ {
			if keep&(1<<uint(i)) != 0 {
				dst = append(dst, block[i])
			}
		}
	}
	return dst, nil
}
