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

// stage1Result carries the three independent error conditions structural
// indexing can detect, reported in fixed priority order: UTF-8 error, then
// unescaped control character, then unclosed string.
type stage1Result struct {
	utf8Error      bool
	unescapedError bool
	unclosedString bool
	structurals    int
}

func (r stage1Result) err() error {
	switch {
	case r.utf8Error:
		return ErrUTF8Error
	case r.unescapedError:
		return ErrUnescapedChars
	case r.unclosedString:
		return ErrUnclosedString
	}
	return nil
}

// findStructuralIndices is stage 1: it walks buf one block at a time,
// classifying whitespace and operators, tracking string state, validating
// UTF-8, and fusing the result into the structural-start mask, flattening
// each block's structurals into
// batches pushed down out. It closes out unconditionally, even on error, so
// a blocked stage-2 goroutine reading from out is never left hanging.
//
// With ndjson set, newline bytes outside string literals are reported as
// structurals too, so stage 2 can close one root and open the next at each
// document boundary.
func findStructuralIndices(buf []byte, out chan<- indexBatch, ndjson bool) stage1Result {
	defer close(out)

	reader := newBlockReader(buf)
	if reader.empty() {
		return stage1Result{}
	}

	var (
		scanner        stringScanner
		follower       scalarFollower
		validate       utf8Validator
		batch          indexBatch
		total          int
		unescapedFound bool
	)

	for {
		block, base, ok := reader.next()
		if !ok {
			break
		}
		validate.processBlock(block)

		structuralStart, unescaped := structuralMasksForBlock(block, &scanner, &follower, ndjson)

		flattenBits(batch.offsets[:], &batch.n, uint32(base), structuralStart)
		if unescaped != 0 {
			unescapedFound = true
		}
		if batch.n >= indexBatchFlush {
			total += batch.n
			out <- batch
			batch = indexBatch{}
		}
	}

	// Trailing sentinels: len, len, 0, so stage 2 can always look one token ahead.
	// Up to two more entries may need a fresh batch if the current one is full.
	n := uint32(len(buf))
	sentinels := [3]uint32{n, n, 0}
	for _, s := range sentinels {
		if batch.n >= indexBatchSize {
			total += batch.n
			out <- batch
			batch = indexBatch{}
		}
		batch.offsets[batch.n] = s
		batch.n++
	}

	total += batch.n
	if batch.n > 0 {
		out <- batch
	}

	res := stage1Result{
		utf8Error:      !validate.finish(),
		unescapedError: unescapedFound,
		unclosedString: scanner.prevInString != 0,
		structurals:    total,
	}
	return res
}
