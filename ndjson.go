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

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"sync"
)

// Stream is used to stream back results from ParseNDStream.
// Either Error or Value will be set on a returned result.
type Stream struct {
	Value *ParsedJson
	Error error
}

// ParseNDStream parses a stream of newline-delimited JSON and sends parsed
// results to res. The function returns immediately; parsing continues in
// the background. Each result holds an unspecified number of complete
// elements, so every result is guaranteed to start and end on an element
// boundary. The parser keeps working until a write to res would block, at
// which point it blocks rather than drop data. A stream is finished when a
// non-nil Error is returned; res is closed immediately after. If the
// stream was read to completion, the final Error is io.EOF.
//
// An optional channel of previously consumed results can be supplied via
// reuse to cut down on allocations; there's no guarantee a value written
// there is ever picked up, so always send to it with a non-blocking write.
//
// A bufio reader feeds newline-aligned chunks to a bounded queue of worker
// goroutines, and a single forwarder goroutine drains that queue in order
// so results reach res in the same sequence they appear in r.
func ParseNDStream(r io.Reader, res chan<- Stream, reuse <-chan *ParsedJson, opts ...ParserOption) {
	const tmpSize = 10 << 20
	buf := bufio.NewReaderSize(r, tmpSize)
	tmpPool := sync.Pool{New: func() interface{} {
		return make([]byte, tmpSize+1024)
	}}
	conc := (runtime.GOMAXPROCS(0) + 1) / 2
	if conc < 1 {
		conc = 1
	}
	queue := make(chan chan Stream, conc)

	go func() {
		defer close(res)
		for items := range queue {
			res <- <-items
		}
	}()

	go func() {
		defer close(queue)
		for {
			tmp := tmpPool.Get().([]byte)
			tmp = tmp[:tmpSize]
			n, err := buf.Read(tmp)
			if err != nil && err != io.EOF {
				queueStreamError(queue, fmt.Errorf("reading input: %w", err))
				return
			}
			tmp = tmp[:n]
			if err != io.EOF {
				b, err2 := buf.ReadBytes('\n')
				if err2 != nil && err2 != io.EOF {
					queueStreamError(queue, fmt.Errorf("reading input: %w", err2))
					return
				}
				tmp = append(tmp, b...)
				err = err2
			}

			if len(tmp) > 0 {
				result := make(chan Stream, 0)
				queue <- result
				go func(tmp []byte) {
					var reuseJSON *ParsedJson
					select {
					case v := <-reuse:
						reuseJSON = v
					default:
					}
					parsed, parseErr := ParseND(tmp, reuseJSON, opts...)
					if parseErr != nil {
						result <- Stream{Error: fmt.Errorf("parsing input: %w", parseErr)}
						return
					}
					result <- Stream{Value: parsed}
				}(tmp)
			} else {
				tmpPool.Put(tmp)
			}
			if err != nil {
				queueStreamError(queue, err)
				return
			}
		}
	}()
}

func queueStreamError(queue chan chan Stream, err error) {
	result := make(chan Stream, 0)
	queue <- result
	result <- Stream{Error: err}
}
