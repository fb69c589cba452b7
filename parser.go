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
	"bytes"
)

// Parser owns the buffers a parse reuses across calls: the tape, the
// string arena, the structural-index batches in flight between stage 1
// and stage 2, and the open-container stack. A Parser is not safe for
// concurrent use, but independent Parsers run fully in parallel.
type Parser struct {
	ParsedJson

	scope []scopeFrame

	copyStrings bool
	maxDepth    int
	capacity    int
}

// scopeFrame is one entry of the open-container stack: the tape
// index of the container's start word, the number of children seen so
// far, and which state to resume in once the container closes.
type scopeFrame struct {
	tapeIndex uint64
	count     uint32
	ret       retAddress
}

type retAddress uint8

const (
	retStart retAddress = iota
	retObject
	retArray
)

// NewParser creates a Parser with the default options (copy strings,
// unbounded capacity, max depth 1024).
func NewParser(opts ...ParserOption) (*Parser, error) {
	p := &Parser{copyStrings: true, maxDepth: maxdepth}
	for _, o := range opts {
		if err := o(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Parser) initialize(size int) {
	avgTapeSize := size * 15 / 100
	if cap(p.Tape) < avgTapeSize {
		p.Tape = make([]uint64, 0, avgTapeSize)
	}
	p.Tape = p.Tape[:0]

	stringsSize := size / 10
	if stringsSize < 128 {
		stringsSize = 128
	}
	if cap(p.Strings) < stringsSize {
		p.Strings = make([]byte, 0, stringsSize)
	}
	p.Strings = p.Strings[:0]

	if cap(p.scope) < p.maxDepth {
		p.scope = make([]scopeFrame, 0, p.maxDepth)
	}
	p.scope = p.scope[:0]
}

func (p *Parser) parseMessage(msg []byte, ndjson bool) error {
	if p.capacity > 0 && len(msg) > p.capacity {
		return ErrCapacity
	}
	p.Message = bytes.TrimSpace(msg)
	if len(p.Message) == 0 {
		return ErrEmpty
	}
	p.initialize(len(p.Message))

	indexCh := make(chan indexBatch, 14)

	var stage1 stage1Result
	done := make(chan struct{})
	go func() {
		stage1 = findStructuralIndices(p.Message, indexCh, ndjson)
		close(done)
	}()

	stage2Err := p.unifiedMachine(p.Message, indexCh, ndjson)
	// Drain any batches stage 2 left behind (it aborts on the first error)
	// so the stage-1 goroutine is never stuck sending.
	for range indexCh {
	}
	<-done

	if err := stage1.err(); err != nil {
		return err
	}
	return stage2Err
}

// Parse parses a single JSON document from b. An optional previously
// returned ParsedJson may be passed as reuse to avoid reallocating its
// tape/string buffers.
func Parse(b []byte, reuse *ParsedJson, opts ...ParserOption) (*ParsedJson, error) {
	p, err := parserFor(reuse, opts)
	if err != nil {
		return nil, err
	}
	if err := p.parseMessage(b, false); err != nil {
		return nil, err
	}
	parsed := p.ParsedJson
	parsed.internal = p
	return &parsed, nil
}

// ParseND parses newline-delimited JSON: a sequence of JSON values each
// wrapped in its own root tape entry, back to back.
func ParseND(b []byte, reuse *ParsedJson, opts ...ParserOption) (*ParsedJson, error) {
	p, err := parserFor(reuse, opts)
	if err != nil {
		return nil, err
	}
	if err := p.parseMessage(b, true); err != nil {
		return nil, err
	}
	parsed := p.ParsedJson
	parsed.internal = p
	return &parsed, nil
}

func parserFor(reuse *ParsedJson, opts []ParserOption) (*Parser, error) {
	var p *Parser
	if reuse != nil && reuse.internal != nil {
		p = reuse.internal
		p.ParsedJson = *reuse
		p.ParsedJson.internal = nil
	} else {
		var err error
		p, err = NewParser(opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	for _, o := range opts {
		if err := o(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}
