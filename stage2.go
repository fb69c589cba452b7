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

import "encoding/binary"

// idxCursor pulls structural byte offsets out of the batches stage 1 is
// pushing over a channel, one at a time, blocking for the next batch only
// once the current one is exhausted.
type idxCursor struct {
	ch    <-chan indexBatch
	batch indexBatch
	pos   int
}

func (c *idxCursor) next() (uint32, bool) {
	for c.pos >= c.batch.n {
		b, ok := <-c.ch
		if !ok {
			return 0, false
		}
		c.batch = b
		c.pos = 0
	}
	v := c.batch.offsets[c.pos]
	c.pos++
	return v, true
}

func isStructuralOrWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '{', '}', '[', ']', ',', ':':
		return true
	}
	return false
}

func validAtomEnd(buf []byte, n int) bool {
	if len(buf) <= n {
		return true
	}
	return isStructuralOrWhitespace(buf[n])
}

func isValidTrueAtom(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 't' && buf[1] == 'r' && buf[2] == 'u' && buf[3] == 'e' && validAtomEnd(buf, 4)
}

func isValidFalseAtom(buf []byte) bool {
	return len(buf) >= 5 && buf[0] == 'f' && buf[1] == 'a' && buf[2] == 'l' && buf[3] == 's' && buf[4] == 'e' && validAtomEnd(buf, 5)
}

func isValidNullAtom(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 'n' && buf[1] == 'u' && buf[2] == 'l' && buf[3] == 'l' && validAtomEnd(buf, 4)
}

// findStringEnd scans buf starting just after the opening quote at idx for
// the matching unescaped closing quote, tracking backslash escapes as it
// goes. Stage 1, running alongside, checks the whole input for unclosed
// strings and raw control characters inside strings, and parseMessage
// reports its error ahead of stage 2's, so this walk only locates the
// boundary.
func findStringEnd(buf []byte, idx int) (end int, hasEscape bool, ok bool) {
	i := idx + 1
	for i < len(buf) {
		c := buf[i]
		if c == '\\' {
			hasEscape = true
			i += 2
			continue
		}
		if c == '"' {
			return i, hasEscape, true
		}
		i++
	}
	return 0, false, false
}

// parseStringAt decodes the string starting at buf[idx] (an opening quote)
// onto the tape: a STRING tag word pointing at its bytes plus a length
// word. Escaped strings are decoded into p.Strings; strings
// with no escapes are left pointing directly into the message when
// copyStrings is false.
func (p *Parser) parseStringAt(buf []byte, idx int) (newIdx int, err error) {
	end, hasEscape, ok := findStringEnd(buf, idx)
	if !ok {
		return 0, ErrUnclosedString
	}
	raw := buf[idx+1 : end]
	if !hasEscape {
		if p.copyStrings {
			start := len(p.Strings)
			p.Strings = appendStringEntry(p.Strings, raw)
			p.writeTape(STRINGBUFBIT+uint64(start), byte(TagString))
		} else {
			p.writeTape(uint64(idx+1), byte(TagString))
		}
		p.Tape = append(p.Tape, uint64(len(raw)))
		return end + 1, nil
	}
	start := len(p.Strings)
	p.Strings = append(p.Strings, 0, 0, 0, 0)
	p.Strings, err = decodeString(p.Strings, raw)
	if err != nil {
		return 0, err
	}
	n := len(p.Strings) - start - 4
	binary.LittleEndian.PutUint32(p.Strings[start:], uint32(n))
	p.Strings = append(p.Strings, 0)
	p.writeTape(STRINGBUFBIT+uint64(start), byte(TagString))
	p.Tape = append(p.Tape, uint64(n))
	return end + 1, nil
}

// appendStringEntry writes one string-buffer entry: a 4-byte little-endian
// length, the bytes themselves, and a NUL terminator.
func appendStringEntry(dst, s []byte) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	dst = append(dst, l[:]...)
	dst = append(dst, s...)
	return append(dst, 0)
}

// parseNumberAt parses the number token starting at buf[idx] onto the tape.
func (p *Parser) parseNumberAt(buf []byte, idx int) (newIdx int, err error) {
	n, num, err := parseNumber(buf[idx:])
	if err != nil {
		return 0, err
	}
	switch num.tag {
	case TagInteger:
		p.writeTapeS64(num.i)
	case TagUint:
		p.writeTapeU64(num.u)
	case TagFloat:
		if num.flags == 0 {
			p.writeTapeDouble(num.f)
		} else {
			p.writeTapeDoubleFlags(num.f, uint64(num.flags))
		}
	}
	return idx + n, nil
}

// unifiedMachine walks the structural index stage 1 produces, building the
// tape in a single top-to-bottom pass with an explicit state stack instead
// of recursion, with a per-scope element counter so container-start
// payloads carry the packed child count.
func (p *Parser) unifiedMachine(buf []byte, indexCh <-chan indexBatch, ndjson bool) (err error) {
	cur := idxCursor{ch: indexCh}

	next := func() (int, bool) {
		v, ok := cur.next()
		return int(v), ok
	}

	idx := 0
	var ok bool

	pushScope := func(ret retAddress) error {
		if len(p.scope) >= p.maxDepth {
			return ErrDepthError
		}
		p.scope = append(p.scope, scopeFrame{tapeIndex: p.getCurrentLoc(), ret: ret})
		return nil
	}
	bumpCount := func() {
		if n := len(p.scope); n > 0 {
			p.scope[n-1].count++
		}
	}

	if err := pushScope(retStart); err != nil {
		return err
	}
	p.writeTape(0, byte(TagRoot))

	if idx, ok = next(); !ok {
		goto succeed
	}

continueRoot:
	// The root frame is on top of the scope stack here; its single
	// top-level value counts toward the packed count on the root word.
	bumpCount()
	switch buf[idx] {
	case '{':
		if err = pushScope(retStart); err != nil {
			return err
		}
		p.writeTape(0, '{')
		goto objectBegin
	case '[':
		if err = pushScope(retStart); err != nil {
			return err
		}
		p.writeTape(0, '[')
		goto arrayBegin
	case '"':
		if _, err = p.parseStringAt(buf, idx); err != nil {
			return err
		}
		goto startContinue
	case 't':
		if !isValidTrueAtom(buf[idx:]) {
			return ErrTAtomError
		}
		p.writeTape(0, 't')
		goto startContinue
	case 'f':
		if !isValidFalseAtom(buf[idx:]) {
			return ErrFAtomError
		}
		p.writeTape(0, 'f')
		goto startContinue
	case 'n':
		if !isValidNullAtom(buf[idx:]) {
			return ErrNAtomError
		}
		p.writeTape(0, 'n')
		goto startContinue
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-':
		if _, err = p.parseNumberAt(buf, idx); err != nil {
			return err
		}
		goto startContinue
	default:
		goto fail
	}

startContinue:
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	if !ndjson || buf[idx] != '\n' {
		goto fail
	}
	for buf[idx] == '\n' {
		if idx, ok = next(); !ok || idx >= len(buf) {
			goto succeed
		}
	}
	{
		frame := p.scope[len(p.scope)-1]
		p.scope = p.scope[:len(p.scope)-1]
		count := uint64(frame.count)
		if count > maxContainerCount {
			count = maxContainerCount
		}
		p.annotatePreviousLoc(frame.tapeIndex, (p.getCurrentLoc()+1)|(count<<containerCountShift))
		p.writeTape(frame.tapeIndex, byte(TagRoot))
		if err = pushScope(retStart); err != nil {
			return err
		}
		p.writeTape(0, byte(TagRoot))
	}
	goto continueRoot

	////////////////////////////// OBJECT STATES /////////////////////////////
objectBegin:
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	switch buf[idx] {
	case '"':
		if _, err = p.parseStringAt(buf, idx); err != nil {
			return err
		}
		goto objectKeyState
	case '}':
		goto scopeEnd
	default:
		goto fail
	}

objectKeyState:
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	if buf[idx] != ':' {
		goto fail
	}
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	bumpCount()
	switch buf[idx] {
	case '"':
		if _, err = p.parseStringAt(buf, idx); err != nil {
			return err
		}
	case 't':
		if !isValidTrueAtom(buf[idx:]) {
			return ErrTAtomError
		}
		p.writeTape(0, 't')
	case 'f':
		if !isValidFalseAtom(buf[idx:]) {
			return ErrFAtomError
		}
		p.writeTape(0, 'f')
	case 'n':
		if !isValidNullAtom(buf[idx:]) {
			return ErrNAtomError
		}
		p.writeTape(0, 'n')
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-':
		if _, err = p.parseNumberAt(buf, idx); err != nil {
			return err
		}
	case '{':
		if err = pushScope(retObject); err != nil {
			return err
		}
		p.writeTape(0, '{')
		goto objectBegin
	case '[':
		if err = pushScope(retObject); err != nil {
			return err
		}
		p.writeTape(0, '[')
		goto arrayBegin
	default:
		goto fail
	}

objectContinue:
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	switch buf[idx] {
	case ',':
		if idx, ok = next(); !ok || idx >= len(buf) {
			goto succeed
		}
		if buf[idx] != '"' {
			goto fail
		}
		if _, err = p.parseStringAt(buf, idx); err != nil {
			return err
		}
		goto objectKeyState
	case '}':
		goto scopeEnd
	default:
		goto fail
	}

	////////////////////////////// COMMON STATE /////////////////////////////
scopeEnd:
	{
		frame := p.scope[len(p.scope)-1]
		p.scope = p.scope[:len(p.scope)-1]
		count := uint64(frame.count)
		if count > maxContainerCount {
			count = maxContainerCount
		}
		p.writeTape(frame.tapeIndex, buf[idx])
		p.annotatePreviousLoc(frame.tapeIndex, (p.getCurrentLoc())|(count<<containerCountShift))
		switch frame.ret {
		case retArray:
			goto arrayContinue
		case retObject:
			goto objectContinue
		default:
			goto startContinue
		}
	}

	////////////////////////////// ARRAY STATES /////////////////////////////
arrayBegin:
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	if buf[idx] == ']' {
		goto scopeEnd
	}

mainArraySwitch:
	bumpCount()
	switch buf[idx] {
	case '"':
		if _, err = p.parseStringAt(buf, idx); err != nil {
			return err
		}
	case 't':
		if !isValidTrueAtom(buf[idx:]) {
			return ErrTAtomError
		}
		p.writeTape(0, 't')
	case 'f':
		if !isValidFalseAtom(buf[idx:]) {
			return ErrFAtomError
		}
		p.writeTape(0, 'f')
	case 'n':
		if !isValidNullAtom(buf[idx:]) {
			return ErrNAtomError
		}
		p.writeTape(0, 'n')
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-':
		if _, err = p.parseNumberAt(buf, idx); err != nil {
			return err
		}
	case '{':
		if err = pushScope(retArray); err != nil {
			return err
		}
		p.writeTape(0, '{')
		goto objectBegin
	case '[':
		if err = pushScope(retArray); err != nil {
			return err
		}
		p.writeTape(0, '[')
		goto arrayBegin
	default:
		goto fail
	}

arrayContinue:
	if idx, ok = next(); !ok || idx >= len(buf) {
		goto succeed
	}
	switch buf[idx] {
	case ',':
		if idx, ok = next(); !ok || idx >= len(buf) {
			goto succeed
		}
		goto mainArraySwitch
	case ']':
		goto scopeEnd
	default:
		goto fail
	}

	////////////////////////////// FINAL STATES /////////////////////////////
succeed:
	{
		if len(p.scope) == 0 {
			goto fail
		}
		frame := p.scope[len(p.scope)-1]
		p.scope = p.scope[:len(p.scope)-1]
		if len(p.scope) != 0 {
			return ErrTapeError
		}
		count := uint64(frame.count)
		if count > maxContainerCount {
			count = maxContainerCount
		}
		p.annotatePreviousLoc(frame.tapeIndex, (p.getCurrentLoc()+1)|(count<<containerCountShift))
		p.writeTape(frame.tapeIndex, byte(TagRoot))
		return nil
	}

fail:
	return ErrTapeError
}
