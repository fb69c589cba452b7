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
	"errors"
	"fmt"
	"math"
)

// Tape word layout: [type:8][payload:56], little-endian in memory
// (Go's uint64 already matches host endianness, which is what the tape's
// consumers, running in this same process, assume).
const (
	JSONVALUEMASK = 0xFFFFFFFFFFFFFF
	JSONTAGOFFSET = 56
	JSONTAGMASK   = 0xFF << JSONTAGOFFSET

	// STRINGBUFBIT marks a STRING tape payload as pointing into the owned
	// Strings arena rather than directly into the source Message. With
	// string copying enabled (the default) the bit is always set; disabling
	// copying leaves escape-free strings pointing into the message.
	STRINGBUFBIT  = 0x80000000000000
	STRINGBUFMASK = 0x7FFFFFFFFFFFFF

	// containerIndexMask/containerCountShift pack the container payload:
	// end index in the low 32 bits, min(count, 0xFFFFFF) in the next 24.
	containerIndexMask  = 0xFFFFFFFF
	containerCountShift = 32
	maxContainerCount   = 0xFFFFFF
)

const maxdepth = 1024

// Tag indicates the data type of a tape entry.
type Tag uint8

const (
	TagString      = Tag('"')
	TagInteger     = Tag('l')
	TagUint        = Tag('u')
	TagFloat       = Tag('d')
	TagNull        = Tag('n')
	TagBoolTrue    = Tag('t')
	TagBoolFalse   = Tag('f')
	TagObjectStart = Tag('{')
	TagObjectEnd   = Tag('}')
	TagArrayStart  = Tag('[')
	TagArrayEnd    = Tag(']')
	TagRoot        = Tag('r')
	TagEnd         = Tag(0)

	// TagNop marks a tape slot as deleted: its payload is the number of
	// words (including itself) to skip to reach the end of the deleted
	// element, so each deleted element is jumped over in one step.
	TagNop = Tag('_')
)

var tagOpenToClose = [256]Tag{
	TagObjectStart: TagObjectEnd,
	TagArrayStart:  TagArrayEnd,
	TagRoot:        TagRoot,
}

func (t Tag) String() string { return string([]byte{byte(t)}) }

// Type is a JSON value type as seen by callers of the Iter API.
type Type uint8

const (
	TypeNone Type = iota
	TypeNull
	TypeString
	TypeInt
	TypeUint
	TypeFloat
	TypeBool
	TypeObject
	TypeArray
	TypeRoot
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeRoot:
		return "root"
	}
	return "(no type)"
}

// TagToType converts a tag to the type a caller sees. Only start tags carry
// a type for containers; end tags and TagEnd map to TypeNone.
var TagToType = [256]Type{
	TagString:      TypeString,
	TagInteger:     TypeInt,
	TagUint:        TypeUint,
	TagFloat:       TypeFloat,
	TagNull:        TypeNull,
	TagBoolTrue:    TypeBool,
	TagBoolFalse:   TypeBool,
	TagObjectStart: TypeObject,
	TagArrayStart:  TypeArray,
	TagRoot:        TypeRoot,
}

func (t Tag) Type() Type { return TagToType[t] }

// ParsedJson is the output of a parse: the tape, the decoded-string arena,
// and the (trimmed) source message, which escape-free strings point back
// into when string copying is disabled.
type ParsedJson struct {
	Message []byte
	Tape    []uint64
	Strings []byte

	internal *Parser
}

// Iter returns a fresh iterator positioned before the first tape entry.
func (pj *ParsedJson) Iter() Iter {
	return Iter{tape: *pj}
}

func (pj *ParsedJson) stringAt(offset, length uint64) (string, error) {
	b, err := pj.stringByteAt(offset, length)
	return string(b), err
}

func (pj *ParsedJson) stringByteAt(offset, length uint64) ([]byte, error) {
	if offset&STRINGBUFBIT == 0 {
		if offset+length > uint64(len(pj.Message)) {
			return nil, fmt.Errorf("string message offset (%v) outside valid area (%v)", offset+length, len(pj.Message))
		}
		return pj.Message[offset : offset+length], nil
	}
	// Arena entries carry a 4-byte little-endian length prefix and a NUL
	// terminator around the content; the tape's length word lets readers
	// skip straight past the prefix.
	offset &= STRINGBUFMASK
	if offset+4+length+1 > uint64(len(pj.Strings)) {
		return nil, fmt.Errorf("string buffer offset (%v) outside valid area (%v)", offset+4+length+1, len(pj.Strings))
	}
	return pj.Strings[offset+4 : offset+4+length], nil
}

// Reset clears a ParsedJson for manual reuse outside of the Parser-driven path.
func (pj *ParsedJson) Reset() {
	pj.Tape = pj.Tape[:0]
	pj.Strings = pj.Strings[:0]
	pj.Message = pj.Message[:0]
}

func (pj *ParsedJson) getCurrentLoc() uint64 {
	return uint64(len(pj.Tape))
}

// skipNops follows TagNop runs starting at off and returns the offset of the
// next live tape entry. Deleted elements (DeleteElems) are therefore
// invisible to iterator motion; only code reading the tape words raw sees
// them.
func (pj *ParsedJson) skipNops(off int) int {
	for off < len(pj.Tape) {
		v := pj.Tape[off]
		if Tag(v>>JSONTAGOFFSET) != TagNop {
			break
		}
		off += int(v & JSONVALUEMASK)
	}
	return off
}

func (pj *ParsedJson) writeTape(val uint64, c byte) {
	pj.Tape = append(pj.Tape, val|(uint64(c)<<JSONTAGOFFSET))
}

// writeTapeTagVal writes a tag with no embedded value plus a following raw
// value word, used for the two-word number/string tape entries.
func (pj *ParsedJson) writeTapeTagVal(tag Tag, val uint64) {
	pj.Tape = append(pj.Tape, uint64(tag)<<JSONTAGOFFSET, val)
}

func (pj *ParsedJson) writeTapeTagValFlags(tag Tag, val, flags uint64) {
	pj.Tape = append(pj.Tape, uint64(tag)<<JSONTAGOFFSET|flags, val)
}

func (pj *ParsedJson) writeTapeS64(val int64) {
	pj.writeTapeTagVal(TagInteger, uint64(val))
}

func (pj *ParsedJson) writeTapeU64(val uint64) {
	pj.writeTapeTagVal(TagUint, val)
}

func (pj *ParsedJson) writeTapeDouble(d float64) {
	pj.writeTapeTagVal(TagFloat, math.Float64bits(d))
}

func (pj *ParsedJson) writeTapeDoubleFlags(d float64, flags uint64) {
	pj.writeTapeTagValFlags(TagFloat, math.Float64bits(d), flags)
}

func (pj *ParsedJson) annotatePreviousLoc(savedLoc, val uint64) {
	pj.Tape[savedLoc] |= val
}

// Iter represents a cursor over a tape, queuing the next entry's type on
// each Advance call and restricting its own tape view when it steps into a
// child container via AdvanceIter.
type Iter struct {
	tape ParsedJson

	off     int // offset of the next entry to decode
	addNext int // entries to skip to reach the entry after the queued one

	cur uint64 // queued value, tag bits masked off
	t   Tag    // queued tag
}

func (i *Iter) moveToEnd() {
	i.off = len(i.tape.Tape)
	i.addNext = 0
	i.t = TagEnd
}

// calcNext populates addNext: numbers and strings occupy two tape words (tag
// + raw value), null/true/false and TagEnd one; containers/root skip to their end index
// (masked out of the packed count) unless into is set, moving one word in.
func (i *Iter) calcNext(into bool) {
	i.addNext = 0
	switch i.t {
	case TagInteger, TagUint, TagFloat, TagString:
		i.addNext = 1
	case TagRoot, TagObjectStart, TagArrayStart:
		if !into {
			end := int(i.cur & containerIndexMask)
			i.addNext = end - i.off
		}
	}
}

// Advance reads the type of the next element and queues its value for
// retrieval, without moving into objects or arrays.
func (i *Iter) Advance() Type {
	i.off = i.tape.skipNops(i.off + i.addNext)
	if i.off >= len(i.tape.Tape) {
		i.addNext = 0
		i.t = TagEnd
		return TypeNone
	}
	v := i.tape.Tape[i.off]
	i.cur = v & JSONVALUEMASK
	i.t = Tag(v >> JSONTAGOFFSET)
	i.off++
	i.calcNext(false)
	if i.addNext < 0 {
		i.moveToEnd()
		return TypeNone
	}
	return TagToType[i.t]
}

// AdvanceInto behaves like Advance but steps into containers/root instead
// of skipping past them.
func (i *Iter) AdvanceInto() Tag {
	i.off = i.tape.skipNops(i.off + i.addNext)
	if i.off >= len(i.tape.Tape) {
		i.addNext = 0
		i.t = TagEnd
		return TagEnd
	}
	v := i.tape.Tape[i.off]
	i.cur = v & JSONVALUEMASK
	i.t = Tag(v >> JSONTAGOFFSET)
	i.off++
	i.calcNext(true)
	return i.t
}

// AdvanceIter reads the type of the next element, same as Advance, and
// additionally returns an iterator restricted to just that element
// (including any children). dst may alias i.
func (i *Iter) AdvanceIter(dst *Iter) (Type, error) {
	i.off = i.tape.skipNops(i.off + i.addNext)
	if i.off == len(i.tape.Tape) {
		i.addNext = 0
		i.t = TagEnd
		return TypeNone, nil
	}
	if i.off > len(i.tape.Tape) {
		return TypeNone, errors.New("offset bigger than tape")
	}

	v := i.tape.Tape[i.off]
	i.cur = v & JSONVALUEMASK
	i.t = Tag(v >> JSONTAGOFFSET)
	i.off++
	i.calcNext(false)
	if i.addNext < 0 {
		i.moveToEnd()
		return TypeNone, errors.New("element has negative offset")
	}

	iEnd := i.off + i.addNext
	typ := TagToType[i.t]

	if i != dst {
		*dst = *i
	}
	dst.calcNext(true)
	if dst.addNext < 0 {
		i.moveToEnd()
		return TypeNone, errors.New("element has negative offset")
	}
	if iEnd > len(dst.tape.Tape) {
		return TypeNone, errors.New("element extends beyond tape")
	}
	dst.tape.Tape = dst.tape.Tape[:iEnd]
	return typ, nil
}

// Type returns the queued value's type.
func (i *Iter) Type() Type {
	if i.off+i.addNext > len(i.tape.Tape) {
		return TypeNone
	}
	return TagToType[i.t]
}

// PeekNext returns the type of the value after the queued one, without
// consuming anything.
func (i *Iter) PeekNext() Type {
	off := i.tape.skipNops(i.off + i.addNext)
	if off >= len(i.tape.Tape) {
		return TypeNone
	}
	return TagToType[Tag(i.tape.Tape[off]>>JSONTAGOFFSET)]
}

// PeekNextTag returns the tag of the value after the queued one.
func (i *Iter) PeekNextTag() Tag {
	off := i.tape.skipNops(i.off + i.addNext)
	if off >= len(i.tape.Tape) {
		return TagEnd
	}
	return Tag(i.tape.Tape[off] >> JSONTAGOFFSET)
}

// Float returns the queued value as a float64, converting integers.
func (i *Iter) Float() (float64, error) {
	v, _, err := i.FloatFlags()
	return v, err
}

// FloatFlags returns the queued value as a float64 plus any FloatFlags
// stored in the float's tag word. Tapes built by this parser store none.
func (i *Iter) FloatFlags() (float64, FloatFlags, error) {
	switch i.t {
	case TagFloat:
		if i.off >= len(i.tape.Tape) {
			return 0, 0, errors.New("corrupt input: expected float, but no more values")
		}
		return math.Float64frombits(i.tape.Tape[i.off]), FloatFlags(i.cur), nil
	case TagInteger:
		if i.off >= len(i.tape.Tape) {
			return 0, 0, errors.New("corrupt input: expected integer, but no more values")
		}
		return float64(int64(i.tape.Tape[i.off])), 0, nil
	case TagUint:
		if i.off >= len(i.tape.Tape) {
			return 0, 0, errors.New("corrupt input: expected integer, but no more values")
		}
		return float64(i.tape.Tape[i.off]), 0, nil
	}
	return 0, 0, fmt.Errorf("value is not a number, but %v", i.t)
}

// Int returns the queued value as an int64, converting uint/float when they
// fit exactly in range.
func (i *Iter) Int() (int64, error) {
	switch i.t {
	case TagInteger:
		if i.off >= len(i.tape.Tape) {
			return 0, errors.New("corrupt input: expected integer, but no more values")
		}
		return int64(i.tape.Tape[i.off]), nil
	case TagUint:
		if i.off >= len(i.tape.Tape) {
			return 0, errors.New("corrupt input: expected integer, but no more values")
		}
		v := i.tape.Tape[i.off]
		if v > math.MaxInt64 {
			return 0, ErrNumberOutOfRange
		}
		return int64(v), nil
	case TagFloat:
		if i.off >= len(i.tape.Tape) {
			return 0, errors.New("corrupt input: expected float, but no more values")
		}
		f := math.Float64frombits(i.tape.Tape[i.off])
		if f > math.MaxInt64 || f < math.MinInt64 {
			return 0, ErrNumberOutOfRange
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("value is not an integer, but %v", i.t)
}

// Uint returns the queued value as a uint64.
func (i *Iter) Uint() (uint64, error) {
	switch i.t {
	case TagUint:
		if i.off >= len(i.tape.Tape) {
			return 0, errors.New("corrupt input: expected integer, but no more values")
		}
		return i.tape.Tape[i.off], nil
	case TagInteger:
		if i.off >= len(i.tape.Tape) {
			return 0, errors.New("corrupt input: expected integer, but no more values")
		}
		v := int64(i.tape.Tape[i.off])
		if v < 0 {
			return 0, ErrNumberOutOfRange
		}
		return uint64(v), nil
	case TagFloat:
		if i.off >= len(i.tape.Tape) {
			return 0, errors.New("corrupt input: expected float, but no more values")
		}
		f := math.Float64frombits(i.tape.Tape[i.off])
		if f < 0 || f > math.MaxUint64 {
			return 0, ErrNumberOutOfRange
		}
		return uint64(f), nil
	}
	return 0, fmt.Errorf("value is not an unsigned integer, but %v", i.t)
}

// String returns the queued string value, decoded.
func (i *Iter) String() (string, error) {
	if i.t != TagString {
		return "", fmt.Errorf("value is not string, but %v", i.t)
	}
	if i.off >= len(i.tape.Tape) {
		return "", errors.New("corrupt input: no string length recorded")
	}
	return i.tape.stringAt(i.cur, i.tape.Tape[i.off])
}

// StringBytes returns the queued string value's decoded bytes, without a
// copy into a new string header where the underlying arena allows it.
func (i *Iter) StringBytes() ([]byte, error) {
	if i.t != TagString {
		return nil, fmt.Errorf("value is not string, but %v", i.t)
	}
	if i.off >= len(i.tape.Tape) {
		return nil, errors.New("corrupt input: no string length recorded")
	}
	return i.tape.stringByteAt(i.cur, i.tape.Tape[i.off])
}

// StringCvt returns the queued value as a string, converting scalar types.
// Objects, arrays and root are not supported.
func (i *Iter) StringCvt() (string, error) {
	switch i.t {
	case TagString:
		return i.String()
	case TagInteger:
		v, err := i.Int()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", v), nil
	case TagUint:
		v, err := i.Uint()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", v), nil
	case TagFloat:
		v, err := i.Float()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v", v), nil
	case TagBoolTrue:
		return "true", nil
	case TagBoolFalse:
		return "false", nil
	case TagNull:
		return "null", nil
	}
	return "", fmt.Errorf("cannot convert type %s to string", TagToType[i.t])
}

// Root returns the value embedded in a root entry as its own iterator,
// along with the type of its first element. dst avoids an allocation when
// supplied.
func (i *Iter) Root(dst *Iter) (Type, *Iter, error) {
	if i.t != TagRoot {
		return TypeNone, dst, errors.New("value is not root")
	}
	end := i.cur & containerIndexMask
	if end > uint64(len(i.tape.Tape)) {
		return TypeNone, dst, errors.New("root element extends beyond tape")
	}
	if dst == nil {
		c := *i
		dst = &c
	} else {
		dst.cur = i.cur
		dst.off = i.off
		dst.t = i.t
		dst.tape.Strings = i.tape.Strings
		dst.tape.Message = i.tape.Message
	}
	dst.addNext = 0
	dst.tape.Tape = i.tape.Tape[:end-1]
	return dst.AdvanceInto().Type(), dst, nil
}

// Bool returns the queued value's boolean.
func (i *Iter) Bool() (bool, error) {
	switch i.t {
	case TagBoolTrue:
		return true, nil
	case TagBoolFalse:
		return false, nil
	}
	return false, fmt.Errorf("value is not bool, but %v", i.t)
}

// Interface decodes the queued value recursively into native Go types:
// map[string]interface{}, []interface{}, string, int64/uint64, float64,
// bool, or nil.
func (i *Iter) Interface() (interface{}, error) {
	switch i.t.Type() {
	case TypeUint:
		return i.Uint()
	case TypeInt:
		return i.Int()
	case TypeFloat:
		return i.Float()
	case TypeNull:
		return nil, nil
	case TypeArray:
		arr, err := i.Array(nil)
		if err != nil {
			return nil, err
		}
		return arr.Interface()
	case TypeString:
		return i.String()
	case TypeObject:
		obj, err := i.Object(nil)
		if err != nil {
			return nil, err
		}
		return obj.Map(nil)
	case TypeBool:
		return i.t == TagBoolTrue, nil
	case TypeRoot:
		var dst []interface{}
		var tmp Iter
		for {
			typ, obj, err := i.Root(&tmp)
			if err != nil {
				return nil, err
			}
			if typ == TypeNone {
				break
			}
			elem, err := obj.Interface()
			if err != nil {
				return nil, err
			}
			dst = append(dst, elem)
			if i.Advance() != TypeRoot {
				break
			}
		}
		return dst, nil
	case TypeNone:
		if i.PeekNextTag() == TagEnd {
			return nil, errors.New("no content in iterator")
		}
		i.Advance()
		return i.Interface()
	}
	return nil, fmt.Errorf("unknown tag type: %v", i.t)
}

// Object returns the queued value as an Object.
func (i *Iter) Object(dst *Object) (*Object, error) {
	if i.t != TagObjectStart {
		return nil, errors.New("next item is not object")
	}
	end := i.cur & containerIndexMask
	if end < uint64(i.off) {
		return nil, errors.New("corrupt input: object ends at index before start")
	}
	if uint64(len(i.tape.Tape)) < end {
		return nil, errors.New("corrupt input: object extends beyond tape")
	}
	if dst == nil {
		dst = &Object{}
	}
	dst.tape.Tape = i.tape.Tape[:end]
	dst.tape.Strings = i.tape.Strings
	dst.tape.Message = i.tape.Message
	dst.off = i.off
	return dst, nil
}

// Array returns the queued value as an Array.
func (i *Iter) Array(dst *Array) (*Array, error) {
	if i.t != TagArrayStart {
		return nil, errors.New("next item is not array")
	}
	end := i.cur & containerIndexMask
	if uint64(len(i.tape.Tape)) < end {
		return nil, errors.New("corrupt input: array extends beyond tape")
	}
	if dst == nil {
		dst = &Array{}
	}
	dst.tape.Tape = i.tape.Tape[:end]
	dst.tape.Strings = i.tape.Strings
	dst.tape.Message = i.tape.Message
	dst.off = i.off
	return dst, nil
}

// FloatFlags are flags recorded when converting an out-of-range integer
// literal to float64.
type FloatFlags uint64

// FloatFlag is a single flag recorded when parsing a number.
type FloatFlag uint64

const (
	// FloatOverflowedInteger marks a float that was written in integer
	// notation but over/underflowed both int64 and uint64. This parser
	// rejects such literals with ErrNumberError, so it never sets the flag.
	FloatOverflowedInteger FloatFlag = 1 << iota
)

// Contains returns whether f contains the given flag.
func (f FloatFlags) Contains(flag FloatFlag) bool {
	return FloatFlag(f)&flag == flag
}

// Flags converts f to FloatFlags, merging in any additional flags.
func (f FloatFlag) Flags(more ...FloatFlag) FloatFlags {
	for _, v := range more {
		f |= v
	}
	return FloatFlags(f)
}
