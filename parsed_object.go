/*
 * MinIO Cloud Storage, (C) 2020 MinIO, Inc.
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
)

// Object is a read-only view of an object value on the tape: the tape
// carrying it plus the offset of the next key/value pair to decode.
type Object struct {
	tape ParsedJson
	off  int
}

// Map unmarshals the object into dst, allocating a fresh map if dst is nil.
// See Iter.Interface for the value types produced for each JSON type.
func (o *Object) Map(dst map[string]interface{}) (map[string]interface{}, error) {
	if dst == nil {
		dst = make(map[string]interface{})
	}
	var tmp Iter
	for {
		name, t, err := o.NextElement(&tmp)
		if err != nil {
			return nil, err
		}
		if t == TypeNone {
			break
		}
		dst[name], err = tmp.Interface()
		if err != nil {
			return nil, fmt.Errorf("parsing element %q: %w", name, err)
		}
	}
	return dst, nil
}

// Keys returns the object's keys in tape (input) order, including
// duplicates if the source document had any; duplicate keys are preserved
// on the tape and never deduplicated here. The object is consumed.
func (o *Object) Keys(dst []string) ([]string, error) {
	dst = dst[:0]
	var tmp Iter
	for {
		name, t, err := o.NextElement(&tmp)
		if err != nil {
			return dst, err
		}
		if t == TypeNone {
			return dst, nil
		}
		dst = append(dst, name)
	}
}

// Parse collects every key/value pair into dst, consuming the object.
// An existing *Elements may be passed to reuse its backing storage.
func (o *Object) Parse(dst *Elements) (*Elements, error) {
	if dst == nil {
		dst = &Elements{
			Elements: make([]Element, 0, 5),
			Index:    make(map[string]int, 5),
		}
	} else {
		dst.Elements = dst.Elements[:0]
		for k := range dst.Index {
			delete(dst.Index, k)
		}
	}
	var tmp Iter
	for {
		name, t, err := o.NextElement(&tmp)
		if err != nil {
			return dst, err
		}
		if t == TypeNone {
			break
		}
		// First occurrence wins on duplicate keys, matching FindKey.
		if _, seen := dst.Index[name]; !seen {
			dst.Index[name] = len(dst.Elements)
		}
		dst.Elements = append(dst.Elements, Element{
			Name: name,
			Type: t,
			Iter: tmp,
		})
	}
	return dst, nil
}

// readKeyAt reads the string key that must sit at tmp's current tape
// position, returning its decoded bytes and its length; callers use the
// length as a cheap mismatch short-circuit before comparing the bytes.
func readKeyAt(tmp *Iter) (name []byte, length uint64, err error) {
	offset := tmp.cur
	length = tmp.tape.Tape[tmp.off]
	name, err = tmp.tape.stringByteAt(offset, length)
	return name, length, err
}

// FindKey locates a single named element without consuming the object,
// returning nil if the key is absent. Intended for one-off lookups; walking
// the whole object once with ForEach or Parse is cheaper for repeated access.
// Keys are matched case-sensitively. If the key occurs more than once, the
// first occurrence in input order is returned.
func (o *Object) FindKey(key string, dst *Element) *Element {
	tmp := o.tape.Iter()
	tmp.off = o.off
	for {
		typ := tmp.Advance()
		if typ != TypeString || tmp.off+1 >= len(tmp.tape.Tape) {
			return nil
		}
		name, length, err := readKeyAt(&tmp)
		if int(length) != len(key) || err != nil || string(name) != key {
			if t := tmp.Advance(); t == TypeNone {
				return nil
			}
			continue
		}
		if dst == nil {
			dst = &Element{}
		}
		dst.Name = key
		dst.Type, err = tmp.AdvanceIter(&dst.Iter)
		if err != nil {
			return nil
		}
		return dst
	}
}

// ForEach invokes fn for every key/value pair, optionally restricted to the
// keys in onlyKeys (a nil or empty filter visits everything).
func (o *Object) ForEach(fn func(key []byte, i Iter), onlyKeys map[string]struct{}) error {
	tmp := o.tape.Iter()
	tmp.off = o.off
	visited := 0
	for {
		typ := tmp.Advance()
		if typ != TypeString || tmp.off+1 >= len(tmp.tape.Tape) {
			if typ == TypeNone {
				return nil
			}
			return fmt.Errorf("object: unexpected name tag %v", tmp.t)
		}
		name, _, err := readKeyAt(&tmp)
		if err != nil {
			return fmt.Errorf("getting object name: %w", err)
		}

		if len(onlyKeys) > 0 {
			if _, wanted := onlyKeys[string(name)]; !wanted {
				if t := tmp.Advance(); t == TypeNone {
					return nil
				}
				continue
			}
		}

		t := tmp.Advance()
		if t == TypeNone {
			return nil
		}
		fn(name, tmp)
		visited++
		if visited == len(onlyKeys) {
			return nil
		}
	}
}

// DeleteElems walks the object calling fn for every key/value pair; pairs
// for which fn reports true (or, with fn nil, every pair in onlyKeys, or
// every pair at all if both are nil) are overwritten on the tape with a
// skippable TagNop run rather than physically removed.
func (o *Object) DeleteElems(fn func(key []byte, i Iter) bool, onlyKeys map[string]struct{}) error {
	tmp := o.tape.Iter()
	tmp.off = o.off
	deleted := 0
	for {
		typ := tmp.Advance()
		if typ != TypeString || tmp.off+1 >= len(tmp.tape.Tape) {
			if typ == TypeNone {
				return nil
			}
			return fmt.Errorf("object: unexpected name tag %v", tmp.t)
		}
		pairStart := tmp.off - 1
		name, _, err := readKeyAt(&tmp)
		if err != nil {
			return fmt.Errorf("getting object name: %w", err)
		}

		if len(onlyKeys) > 0 {
			if _, wanted := onlyKeys[string(name)]; !wanted {
				if t := tmp.Advance(); t == TypeNone {
					return nil
				}
				continue
			}
		}

		t := tmp.Advance()
		if t == TypeNone {
			return nil
		}
		if fn == nil || fn(name, tmp) {
			pairEnd := tmp.off + tmp.addNext
			remaining := uint64(pairEnd - pairStart)
			for i := pairStart; i < pairEnd; i++ {
				tmp.tape.Tape[i] = (uint64(TagNop) << JSONTAGOFFSET) | remaining
				remaining--
			}
		}
		deleted++
		if deleted == len(onlyKeys) {
			return nil
		}
	}
}

// ErrPathNotFound is returned by FindPath when any segment of the requested
// path is absent.
var ErrPathNotFound = errors.New("path not found")

// FindPath resolves a chain of object keys, one key per argument, e.g.
// FindPath(dst, "Image", "Url") looks up "Image" in the receiver, then
// "Url" inside that nested object. The object is not consumed.
func (o *Object) FindPath(dst *Element, path ...string) (*Element, error) {
	if len(path) == 0 {
		return dst, ErrPathNotFound
	}
	tmp := o.tape.Iter()
	tmp.off = o.off
	key := path[0]
	path = path[1:]
	for {
		typ := tmp.Advance()
		if typ != TypeString || tmp.off+1 >= len(tmp.tape.Tape) {
			return dst, ErrPathNotFound
		}
		name, length, err := readKeyAt(&tmp)
		if int(length) != len(key) {
			if t := tmp.Advance(); t == TypeNone {
				return dst, ErrPathNotFound
			}
			continue
		}
		if err != nil {
			return dst, err
		}
		if string(name) != key {
			tmp.Advance()
			continue
		}
		if len(path) == 0 {
			if dst == nil {
				dst = &Element{}
			}
			dst.Name = key
			dst.Type, err = tmp.AdvanceIter(&dst.Iter)
			if err != nil {
				return dst, err
			}
			return dst, nil
		}

		t, err := tmp.AdvanceIter(&tmp)
		if err != nil {
			return dst, err
		}
		if t != TypeObject {
			return dst, fmt.Errorf("value of key %v is not an object", key)
		}
		key = path[0]
		path = path[1:]
	}
}

// NextElement sets dst to the next value and returns its key, allocating a
// string for the key. TypeNone with a nil error marks the end of the object.
func (o *Object) NextElement(dst *Iter) (name string, t Type, err error) {
	n, t, err := o.NextElementBytes(dst)
	return string(n), t, err
}

// NextElementBytes behaves like NextElement but returns the key as a slice
// into the tape's string buffer, avoiding an allocation per key.
func (o *Object) NextElementBytes(dst *Iter) (name []byte, t Type, err error) {
	if o.off >= len(o.tape.Tape) {
		return nil, TypeNone, nil
	}
	v := o.tape.Tape[o.off]
	switch Tag(v >> 56) {
	case TagString:
		if o.off+2 >= len(o.tape.Tape) {
			return nil, TypeNone, fmt.Errorf("parsing object element name: unexpected end of tape")
		}
		length := o.tape.Tape[o.off+1]
		offset := v & JSONVALUEMASK
		name, err = o.tape.stringByteAt(offset, length)
		if err != nil {
			return nil, TypeNone, fmt.Errorf("parsing object element name: %w", err)
		}
		o.off += 2
	case TagObjectEnd:
		return nil, TypeNone, nil
	case TagNop:
		o.off += int(v & JSONVALUEMASK)
		return o.NextElementBytes(dst)
	default:
		return nil, TypeNone, fmt.Errorf("object: unexpected tag %c", byte(v>>56))
	}

	v = o.tape.Tape[o.off]
	o.off++

	dst.cur = v & JSONVALUEMASK
	dst.t = Tag(v >> 56)
	dst.off = o.off
	dst.tape = o.tape
	dst.calcNext(false)
	elemSize := dst.addNext
	dst.calcNext(true)
	if dst.off+elemSize > len(dst.tape.Tape) {
		return nil, TypeNone, errors.New("element extends beyond tape")
	}
	dst.tape.Tape = dst.tape.Tape[:dst.off+elemSize]

	o.off += elemSize
	return name, TagToType[dst.t], nil
}

// Element is one key/value pair collected from an object by Parse.
type Element struct {
	Name string
	Type Type
	Iter Iter
}

// Elements holds every key/value pair of an object, in input order, plus a
// key-to-index lookup. Duplicate keys are all retained; Lookup returns the
// first match, matching Object.FindKey.
type Elements struct {
	Elements []Element
	Index    map[string]int
}

// Lookup returns the (first, per duplicate-key semantics) element stored
// under key, or nil if key is absent. Case-sensitive.
func (e Elements) Lookup(key string) *Element {
	idx, ok := e.Index[key]
	if !ok {
		return nil
	}
	return &e.Elements[idx]
}

// MarshalJSON renders every collected element back to JSON object syntax.
func (e Elements) MarshalJSON() ([]byte, error) {
	return e.MarshalJSONBuffer(nil)
}

// MarshalJSONBuffer behaves like MarshalJSON but appends to dst.
func (e Elements) MarshalJSONBuffer(dst []byte) ([]byte, error) {
	dst = append(dst, '{')
	for i, elem := range e.Elements {
		dst = append(dst, '"')
		dst = escapeBytes(dst, []byte(elem.Name))
		dst = append(dst, '"', ':')
		var err error
		dst, err = elem.Iter.MarshalJSONBuffer(dst)
		if err != nil {
			return nil, err
		}
		if i < len(e.Elements)-1 {
			dst = append(dst, ',')
		}
	}
	dst = append(dst, '}')
	return dst, nil
}
