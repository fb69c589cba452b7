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

import "errors"

// Sentinel errors returned by the parser. Every kind is distinguishable with
// errors.Is; none of them carry dynamic data, mirroring simdjson's plain
// error-code enum rather than a typed-error hierarchy.
var (
	ErrCapacity                = errors.New("simdjson: input exceeds configured capacity")
	ErrMemAlloc                = errors.New("simdjson: memory allocation failed")
	ErrTapeError               = errors.New("simdjson: tape error, JSON is malformed")
	ErrDepthError              = errors.New("simdjson: maximum nesting depth exceeded")
	ErrStringError             = errors.New("simdjson: problem while parsing a string")
	ErrTAtomError              = errors.New("simdjson: problem while parsing an atom starting with 't'")
	ErrFAtomError              = errors.New("simdjson: problem while parsing an atom starting with 'f'")
	ErrNAtomError              = errors.New("simdjson: problem while parsing an atom starting with 'n'")
	ErrNumberError             = errors.New("simdjson: problem while parsing a number")
	ErrUTF8Error               = errors.New("simdjson: invalid UTF-8 in input")
	ErrUninitialized           = errors.New("simdjson: parser is uninitialized")
	ErrEmpty                   = errors.New("simdjson: input is empty")
	ErrUnescapedChars          = errors.New("simdjson: unescaped control character inside a string")
	ErrUnclosedString          = errors.New("simdjson: unclosed string at end of input")
	ErrUnsupportedArchitecture = errors.New("simdjson: unsupported architecture")
	ErrIncorrectType           = errors.New("simdjson: type mismatch for requested operation")
	ErrNumberOutOfRange        = errors.New("simdjson: number is too large or too small")
	ErrIndexOutOfBounds        = errors.New("simdjson: index beyond the end of the container")
	ErrNoSuchField             = errors.New("simdjson: requested field does not exist")
	ErrIOError                 = errors.New("simdjson: I/O error")
	ErrInvalidJSONPointer      = errors.New("simdjson: invalid JSON pointer")
	ErrInvalidURIFragment      = errors.New("simdjson: invalid URI fragment")
	ErrUnexpectedError         = errors.New("simdjson: unexpected internal error")
)
