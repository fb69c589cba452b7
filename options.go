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

// ParserOption configures a Parser at construction time.
type ParserOption func(p *Parser) error

// WithCopyStrings controls whether decoded strings are copied into the
// parser's own Strings buffer (true, the default) or, when a string
// contains no escapes, left pointing directly into the input Message.
// Copying costs memory and a little throughput but is required for
// streaming/reuse scenarios where the input buffer is recycled after the
// parse returns.
func WithCopyStrings(b bool) ParserOption {
	return func(p *Parser) error {
		p.copyStrings = b
		return nil
	}
}

// WithCapacity bounds the number of input bytes a Parser will accept.
// Parse/ParseND return ErrCapacity for larger input. A value of 0 (the
// default) means unbounded.
func WithCapacity(n int) ParserOption {
	return func(p *Parser) error {
		p.capacity = n
		return nil
	}
}

// WithMaxDepth overrides the default container nesting limit of 1024.
// Exceeding it surfaces as ErrDepthError.
func WithMaxDepth(n int) ParserOption {
	return func(p *Parser) error {
		if n <= 0 {
			return ErrDepthError
		}
		p.maxDepth = n
		return nil
	}
}
