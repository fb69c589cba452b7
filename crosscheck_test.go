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
	"encoding/json"
	"reflect"
	"testing"

	"github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"
)

// Fixtures decoded by this parser and by independent JSON implementations to
// cross-check value-level agreement.
var crosscheckFixtures = []string{
	`{"a":1,"b":[true,null,"x"]}`,
	`[]`,
	`{}`,
	`  -0.0e+2  `,
	`{"nested":{"arr":[1,2,3],"s":"hello\nworld","u":18446744073709551615}}`,
	`[1,-2,3.5,-4.25e10,0,1e20]`,
	`{"emoji":"😀","esc":"a\\b\"c"}`,
	`"just a string"`,
	`42`,
	`null`,
	`true`,
	`false`,
}

// decodeGeneric unmarshals with every reference implementation and fails the
// test if any of them disagree with encoding/json's own result.
func decodeGeneric(t *testing.T, msg []byte) interface{} {
	t.Helper()
	var want interface{}
	if err := json.Unmarshal(msg, &want); err != nil {
		t.Fatalf("encoding/json: %v", err)
	}

	var gotSonic interface{}
	if err := sonic.Unmarshal(msg, &gotSonic); err != nil {
		t.Fatalf("sonic: %v", err)
	}
	if !reflect.DeepEqual(want, gotSonic) {
		t.Errorf("sonic disagrees with encoding/json: got %#v, want %#v", gotSonic, want)
	}

	var gotIter interface{}
	jc := jsoniter.ConfigCompatibleWithStandardLibrary
	if err := jc.Unmarshal(msg, &gotIter); err != nil {
		t.Fatalf("jsoniter: %v", err)
	}
	if !reflect.DeepEqual(want, gotIter) {
		t.Errorf("jsoniter disagrees with encoding/json: got %#v, want %#v", gotIter, want)
	}
	return want
}

// TestCrosscheckValueAgreement parses each fixture with this module, then
// re-marshals the tape back to JSON text and checks that encoding/json and
// sonic decode the re-marshaled bytes to the same value tree as encoding/json
// decodes the original bytes (jsoniter is compared on the original bytes
// only, through decodeGeneric). This is a
// round-trip check rather than a direct tape walk because the reference
// libraries have no notion of this module's tape layout; going through
// MarshalJSON exercises string decoding as well as the tape builder.
func TestCrosscheckValueAgreement(t *testing.T) {
	for _, fixture := range crosscheckFixtures {
		fixture := fixture
		t.Run(fixture, func(t *testing.T) {
			want := decodeGeneric(t, []byte(fixture))

			pj, err := Parse([]byte(fixture), nil)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			it := pj.Iter()
			it.AdvanceInto()
			out, err := it.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON: %v", err)
			}

			var got interface{}
			if err := json.Unmarshal(out, &got); err != nil {
				t.Fatalf("re-decoding our own output: %v (output %s)", err, out)
			}
			if !reflect.DeepEqual(want, got) {
				t.Errorf("our output decodes to %#v, want %#v (our json: %s)", got, want, out)
			}

			// sonic must also agree when fed our re-marshaled bytes.
			var gotSonic interface{}
			if err := sonic.Unmarshal(out, &gotSonic); err != nil {
				t.Fatalf("sonic decoding our output: %v", err)
			}
			if !reflect.DeepEqual(want, gotSonic) {
				t.Errorf("sonic decoding our output = %#v, want %#v", gotSonic, want)
			}
		})
	}
}

// TestCrosscheckNumberFixtures narrows the cross-check to numeric edge cases
// where a divergence between implementations is most likely to hide a bug
// in the SWAR digit parser or the 128-bit float path.
func TestCrosscheckNumberFixtures(t *testing.T) {
	for _, fixture := range []string{
		"0", "-0", "1", "-1", "1.5", "-1.5e10", "1e308", "1e-308",
		"9223372036854775807", "-9223372036854775808", "18446744073709551615",
		"123456789012345678", "0.1", "100", "3.141592653589793",
	} {
		fixture := fixture
		t.Run(fixture, func(t *testing.T) {
			decodeGeneric(t, []byte(fixture))

			pj, err := Parse([]byte(fixture), nil)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			it := pj.Iter()
			it.AdvanceInto()
			out, err := it.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON: %v", err)
			}
			var want, got float64
			if err := json.Unmarshal([]byte(fixture), &want); err != nil {
				t.Fatalf("encoding/json: %v", err)
			}
			if err := json.Unmarshal(out, &got); err != nil {
				t.Fatalf("decoding our output: %v", err)
			}
			if want != got {
				t.Errorf("numeric value mismatch: got %v, want %v (our json: %s)", got, want, out)
			}
		})
	}
}
