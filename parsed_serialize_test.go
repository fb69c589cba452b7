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
	"bytes"
	"fmt"
	"io"
	"testing"
)

var serializeTestDocs = []string{
	`{"a":1,"b":[true,null,"x"]}`,
	`[]`,
	`{}`,
	`[1,2,3,4,5,6,7,8,9,10]`,
	`{"nested":{"deeper":{"deepest":[1,2,3]}}}`,
	`"just a string"`,
	`-1.5e10`,
	`[{"a":1},{"b":2},{"c":3}]`,
}

func testSerializeRoundtrip(t *testing.T, s *Serializer) {
	for i, doc := range serializeTestDocs {
		t.Run(fmt.Sprintf("doc%d", i), func(t *testing.T) {
			pj, err := Parse([]byte(doc), nil)
			if err != nil {
				t.Fatal(err)
			}
			wantIter := pj.Iter()
			want, err := wantIter.MarshalJSON()
			if err != nil {
				t.Fatal(err)
			}
			out := s.Serialize(nil, *pj)
			pj2, err := s.Deserialize(out, nil)
			if err != nil {
				t.Fatal(err)
			}
			gotIter := pj2.Iter()
			got, err := gotIter.MarshalJSON()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(want, got) {
				t.Fatalf("roundtrip mismatch: want %s, got %s", want, got)
			}
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	modes := []struct {
		name string
		mode CompressMode
	}{
		{"none", CompressNone},
		{"fast", CompressFast},
		{"best", CompressBest},
	}
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			s := NewSerializer()
			s.CompressMode(m.mode)
			testSerializeRoundtrip(t, s)
		})
	}
}

func TestSerializeNDJSON(t *testing.T) {
	ndjson := "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"
	pj, err := ParseND([]byte(ndjson), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSerializer()
	out := s.Serialize(nil, *pj)
	pj2, err := s.Deserialize(out, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantIter := pj.Iter()
	want, err := wantIter.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	gotIter := pj2.Iter()
	got, err := gotIter.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("ndjson roundtrip mismatch: want %s, got %s", want, got)
	}
}

// TestSerializeNDStream feeds parsed documents through the worker-pool
// serializer and verifies splitBlocks can re-frame the concatenated output
// into one block per document.
func TestSerializeNDStream(t *testing.T) {
	docs := []string{`{"a":1}`, `{"b":[1,2,3]}`, `"plain string"`, `[null,true]`}
	in := make(chan Stream, len(docs))
	for _, d := range docs {
		pj, err := Parse([]byte(d), nil)
		if err != nil {
			t.Fatalf("Parse(%q): %v", d, err)
		}
		in <- Stream{Value: pj}
	}
	close(in)

	var buf bytes.Buffer
	reuse := make(chan *ParsedJson, len(docs))
	if err := serializeNDStream(&buf, in, reuse, 2, CompressFast); err != nil {
		t.Fatalf("serializeNDStream: %v", err)
	}

	s := NewSerializer()
	blocks := make(chan []byte, len(docs)+1)
	err := s.splitBlocks(bytes.NewReader(buf.Bytes()), blocks)
	if err != io.EOF {
		t.Fatalf("splitBlocks final error = %v, want io.EOF", err)
	}
	n := 0
	for range blocks {
		n++
	}
	if n != len(docs) {
		t.Errorf("splitBlocks produced %d blocks, want %d", n, len(docs))
	}
}

func BenchmarkSerialize(b *testing.B) {
	doc := []byte(`{"a":1,"b":[true,null,"x",1.5,{"nested":true}],"c":"a reasonably long string value"}`)
	pj, err := Parse(doc, nil)
	if err != nil {
		b.Fatal(err)
	}
	s := NewSerializer()
	out := s.Serialize(nil, *pj)
	b.SetBytes(int64(len(doc)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = s.Serialize(out[:0], *pj)
	}
}

func BenchmarkDeserialize(b *testing.B) {
	doc := []byte(`{"a":1,"b":[true,null,"x",1.5,{"nested":true}],"c":"a reasonably long string value"}`)
	pj, err := Parse(doc, nil)
	if err != nil {
		b.Fatal(err)
	}
	s := NewSerializer()
	out := s.Serialize(nil, *pj)
	var pj2 *ParsedJson
	b.SetBytes(int64(len(doc)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pj2, err = s.Deserialize(out, pj2)
		if err != nil {
			b.Fatal(err)
		}
	}
}
