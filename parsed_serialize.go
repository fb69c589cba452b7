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
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"unsafe"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Tape serialization. A ParsedJson's tape, string arena and the raw input
// Message are an in-memory-only representation that stays valid only until
// the next parse on the same instance; Serializer/Deserialize give
// that representation an on-disk form so a tape can outlive the Parser that
// built it, at the cost of re-validating block framing on the way back in.
//
// Wire layout, in order:
//   version byte
//   remaining-size varuint (informational, covers everything after it)
//   tape length varuint (word count, uncompressed)
//   strings section: uncompressed-size varuint and size varuint, both
//     always 0 (Deserialize leaves Strings empty)
//   message block: uncompressed-size varuint, size varuint, compressed block
//     (see block format below); it carries the interned string bytes, not
//     the original input, and Deserialize places them in Message
//   tags block: uncompressed-size varuint, size varuint, compressed block
//   values block: uncompressed-size varuint, size varuint, compressed block
//
// Compressed block format: one byte naming the codec (blockTypeUncompressed,
// blockTypeS2 or blockTypeZstd) followed by that codec's stream. Tags are one
// byte per tape word (the Tag itself); values are the variable-width payload
// each tag needs, reconstructed by replaying the tags in order (rebuildTape
// documents how many value-stream bytes each tag consumes).
// TagObjectStart/TagArrayStart/TagRoot store a *signed* forward (or,
// for TagRoot, possibly backward) delta against the container's own tape
// index rather than an absolute index, so serialized tapes are relocatable;
// start words additionally carry the packed child count alongside the delta so it
// survives the round trip instead of being reconstructed by re-walking.

const (
	stringBits        = 14
	stringSize        = 1 << stringBits
	stringTableMask   = stringSize - 1
	serializedVersion = 2
)

// Serializer converts a ParsedJson to and from the compact wire form above.
// A Serializer owns scratch buffers sized to the largest tape it has seen and
// a string-interning table; both are reused across calls, so a Serializer
// must not be shared across goroutines without external locking (the same
// single-owner contract Parser has).
type Serializer struct {
	messageBuf []byte

	tagsBuf       []byte
	valuesBuf     []byte
	valuesCompBuf []byte
	tagsCompBuf   []byte

	compValues, compTags, compMessage byte
	fastCompression                   bool

	internTable [stringSize]uint32
	internBuf   []byte
	internWr    io.Writer

	maxBlockSize uint64
}

// NewSerializer creates a Serializer using CompressDefault.
func NewSerializer() *Serializer {
	initZstdOnce.Do(func() {
		zstdSharedDecoder, _ = zstd.NewReader(nil)
	})
	s := &Serializer{maxBlockSize: 1 << 31}
	s.CompressMode(CompressDefault)
	return s
}

// CompressMode selects the codec Serialize applies to each of the three
// blocks (message/tags/values).
type CompressMode uint8

const (
	// CompressNone stores every block verbatim.
	CompressNone CompressMode = iota
	// CompressFast applies s2 compression using its fastest writer
	// configuration; cheaper to produce, less dense than CompressDefault.
	CompressFast
	// CompressDefault applies s2 compression using its better-ratio writer
	// configuration. Both modes deduplicate repeated string values through
	// internTable; only the underlying s2 writer tuning differs.
	CompressDefault
	// CompressBest applies zstd, trading encode speed for ratio.
	CompressBest
)

// CompressMode changes the codec used by subsequent Serialize calls.
func (s *Serializer) CompressMode(c CompressMode) {
	switch c {
	case CompressNone:
		s.compValues, s.compTags, s.compMessage = blockTypeUncompressed, blockTypeUncompressed, blockTypeUncompressed
	case CompressFast:
		s.compValues, s.compTags, s.compMessage = blockTypeS2, blockTypeS2, blockTypeS2
		s.fastCompression = true
	case CompressDefault:
		s.compValues, s.compTags, s.compMessage = blockTypeS2, blockTypeS2, blockTypeS2
		s.fastCompression = false
	case CompressBest:
		s.compValues, s.compTags, s.compMessage = blockTypeZstd, blockTypeZstd, blockTypeZstd
	default:
		panic("simdjson: unknown CompressMode")
	}
}

// serializeNDStream fans a channel of parsed documents out across a worker
// pool of Serializers and writes each document's wire form to dst in the
// order it was received (the reader goroutine hands the caller's documents
// to workers while a single writer goroutine drains their per-document
// result channels strictly in sequence, so out-of-order completion among
// workers never reorders the stream).
func serializeNDStream(dst io.Writer, in <-chan Stream, reuse chan<- *ParsedJson, concurrency int, mode CompressMode) error {
	if concurrency <= 0 {
		concurrency = (runtime.GOMAXPROCS(0) + 1) / 2
	}

	type job struct {
		pj     *ParsedJson
		result chan []byte
	}
	jobs := make(chan job, concurrency)
	order := make(chan chan []byte, concurrency)

	var workers sync.WaitGroup
	workers.Add(concurrency)
	bufs := sync.Pool{New: func() interface{} { return make([]byte, 0, 64<<10) }}
	for i := 0; i < concurrency; i++ {
		go func() {
			defer workers.Done()
			s := NewSerializer()
			s.CompressMode(mode)
			for j := range jobs {
				j.result <- s.Serialize(bufs.Get().([]byte)[:0], *j.pj)
				select {
				case reuse <- j.pj:
				default:
				}
			}
		}()
	}

	var writeErr error
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for result := range order {
			b := <-result
			if n, err := dst.Write(b); err != nil || n != len(b) {
				if err == nil {
					err = io.ErrShortWrite
				}
				writeErr = err
			}
		}
	}()

	var readErr error
	for block := range in {
		if block.Error != nil {
			readErr = block.Error
			break
		}
		result := make(chan []byte, 1)
		order <- result
		jobs <- job{pj: block.Value, result: result}
	}
	close(jobs)
	workers.Wait()
	close(order)
	writer.Wait()

	if readErr != nil {
		return readErr
	}
	return writeErr
}

const tagFloatWithFlag = Tag('e')

// Serialize appends the wire form of pj to dst and returns the result. A
// corrupt tape (one that could not have come out of stage 2) is a
// programmer-facing invariant violation, not a recoverable input error, and
// panics rather than returning an error, consistent with the rest of this
// module's "panic only on caller misuse" convention.
func (s *Serializer) Serialize(dst []byte, pj ParsedJson) []byte {
	for i := range s.internTable {
		s.internTable[i] = 0
	}
	s.internBuf = s.internBuf[:0]
	s.messageBuf = s.messageBuf[:0]

	msgWr, msgDone := encBlock(s.compMessage, s.messageBuf, s.fastCompression)
	s.internWr = msgWr

	const tagChunk = 64 << 10
	const valChunk = 64 << 10

	valWr, valDone := encBlock(s.compValues, s.valuesCompBuf, s.fastCompression)
	tagWr, tagDone := encBlock(s.compTags, s.tagsCompBuf, s.fastCompression)

	if cap(s.tagsBuf) <= tagChunk {
		s.tagsBuf = make([]byte, tagChunk)
	}
	s.tagsBuf = s.tagsBuf[:tagChunk]
	if cap(s.valuesBuf) < valChunk+4 {
		s.valuesBuf = make([]byte, valChunk+4)
	}
	s.valuesBuf = s.valuesBuf[:0]

	var word [8]byte
	tagsOff, rawTags, rawValues := 0, 0, 0
	flushTags := func() {
		rawTags += tagsOff
		tagWr.Write(s.tagsBuf[:tagsOff])
		tagsOff = 0
	}
	flushValues := func() {
		rawValues += len(s.valuesBuf)
		valWr.Write(s.valuesBuf)
		s.valuesBuf = s.valuesBuf[:0]
	}
	putWord := func(v uint64) {
		binary.LittleEndian.PutUint64(word[:], v)
		s.valuesBuf = append(s.valuesBuf, word[:]...)
	}

	for off := 0; off < len(pj.Tape); {
		if tagsOff >= tagChunk {
			flushTags()
		}
		if len(s.valuesBuf) >= valChunk {
			flushValues()
		}

		entry := pj.Tape[off]
		tag := Tag(entry >> 56)
		payload := entry & JSONVALUEMASK

		switch tag {
		case TagString:
			sb, err := pj.stringByteAt(payload, pj.Tape[off+1])
			if err != nil {
				panic(fmt.Errorf("serializing string at tape offset %d: %w", off, err))
			}
			putWord(s.internString(sb))
			putWord(uint64(len(sb)))
			off++
		case TagUint, TagInteger:
			putWord(pj.Tape[off+1])
			off++
		case TagFloat:
			if payload == 0 {
				putWord(pj.Tape[off+1])
			} else {
				tag = tagFloatWithFlag
				putWord(entry)
				putWord(pj.Tape[off+1])
			}
			off++
		case TagNull, TagBoolTrue, TagBoolFalse:
			// No payload.
		case TagObjectStart, TagArrayStart:
			// Store the end index as a signed delta from this word's own
			// offset (so the serialized tape can be relocated) plus the
			// child count packed into the start word's high bits, kept
			// as a second value word since the delta already fills the low
			// half of its own word.
			end := payload & containerIndexMask
			count := payload >> containerCountShift
			putWord(end - uint64(off))
			putWord(count)
		case TagRoot:
			// TagRoot's payload may point forward or back to its matching
			// terminator; the delta relies on wraparound to encode either.
			// Opening roots also carry a packed count, round-tripped as a
			// second value word like the container starts above.
			end := payload & containerIndexMask
			count := payload >> containerCountShift
			putWord(end - uint64(off))
			putWord(count)
		case TagObjectEnd, TagArrayEnd, TagEnd:
			// Reconstructed from the matching start tag; no payload here.
		default:
			panic(fmt.Errorf("serializing tape: unknown tag %d at offset %d", int(tag), off))
		}
		s.tagsBuf[tagsOff] = uint8(tag)
		tagsOff++
		off++
	}
	if tagsOff > 0 {
		flushTags()
	}
	if len(s.valuesBuf) > 0 {
		flushValues()
	}

	var wg sync.WaitGroup
	wg.Add(3)
	var tagErr, valErr, msgErr error
	go func() { defer wg.Done(); s.tagsCompBuf, tagErr = tagDone() }()
	go func() { defer wg.Done(); s.valuesCompBuf, valErr = valDone() }()
	go func() { defer wg.Done(); s.messageBuf, msgErr = msgDone() }()
	wg.Wait()
	if tagErr != nil {
		panic(fmt.Errorf("compressing tags: %w", tagErr))
	}
	if valErr != nil {
		panic(fmt.Errorf("compressing values: %w", valErr))
	}
	if msgErr != nil {
		panic(fmt.Errorf("compressing message: %w", msgErr))
	}

	dst = append(dst, serializedVersion)

	var n int
	header := binary.PutUvarint(word[:], uint64(0)) +
		binary.PutUvarint(word[:], uint64(len(s.messageBuf))) +
		binary.PutUvarint(word[:], uint64(rawTags)) +
		binary.PutUvarint(word[:], uint64(len(s.tagsCompBuf))) +
		binary.PutUvarint(word[:], uint64(rawValues)) +
		binary.PutUvarint(word[:], uint64(len(s.valuesCompBuf))) +
		binary.PutUvarint(word[:], uint64(len(s.internBuf))) +
		binary.PutUvarint(word[:], uint64(len(pj.Tape)))
	n = binary.PutUvarint(word[:], uint64(1+len(s.messageBuf)+len(s.tagsCompBuf)+len(s.valuesCompBuf)+header))
	dst = append(dst, word[:n]...)

	n = binary.PutUvarint(word[:], uint64(len(pj.Tape)))
	dst = append(dst, word[:n]...)

	// The interned-string arena is folded into the message block's codec
	// rather than kept separately, so both its uncompressed-size fields are
	// written as 0 here and its bytes travel inside the message block.
	dst = append(dst, 0, 0)

	n = binary.PutUvarint(word[:], uint64(len(s.internBuf)))
	dst = append(dst, word[:n]...)
	n = binary.PutUvarint(word[:], uint64(len(s.messageBuf)))
	dst = append(dst, word[:n]...)
	dst = append(dst, s.messageBuf...)

	n = binary.PutUvarint(word[:], uint64(rawTags))
	dst = append(dst, word[:n]...)
	n = binary.PutUvarint(word[:], uint64(len(s.tagsCompBuf)))
	dst = append(dst, word[:n]...)
	dst = append(dst, s.tagsCompBuf...)

	n = binary.PutUvarint(word[:], uint64(rawValues))
	dst = append(dst, word[:n]...)
	n = binary.PutUvarint(word[:], uint64(len(s.valuesCompBuf)))
	dst = append(dst, word[:n]...)
	dst = append(dst, s.valuesCompBuf...)

	return dst
}

// splitBlocks is retained for callers that want to demultiplex a
// concatenated stream of serialized documents (as serializeNDStream
// produces) without decoding each one; it only validates framing.
func (s *Serializer) splitBlocks(r io.Reader, out chan []byte) error {
	br := bufio.NewReader(r)
	defer close(out)
	for {
		v, err := br.ReadByte()
		if err != nil {
			return err
		}
		if v != serializedVersion {
			return errors.New("simdjson: unknown serialized version")
		}
		size, err := binary.ReadUvarint(br)
		if err != nil {
			return err
		}
		if size > s.maxBlockSize {
			return errors.New("simdjson: compressed block exceeds maxBlockSize")
		}
		block := make([]byte, size)
		n, err := io.ReadFull(br, block)
		if err != nil {
			return err
		}
		if n > 0 {
			out <- block
		}
	}
}

// Deserialize reconstructs a ParsedJson from a buffer Serialize produced.
// Only structural sanity is checked (lengths, tape bounds, container
// back-pointers agreeing); a corrupted buffer that happens to stay within
// those bounds will silently produce a bogus tape.
func (s *Serializer) Deserialize(src []byte, dst *ParsedJson) (*ParsedJson, error) {
	br := bytes.NewBuffer(src)

	v, err := br.ReadByte()
	if err != nil {
		return dst, err
	}
	if v > serializedVersion {
		return dst, errors.New("simdjson: unknown serialized version")
	}
	if dst == nil {
		dst = &ParsedJson{}
	}

	if remaining, err := binary.ReadUvarint(br); err != nil {
		return dst, err
	} else if int(remaining) > br.Len() {
		return dst, fmt.Errorf("simdjson: truncated stream, want %d remaining bytes, have %d", remaining, br.Len())
	}

	if tapeLen, err := binary.ReadUvarint(br); err != nil {
		return dst, err
	} else {
		if uint64(cap(dst.Tape)) < tapeLen {
			dst.Tape = make([]uint64, tapeLen)
		}
		dst.Tape = dst.Tape[:tapeLen]
	}

	if n, err := binary.ReadUvarint(br); err != nil {
		return dst, err
	} else {
		if uint64(cap(dst.Strings)) < n || dst.Strings == nil {
			dst.Strings = make([]byte, n)
		}
		dst.Strings = dst.Strings[:n]
	}

	var decodeWG sync.WaitGroup
	var stringsErr, messageErr error
	if err := s.decBlock(br, dst.Strings, &decodeWG, &stringsErr); err != nil {
		return dst, err
	}

	if n, err := binary.ReadUvarint(br); err != nil {
		return dst, err
	} else {
		if uint64(cap(dst.Message)) < n || dst.Message == nil {
			dst.Message = make([]byte, n)
		}
		dst.Message = dst.Message[:n]
	}
	if err := s.decBlock(br, dst.Message, &decodeWG, &messageErr); err != nil {
		return dst, err
	}
	defer decodeWG.Wait()

	if n, err := binary.ReadUvarint(br); err != nil {
		return dst, err
	} else {
		if uint64(cap(s.tagsBuf)) < n {
			s.tagsBuf = make([]byte, n)
		}
		s.tagsBuf = s.tagsBuf[:n]
	}
	var tagsWG sync.WaitGroup
	var tagsErr error
	if err := s.decBlock(br, s.tagsBuf, &tagsWG, &tagsErr); err != nil {
		return dst, fmt.Errorf("decompressing tags: %w", err)
	}
	defer tagsWG.Wait()

	if n, err := binary.ReadUvarint(br); err != nil {
		return dst, err
	} else {
		if uint64(cap(s.valuesBuf)) < n {
			s.valuesBuf = make([]byte, n)
		}
		s.valuesBuf = s.valuesBuf[:n]
	}
	var valuesErr error
	if err := s.decBlock(br, s.valuesBuf, &tagsWG, &valuesErr); err != nil {
		return dst, fmt.Errorf("decompressing values: %w", err)
	}

	tagsWG.Wait()
	if tagsErr != nil {
		return dst, fmt.Errorf("decompressing tags: %w", tagsErr)
	}
	if valuesErr != nil {
		return dst, fmt.Errorf("decompressing values: %w", valuesErr)
	}

	if err := rebuildTape(dst, s.tagsBuf, s.valuesBuf); err != nil {
		return dst, err
	}

	decodeWG.Wait()
	if stringsErr != nil {
		return dst, fmt.Errorf("decompressing strings: %w", stringsErr)
	}
	if messageErr != nil {
		return dst, fmt.Errorf("decompressing message: %w", messageErr)
	}
	return dst, nil
}

// rebuildTape replays tags against values to refill dst.Tape, restoring
// relative container deltas to absolute tape indices and re-deriving every
// END word from its matching START (see Serialize's TagObjectStart/
// TagArrayStart comment for why only the start's delta is stored).
func rebuildTape(dst *ParsedJson, tags []byte, values []byte) error {
	off := 0
	for _, raw := range tags {
		if off == len(dst.Tape) {
			return errors.New("simdjson: tags extend beyond tape")
		}
		tag := Tag(raw)
		tagWord := uint64(raw) << 56

		switch tag {
		case TagString:
			if len(values) < 16 {
				return fmt.Errorf("reading %v: no values left", tag)
			}
			offset := binary.LittleEndian.Uint64(values[:8])
			length := binary.LittleEndian.Uint64(values[8:16])
			values = values[16:]
			dst.Tape[off] = tagWord | offset
			dst.Tape[off+1] = length
			off += 2
		case TagFloat, TagInteger, TagUint:
			if len(values) < 8 {
				return fmt.Errorf("reading %v: no values left", tag)
			}
			dst.Tape[off] = tagWord
			dst.Tape[off+1] = binary.LittleEndian.Uint64(values[:8])
			values = values[8:]
			off += 2
		case tagFloatWithFlag:
			if len(values) < 16 {
				return fmt.Errorf("reading %v: no values left", tag)
			}
			dst.Tape[off] = binary.LittleEndian.Uint64(values[:8])
			dst.Tape[off+1] = binary.LittleEndian.Uint64(values[8:16])
			values = values[16:]
			off += 2
		case TagNull, TagBoolTrue, TagBoolFalse, TagEnd:
			dst.Tape[off] = tagWord
			off++
		case TagObjectStart, TagArrayStart:
			if len(values) < 16 {
				return fmt.Errorf("reading %v: no values left", tag)
			}
			delta := binary.LittleEndian.Uint64(values[:8])
			count := binary.LittleEndian.Uint64(values[8:16])
			values = values[16:]
			end := delta + uint64(off)
			if end > uint64(len(dst.Tape)) {
				return fmt.Errorf("%v extends beyond tape (%d), offset %d", tag, len(dst.Tape), end)
			}
			if count > maxContainerCount {
				count = maxContainerCount
			}
			dst.Tape[off] = tagWord | end | (count << containerCountShift)
			dst.Tape[end-1] = uint64(tagOpenToClose[tag])<<56 | uint64(off)
			off++
		case TagRoot:
			if len(values) < 16 {
				return fmt.Errorf("reading %v: no values left", tag)
			}
			delta := binary.LittleEndian.Uint64(values[:8])
			count := binary.LittleEndian.Uint64(values[8:16])
			values = values[16:]
			end := delta + uint64(off)
			if end > uint64(len(dst.Tape)) {
				return fmt.Errorf("%v extends beyond tape (%d), offset %d", tag, len(dst.Tape), end)
			}
			if count > maxContainerCount {
				count = maxContainerCount
			}
			dst.Tape[off] = tagWord | end | (count << containerCountShift)
			off++
		case TagObjectEnd, TagArrayEnd:
			if dst.Tape[off]&JSONTAGMASK != tagWord {
				return fmt.Errorf("reading %v at offset %d: start tag mismatch %x != %x", tag, off, dst.Tape[off]>>56, uint8(tag))
			}
			off++
		default:
			return fmt.Errorf("simdjson: unknown tag %v in serialized tape", tag)
		}
	}
	if off != len(dst.Tape) {
		return fmt.Errorf("simdjson: tags did not fill tape, want %d words, got %d", len(dst.Tape), off)
	}
	if len(values) > 0 {
		return fmt.Errorf("simdjson: %d trailing value bytes left after filling tape", len(values))
	}
	return nil
}

// decBlock reads one compressed-block section from br into dst. S2 and zstd
// decode on a background goroutine tracked by wg, reporting their error
// through dstErr once wg.Wait returns; uncompressed blocks decode inline
// since there is nothing to wait for.
func (s *Serializer) decBlock(br *bytes.Buffer, dst []byte, wg *sync.WaitGroup, dstErr *error) error {
	size, err := binary.ReadUvarint(br)
	if err != nil {
		return err
	}
	if size > uint64(br.Len()) {
		return fmt.Errorf("simdjson: block size %d exceeds remaining input %d", size, br.Len())
	}
	if size == 0 && len(dst) == 0 {
		return nil
	}
	if size < 1 {
		return fmt.Errorf("simdjson: block size %d too small for a codec byte", size)
	}

	codec, err := br.ReadByte()
	if err != nil {
		return err
	}
	size--
	compressed := br.Next(int(size))
	if len(compressed) != int(size) {
		return errors.New("simdjson: short block section")
	}

	switch codec {
	case blockTypeUncompressed:
		if len(compressed) != len(dst) {
			return fmt.Errorf("simdjson: uncompressed block size %d does not match expected %d", len(compressed), len(dst))
		}
		copy(dst, compressed)
	case blockTypeS2:
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec := s2ReaderPool.Get().(*s2.Reader)
			dec.Reset(bytes.NewReader(compressed))
			_, *dstErr = io.ReadFull(dec, dst)
			dec.Reset(nil)
			s2ReaderPool.Put(dec)
		}()
	case blockTypeZstd:
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := zstdSharedDecoder.DecodeAll(compressed, dst[:0])
			if err == nil && len(out) != len(dst) {
				err = errors.New("simdjson: zstd-decoded size mismatch")
			}
			*dstErr = err
		}()
	default:
		return fmt.Errorf("simdjson: unknown block codec %d", codec)
	}
	return nil
}

const (
	blockTypeUncompressed byte = 0
	blockTypeS2           byte = 1
	blockTypeZstd         byte = 2
)

var (
	zstdSharedDecoder *zstd.Decoder
	initZstdOnce      sync.Once
)

var zstdFastEncoderPool = sync.Pool{New: func() interface{} {
	e, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderCRC(false))
	return e
}}

var s2FastWriterPool = sync.Pool{New: func() interface{} { return s2.NewWriter(nil) }}
var s2BetterWriterPool = sync.Pool{New: func() interface{} { return s2.NewWriter(nil, s2.WriterBetterCompression()) }}
var s2ReaderPool = sync.Pool{New: func() interface{} { return s2.NewReader(nil) }}

type flushedBlock func() ([]byte, error)

// encBlock opens an encoder for one compressed-block section, writing the
// codec byte immediately and returning a writer plus a finalizer that closes
// the codec, returns its pooled encoder, and yields the finished bytes.
func encBlock(codec byte, buf []byte, fast bool) (io.Writer, flushedBlock) {
	out := bytes.NewBuffer(buf[:0])
	out.WriteByte(codec)
	switch codec {
	case blockTypeUncompressed:
		return out, func() ([]byte, error) { return out.Bytes(), nil }
	case blockTypeS2:
		pool := &s2BetterWriterPool
		if fast {
			pool = &s2FastWriterPool
		}
		enc := pool.Get().(*s2.Writer)
		enc.Reset(out)
		return enc, func() ([]byte, error) {
			if err := enc.Close(); err != nil {
				return nil, err
			}
			enc.Reset(nil)
			pool.Put(enc)
			return out.Bytes(), nil
		}
	case blockTypeZstd:
		enc := zstdFastEncoderPool.Get().(*zstd.Encoder)
		enc.Reset(out)
		return enc, func() ([]byte, error) {
			if err := enc.Close(); err != nil {
				return nil, err
			}
			enc.Reset(nil)
			zstdFastEncoderPool.Put(enc)
			return out.Bytes(), nil
		}
	}
	panic("simdjson: unknown block codec")
}

// internString deduplicates repeated string payloads against a small
// open-addressed (single-slot-per-bucket) hash table keyed by memHash, and
// returns the byte offset of sb's canonical copy inside internBuf. A hash
// collision or a never-before-seen string simply appends a fresh copy.
func (s *Serializer) internString(sb []byte) (offset uint64) {
	if uint32(len(sb)) >= math.MaxUint32 {
		panic("simdjson: string too long to serialize")
	}

	h := memHash(sb) & stringTableMask
	if off := int(s.internTable[h]) - 1; off >= 0 {
		if end := off + len(sb); end <= len(s.internBuf) && bytes.Equal(s.internBuf[off:end], sb) {
			return uint64(off)
		}
	}
	off := len(s.internBuf)
	s.internBuf = append(s.internBuf, sb...)
	s.internTable[h] = uint32(off + 1)
	s.internWr.Write(sb)
	return uint64(off)
}

//go:noescape
//go:linkname memhash runtime.memhash
func memhash(p unsafe.Pointer, h, l uintptr) uintptr

// memHash is the hash function the Go map runtime uses internally (AES-NI
// accelerated where available). Its seed is randomized per process, so a
// hash computed in one process is meaningless in another; internString only
// ever uses it within a single Serialize call.
func memHash(data []byte) uint64 {
	ss := (*stringStruct)(unsafe.Pointer(&data))
	return uint64(memhash(ss.str, 0, uintptr(ss.len)))
}

type stringStruct struct {
	str unsafe.Pointer
	len int
}
