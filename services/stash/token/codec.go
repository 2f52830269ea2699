// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package token

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
)

// ErrCorruptRecord is returned when stored bytes fail to decode: truncated
// input, unknown version, unknown token kind, or CRC mismatch. Callers must
// treat it as fatal for the operation; a corrupt successor table must never
// degrade into an empty one.
var ErrCorruptRecord = errors.New("corrupt record")

const (
	hitsVersion   byte = 1
	bucketVersion byte = 1
)

// Record layout (all integers big-endian):
//
//	Hits:   version u8 | count u32 | entries... | crc32 u32
//	entry:  kind u8 | char u32 or num u64 | count u64
//	Bucket: version u8 | count u32 | (hashLen u16 | hash | hitsLen u32 | hits)... | crc32 u32
//
// The trailing crc32 (IEEE) covers everything before it.

func appendToken(buf []byte, t Token) []byte {
	buf = append(buf, byte(t.Kind))
	switch t.Kind {
	case KindChar:
		buf = binary.BigEndian.AppendUint32(buf, uint32(t.Char))
	default:
		buf = binary.BigEndian.AppendUint64(buf, t.Num)
	}
	return buf
}

func readToken(b []byte) (Token, []byte, error) {
	if len(b) < 1 {
		return Token{}, nil, fmt.Errorf("%w: truncated token", ErrCorruptRecord)
	}
	kind := Kind(b[0])
	b = b[1:]
	switch kind {
	case KindChar:
		if len(b) < 4 {
			return Token{}, nil, fmt.Errorf("%w: truncated char token", ErrCorruptRecord)
		}
		r := rune(binary.BigEndian.Uint32(b))
		return Char(r), b[4:], nil
	case KindNum:
		if len(b) < 8 {
			return Token{}, nil, fmt.Errorf("%w: truncated num token", ErrCorruptRecord)
		}
		n := binary.BigEndian.Uint64(b)
		return Num(n), b[8:], nil
	default:
		return Token{}, nil, fmt.Errorf("%w: unknown token kind %d", ErrCorruptRecord, kind)
	}
}

// EncodeSequence produces the canonical byte encoding of a token sequence.
// It is deterministic and unambiguous (count-prefixed, fixed-width fields),
// so distinct sequences never share an encoding. This is the pre-image for
// HashSequence and must stay byte-stable across releases.
func EncodeSequence(toks []Token) []byte {
	buf := make([]byte, 0, 4+len(toks)*9)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(toks)))
	for _, t := range toks {
		buf = appendToken(buf, t)
	}
	return buf
}

// EncodeHits serializes a successor table.
func EncodeHits(h Hits) []byte {
	buf := make([]byte, 0, 5+len(h)*17+4)
	buf = append(buf, hitsVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(h)))
	for _, e := range h {
		buf = appendToken(buf, e.Value)
		buf = binary.BigEndian.AppendUint64(buf, e.Count)
	}
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// DecodeHits parses a successor table produced by EncodeHits.
func DecodeHits(b []byte) (Hits, error) {
	body, err := checkFrame(b)
	if err != nil {
		return nil, err
	}
	if body[0] != hitsVersion {
		return nil, fmt.Errorf("%w: unsupported hits version %d", ErrCorruptRecord, body[0])
	}
	n := binary.BigEndian.Uint32(body[1:5])
	rest := body[5:]
	hits := make(Hits, 0, n)
	for i := uint32(0); i < n; i++ {
		var tok Token
		tok, rest, err = readToken(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < 8 {
			return nil, fmt.Errorf("%w: truncated entry count", ErrCorruptRecord)
		}
		hits = append(hits, Entry{Value: tok, Count: binary.BigEndian.Uint64(rest)})
		rest = rest[8:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, len(rest))
	}
	return hits, nil
}

// EncodeBucket serializes a shard bucket. Keys are written in sorted order
// so the same bucket always encodes to the same bytes.
func EncodeBucket(bk Bucket) []byte {
	keys := make([]string, 0, len(bk))
	for k := range bk {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{bucketVersion}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(k)))
		buf = append(buf, k...)
		enc := EncodeHits(bk[k])
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(enc)))
		buf = append(buf, enc...)
	}
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// DecodeBucket parses a shard bucket produced by EncodeBucket.
func DecodeBucket(b []byte) (Bucket, error) {
	body, err := checkFrame(b)
	if err != nil {
		return nil, err
	}
	if body[0] != bucketVersion {
		return nil, fmt.Errorf("%w: unsupported bucket version %d", ErrCorruptRecord, body[0])
	}
	n := binary.BigEndian.Uint32(body[1:5])
	rest := body[5:]
	bk := make(Bucket, n)
	for i := uint32(0); i < n; i++ {
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: truncated bucket key length", ErrCorruptRecord)
		}
		klen := int(binary.BigEndian.Uint16(rest))
		rest = rest[2:]
		if len(rest) < klen+4 {
			return nil, fmt.Errorf("%w: truncated bucket key", ErrCorruptRecord)
		}
		key := string(rest[:klen])
		rest = rest[klen:]
		vlen := int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		if len(rest) < vlen {
			return nil, fmt.Errorf("%w: truncated bucket value", ErrCorruptRecord)
		}
		hits, err := DecodeHits(rest[:vlen])
		if err != nil {
			return nil, err
		}
		bk[key] = hits
		rest = rest[vlen:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, len(rest))
	}
	return bk, nil
}

// checkFrame validates the minimum length and trailing CRC, returning the
// body without the checksum.
func checkFrame(b []byte) ([]byte, error) {
	// version + count + crc
	if len(b) < 9 {
		return nil, fmt.Errorf("%w: record too short (%d bytes)", ErrCorruptRecord, len(b))
	}
	body, sum := b[:len(b)-4], binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.ChecksumIEEE(body) != sum {
		return nil, fmt.Errorf("%w: crc mismatch", ErrCorruptRecord)
	}
	return body, nil
}
