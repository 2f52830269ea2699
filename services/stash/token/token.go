// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package token defines the symbol data model for the frequency store:
// tokens, per-context successor tables, the binary codec used to persist
// them, and the content hashing that turns token sequences into storage
// keys.
//
// A Token is the atomic unit of the input alphabet. The tokenizer emits one
// character token per rune; numeric tokens exist in the model for forward
// extensibility and are never produced by Tokenize.
package token

import "strconv"

// Kind discriminates the token variants.
type Kind uint8

const (
	// KindChar is a single-character token.
	KindChar Kind = iota

	// KindNum is a numeric literal token. Not produced by Tokenize today;
	// reserved for tokenizers with coarser granularity.
	KindNum
)

// Token is a tagged value: either a character or a numeric literal.
// Tokens are immutable and compare structurally with ==.
type Token struct {
	Kind Kind
	Char rune
	Num  uint64
}

// Char returns a character token.
func Char(r rune) Token {
	return Token{Kind: KindChar, Char: r}
}

// Num returns a numeric literal token.
func Num(n uint64) Token {
	return Token{Kind: KindNum, Num: n}
}

// String renders the token for user-facing output.
func (t Token) String() string {
	switch t.Kind {
	case KindChar:
		return string(t.Char)
	case KindNum:
		return strconv.FormatUint(t.Num, 10)
	default:
		return "?"
	}
}

// Entry pairs a token with its observed occurrence count. Counts start at 1
// on first observation and are only ever incremented.
type Entry struct {
	Value Token
	Count uint64
}

// Hits is the successor table for one context: the tokens observed to follow
// it, each with an occurrence count. At most one entry exists per distinct
// token value. A nil or empty Hits means "no observations yet".
type Hits []Entry

// Increment bumps the count for tok, appending a new entry at count 1 when
// the token has not been observed before. The updated table is returned;
// like append, the caller must keep the result.
func (h Hits) Increment(tok Token) Hits {
	for i := range h {
		if h[i].Value == tok {
			h[i].Count++
			return h
		}
	}
	return append(h, Entry{Value: tok, Count: 1})
}

// Count returns the occurrence count recorded for tok, or 0.
func (h Hits) Count(tok Token) uint64 {
	for i := range h {
		if h[i].Value == tok {
			return h[i].Count
		}
	}
	return 0
}

// Clone returns an independent copy of the table.
func (h Hits) Clone() Hits {
	if h == nil {
		return nil
	}
	out := make(Hits, len(h))
	copy(out, h)
	return out
}

// Bucket maps context keys (hash strings) to their successor tables. It is
// the durability unit of the sharded-bucket backend, grouping every context
// that shares a hash prefix into one file.
type Bucket map[string]Hits

// Tokenize splits text into one character token per rune, preserving order
// and length. There is no normalization and no failure mode.
func Tokenize(s string) []Token {
	toks := make([]Token, 0, len(s))
	for _, r := range s {
		toks = append(toks, Char(r))
	}
	return toks
}
