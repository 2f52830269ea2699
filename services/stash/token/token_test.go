// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenize verifies one token per character, order preserved.
func TestTokenize(t *testing.T) {
	t.Run("ascii", func(t *testing.T) {
		toks := Tokenize("abc")
		require.Len(t, toks, 3)
		assert.Equal(t, Char('a'), toks[0])
		assert.Equal(t, Char('b'), toks[1])
		assert.Equal(t, Char('c'), toks[2])
	})

	t.Run("multibyte runes count as one symbol", func(t *testing.T) {
		toks := Tokenize("aé☃")
		require.Len(t, toks, 3)
		assert.Equal(t, Char('é'), toks[1])
		assert.Equal(t, Char('☃'), toks[2])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
	})
}

// TestTokenEquality verifies structural equality across variants.
func TestTokenEquality(t *testing.T) {
	assert.Equal(t, Char('x'), Char('x'))
	assert.NotEqual(t, Char('x'), Char('y'))
	assert.NotEqual(t, Char('7'), Num(7))
	assert.Equal(t, Num(42), Num(42))
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "a", Char('a').String())
	assert.Equal(t, "42", Num(42).String())
}

// TestHitsIncrement verifies the scan-and-merge insert: counts start at 1,
// increase by exactly 1, and never duplicate a token.
func TestHitsIncrement(t *testing.T) {
	var h Hits

	h = h.Increment(Char('a'))
	require.Len(t, h, 1)
	assert.Equal(t, uint64(1), h.Count(Char('a')))

	h = h.Increment(Char('a'))
	h = h.Increment(Char('a'))
	assert.Equal(t, uint64(3), h.Count(Char('a')))
	assert.Len(t, h, 1, "repeat increments must not add entries")

	h = h.Increment(Char('b'))
	assert.Len(t, h, 2)
	assert.Equal(t, uint64(1), h.Count(Char('b')))
	assert.Equal(t, uint64(3), h.Count(Char('a')), "other symbols unaffected")

	assert.Equal(t, uint64(0), h.Count(Char('z')))
}

func TestHitsClone(t *testing.T) {
	var h Hits
	h = h.Increment(Char('a'))

	clone := h.Clone()
	clone[0].Count = 99
	assert.Equal(t, uint64(1), h.Count(Char('a')), "clone must be independent")

	assert.Nil(t, Hits(nil).Clone())
}

// TestHashSequence verifies the context key derivation.
func TestHashSequence(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := HashSequence(Tokenize("abc"))
		b := HashSequence(Tokenize("abc"))
		assert.Equal(t, a, b)
	})

	t.Run("hex sha256 digest", func(t *testing.T) {
		assert.Len(t, HashSequence(Tokenize("abc")), 64)
	})

	t.Run("distinct sequences get distinct keys", func(t *testing.T) {
		assert.NotEqual(t, HashSequence(Tokenize("ab")), HashSequence(Tokenize("ba")))
		assert.NotEqual(t, HashSequence(Tokenize("a")), HashSequence(Tokenize("ab")))
	})

	t.Run("empty sequence is valid", func(t *testing.T) {
		empty := HashSequence(nil)
		assert.Len(t, empty, 64)
		assert.NotEqual(t, empty, HashSequence(Tokenize("a")))
	})

	t.Run("kind is part of the identity", func(t *testing.T) {
		assert.NotEqual(t,
			HashSequence([]Token{Char('7')}),
			HashSequence([]Token{Num(7)}),
		)
	})
}
