// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stash orchestrates the frequency model: it drives the tokenizer,
// context hashing and a storage backend to note observed transitions, and
// implements the sliding-window trainer, longest-match-first prediction and
// generation on top of them.
//
// A Stash owns its backend exclusively for the lifetime of one run; all
// operations are synchronous and single-threaded.
package stash

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ayourtch/hashmem/services/stash/store"
	"github.com/ayourtch/hashmem/services/stash/token"
)

// ErrEmptyInput is returned by noting operations that need at least one
// symbol to derive a transition.
var ErrEmptyInput = errors.New("input must contain at least one symbol")

// DefaultContextLength is the maximum context length used when none is
// configured.
const DefaultContextLength = 32

// predictCacheSize bounds the read cache used by the predictor. The
// generate loop re-resolves the same suffixes constantly; the write path
// purges the cache, so it never affects what is durable.
const predictCacheSize = 4096

// Option configures a Stash.
type Option func(*Stash)

// WithContextLength sets the maximum context length L for noting and
// prediction.
func WithContextLength(n int) Option {
	return func(s *Stash) { s.contextLen = n }
}

// WithLogger sets the logger for training progress and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stash) { s.logger = logger }
}

// WithRand sets the random source used by the generator. Tests use a seeded
// source for reproducible output.
func WithRand(rng *rand.Rand) Option {
	return func(s *Stash) { s.rng = rng }
}

// Stash maps contexts (sequences of recent tokens) to the observed
// frequency of the tokens that followed them, persisted through a single
// exclusively-owned storage backend.
type Stash struct {
	backend    store.Backend
	contextLen int
	rng        *rand.Rand
	logger     *slog.Logger
	predCache  *lru.Cache[string, token.Hits]
}

// New creates a Stash over backend. The Stash owns the backend until Close.
func New(backend store.Backend, opts ...Option) (*Stash, error) {
	if backend == nil {
		return nil, errors.New("backend must not be nil")
	}
	s := &Stash{
		backend:    backend,
		contextLen: DefaultContextLength,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.contextLen < 1 {
		return nil, fmt.Errorf("context length must be at least 1, got %d", s.contextLen)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	cache, err := lru.New[string, token.Hits](predictCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	s.predCache = cache
	return s, nil
}

// ContextLength returns the configured maximum context length.
func (s *Stash) ContextLength() int {
	return s.contextLen
}

// Close flushes and closes the owned backend.
func (s *Stash) Close() error {
	return s.backend.Close()
}

// NoteTransition records one observation: next followed ctx. The context's
// table is loaded, the count for next is incremented (created at 1 on first
// observation), and the updated table is persisted. An empty ctx is valid.
func (s *Stash) NoteTransition(ctx []token.Token, next token.Token) error {
	hash := token.HashSequence(ctx)
	hits, err := s.backend.Get(hash)
	if err != nil {
		return err
	}
	if err := s.backend.Put(hash, hits.Increment(next)); err != nil {
		return err
	}
	s.predCache.Purge()
	return nil
}

// Successors returns the stored successor table for ctx, or an empty table.
// Pure read; never mutates.
func (s *Stash) Successors(ctx []token.Token) (token.Hits, error) {
	return s.backend.Get(token.HashSequence(ctx))
}

// NoteString records the single transition a string encodes: its last
// symbol following everything before it.
func (s *Stash) NoteString(input string) error {
	toks := token.Tokenize(input)
	if len(toks) == 0 {
		return ErrEmptyInput
	}
	return s.NoteTransition(toks[:len(toks)-1], toks[len(toks)-1])
}

// NoteWindows notes the trailing window of input at every context length up
// to the configured maximum: for each window index i, the last 2+i symbols
// contribute one transition when the input is long enough.
func (s *Stash) NoteWindows(input string) error {
	toks := token.Tokenize(input)
	for i := 0; i < s.contextLen; i++ {
		if len(toks) > 1+i {
			ctx := toks[len(toks)-2-i : len(toks)-1]
			if err := s.NoteTransition(ctx, toks[len(toks)-1]); err != nil {
				return err
			}
		}
	}
	return nil
}

// NoteText trains on a whole document with the sliding-window algorithm:
// for every position i from 2 through len(input) and every window index j
// in [0, L) with i > 1+j, the context input[i-2-j : i-1] is observed to be
// followed by input[i-1]. One frequency update per (position, length) pair.
//
// All updates for the document accumulate in memory keyed by context key,
// merging repeat observations, and reach the backend as a single batch
// followed by one Flush. progress, when non-nil, is called periodically
// with (symbols processed, total symbols) and once more at completion.
func (s *Stash) NoteText(input string, progress func(done, total int)) error {
	toks := token.Tokenize(input)
	total := len(toks)

	batch := make(map[string]token.Hits)
	for i := 2; i <= total; i++ {
		next := toks[i-1]
		for j := 0; j < s.contextLen; j++ {
			if i <= 1+j {
				break
			}
			ctx := toks[i-2-j : i-1]
			hash := token.HashSequence(ctx)
			hits, ok := batch[hash]
			if !ok {
				stored, err := s.backend.Get(hash)
				if err != nil {
					return err
				}
				hits = stored
			}
			batch[hash] = hits.Increment(next)
		}
		if progress != nil && i%100 == 0 {
			progress(i, total)
		}
	}

	for hash, hits := range batch {
		if err := s.backend.Put(hash, hits); err != nil {
			return err
		}
	}
	if err := s.backend.Flush(); err != nil {
		return err
	}
	s.predCache.Purge()
	if progress != nil {
		progress(total, total)
	}
	s.logger.Debug("noted text",
		slog.Int("symbols", total),
		slog.Int("contexts", len(batch)),
	)
	return nil
}

// Predict returns the successor table for the longest trained suffix of
// input: suffix lengths from min(L, len(input)) down to 1 are tried and the
// first non-empty table wins. The empty table means no context of any
// length has ever been observed.
func (s *Stash) Predict(input string) (token.Hits, error) {
	return s.predictTokens(token.Tokenize(input))
}

func (s *Stash) predictTokens(toks []token.Token) (token.Hits, error) {
	for n := min(s.contextLen, len(toks)); n >= 1; n-- {
		hits, err := s.lookup(toks[len(toks)-n:])
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return hits, nil
		}
	}
	return nil, nil
}

// lookup is Successors behind the prediction read cache. Empty results are
// cached too; every write path purges the cache.
func (s *Stash) lookup(ctx []token.Token) (token.Hits, error) {
	hash := token.HashSequence(ctx)
	if hits, ok := s.predCache.Get(hash); ok {
		return hits, nil
	}
	hits, err := s.backend.Get(hash)
	if err != nil {
		return nil, err
	}
	s.predCache.Add(hash, hits)
	return hits, nil
}

// Generator returns a lazy generator seeded with seed. Each Next call
// predicts from the seed plus everything generated so far.
func (s *Stash) Generator(seed string) *Generator {
	return &Generator{s: s, content: token.Tokenize(seed)}
}

// Generator produces a finite-until-failure sequence of tokens from the
// model. It is lazy: tokens are derived one Next call at a time.
type Generator struct {
	s       *Stash
	content []token.Token
}

// Next predicts the candidate successors of the accumulated context and
// selects one uniformly at random by index. The selection is deliberately
// not weighted by count; that quirk is part of the model's observable
// behavior. ok is false when no context of any backoff length has recorded
// successors, which ends the sequence and is not an error.
func (g *Generator) Next() (tok token.Token, ok bool, err error) {
	hits, err := g.s.predictTokens(g.content)
	if err != nil {
		return token.Token{}, false, err
	}
	if len(hits) == 0 {
		return token.Token{}, false, nil
	}
	pick := hits[g.s.rng.IntN(len(hits))].Value
	g.content = append(g.content, pick)
	return pick, true, nil
}
