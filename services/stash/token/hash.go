// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPrefixLen is the number of leading hash characters used by the
// file-based backends to group contexts into directories and shard buckets.
const HashPrefixLen = 3

// HashSequence derives the canonical storage key for a context: the
// hex-encoded sha256 digest of the sequence's canonical encoding. Two
// contexts share a key iff their token sequences are identical. The empty
// sequence hashes like any other.
func HashSequence(toks []Token) string {
	sum := sha256.Sum256(EncodeSequence(toks))
	return hex.EncodeToString(sum[:])
}
