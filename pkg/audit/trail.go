// Package audit provides a tamper-evident append-only trail for posting
// lifecycle events. Each entry is hash-chained to its predecessor, so any
// edit to a recorded payload breaks verification of everything after it.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Payload      string `json:"payload"`
	Hash         string `json:"hash"`
}

// Trail is a hash-chained audit log. Entries are retained in order so the
// chain can be exported and verified.
type Trail struct {
	mu           sync.Mutex
	previousHash string
	entries      []*Entry
}

// NewTrail creates a trail anchored at a zero hash.
func NewTrail() *Trail {
	return &Trail{
		previousHash: strings.Repeat("0", 64),
	}
}

// Append records a payload and links it to the previous entry.
func (t *Trail) Append(payload string) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := &Entry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		PreviousHash: t.previousHash,
		Payload:      payload,
	}
	entry.Hash = entryHash(entry.PreviousHash, entry.Timestamp, entry.Payload)

	t.previousHash = entry.Hash
	t.entries = append(t.entries, entry)
	return entry
}

// Entries returns a snapshot of the recorded chain.
func (t *Trail) Entries() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// VerifyChain checks that a slice of entries forms an unbroken, untampered
// hash chain.
func VerifyChain(entries []*Entry) bool {
	for i, entry := range entries {
		prevHash := entry.PreviousHash
		if i > 0 && entries[i-1].Hash != prevHash {
			return false
		}
		if entryHash(prevHash, entry.Timestamp, entry.Payload) != entry.Hash {
			return false
		}
	}
	return true
}

func entryHash(previousHash, timestamp, payload string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", previousHash, timestamp, payload)))
	return hex.EncodeToString(sum[:])
}
