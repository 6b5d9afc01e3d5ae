package dedupe

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/matsen/bibfix/internal/reference"
)

// SuffixStyle selects how colliding citation keys are renamed.
type SuffixStyle string

const (
	// SuffixLetters tries key_a .. key_z, then key_2, key_3, ...
	SuffixLetters SuffixStyle = "letters"
	// SuffixNumbers tries key_2, key_3, ...
	SuffixNumbers SuffixStyle = "numbers"
)

// DefaultSeparator joins a key and its collision suffix.
const DefaultSeparator = "_"

// ParseSuffixStyle validates a style name from configuration.
func ParseSuffixStyle(s string) (SuffixStyle, error) {
	switch SuffixStyle(s) {
	case SuffixLetters, SuffixNumbers:
		return SuffixStyle(s), nil
	case "":
		return SuffixLetters, nil
	}
	return "", fmt.Errorf("unknown key suffix style %q (want %q or %q)", s, SuffixLetters, SuffixNumbers)
}

// KeyRegistry is the set of citation keys taken during one run.
type KeyRegistry struct {
	taken map[string]bool
}

// NewKeyRegistry returns a registry holding the given keys.
func NewKeyRegistry(keys ...string) *KeyRegistry {
	r := &KeyRegistry{taken: make(map[string]bool, len(keys))}
	for _, k := range keys {
		r.Reserve(k)
	}
	return r
}

// Reserve marks key as taken. It reports false if it already was.
func (r *KeyRegistry) Reserve(key string) bool {
	if r.taken[key] {
		return false
	}
	r.taken[key] = true
	return true
}

// Has reports whether key is taken.
func (r *KeyRegistry) Has(key string) bool {
	return r.taken[key]
}

// Len returns the number of taken keys.
func (r *KeyRegistry) Len() int {
	return len(r.taken)
}

// Keys returns the taken keys in sorted order.
func (r *KeyRegistry) Keys() []string {
	keys := make([]string, 0, len(r.taken))
	for k := range r.taken {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Next returns the first free key derived from base with the given style.
// It does not reserve the result.
func (r *KeyRegistry) Next(base string, style SuffixStyle, sep string) string {
	if style != SuffixNumbers {
		for c := 'a'; c <= 'z'; c++ {
			candidate := base + sep + string(c)
			if !r.taken[candidate] {
				return candidate
			}
		}
	}
	// Start at 2: the unsuffixed base counts as the first
	for i := 2; ; i++ {
		candidate := base + sep + strconv.Itoa(i)
		if !r.taken[candidate] {
			return candidate
		}
	}
}

// Rename records a citation key change.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Uniquify renames entries whose key was already used by an earlier entry.
// Every entry key is reserved in reg first, so an entry that already carries
// a suffixed key keeps it and generated keys never collide with it. The
// first entry with a given key keeps it. Entries are modified in place.
func Uniquify(entries []reference.Entry, reg *KeyRegistry, style SuffixStyle, sep string) []Rename {
	for _, e := range entries {
		reg.Reserve(e.ID)
	}

	var renames []Rename
	claimed := make(map[string]bool, len(entries))
	for i := range entries {
		key := entries[i].ID
		if !claimed[key] {
			claimed[key] = true
			continue
		}
		next := reg.Next(key, style, sep)
		reg.Reserve(next)
		claimed[next] = true
		entries[i].ID = next
		renames = append(renames, Rename{From: key, To: next})
	}
	return renames
}
