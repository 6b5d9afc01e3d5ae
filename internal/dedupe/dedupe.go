// Package dedupe merges duplicate bibliography entries and keeps citation
// keys unique.
package dedupe

import (
	"strings"

	"github.com/matsen/bibfix/internal/reference"
	"github.com/matsen/bibfix/internal/textutil"
)

// DefaultThreshold is the signature similarity above which two entries are
// considered the same work.
const DefaultThreshold = 0.95

// How a duplicate was matched to its survivor.
const (
	MatchedByIdentifier = "doi"
	MatchedBySignature  = "signature"
)

// Options configures Dedupe.
type Options struct {
	Threshold   float64     // signature similarity, exclusive; 0 means DefaultThreshold
	SuffixStyle SuffixStyle // collision renaming scheme; "" means SuffixLetters
	Separator   string      // between key and suffix; "" means DefaultSeparator
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.SuffixStyle == "" {
		o.SuffixStyle = SuffixLetters
	}
	if o.Separator == "" {
		o.Separator = DefaultSeparator
	}
	return o
}

// Merged describes one entry folded into a survivor.
type Merged struct {
	Key        string  `json:"key"`
	MatchedBy  string  `json:"matched_by"`
	Similarity float64 `json:"similarity,omitempty"`
}

// FieldConflict is a field both entries set to different values. The
// survivor's value is kept.
type FieldConflict struct {
	Field   string `json:"field"`
	Kept    string `json:"kept"`
	Dropped string `json:"dropped"`
}

// Group is a survivor and the duplicates merged into it.
type Group struct {
	Survivor  string          `json:"survivor"`
	Merged    []Merged        `json:"merged"`
	Added     []string        `json:"added_fields,omitempty"`
	Conflicts []FieldConflict `json:"conflicts,omitempty"`
}

// Result is the outcome of a Dedupe pass.
type Result struct {
	Entries []reference.Entry `json:"-"`
	Groups  []Group           `json:"groups"`
	Renames []Rename          `json:"renames"`
}

// MergedCount returns the number of entries removed by merging.
func (r Result) MergedCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Merged)
	}
	return n
}

// Dedupe merges duplicates into the first entry they match, then renames
// colliding keys through reg. A nil reg starts an empty registry. The input
// slice is not modified. It never fails: at worst nothing is merged.
func Dedupe(entries []reference.Entry, reg *KeyRegistry, opts Options) (Result, *KeyRegistry) {
	opts = opts.withDefaults()
	if reg == nil {
		reg = NewKeyRegistry()
	}

	survivors, groups := merge(reference.CloneEntries(entries), opts.Threshold)
	renames := Uniquify(survivors, reg, opts.SuffixStyle, opts.Separator)

	return Result{Entries: survivors, Groups: groups, Renames: renames}, reg
}

type survivor struct {
	entry  reference.Entry
	sig    string
	counts *[128]int32
	group  int // index into groups, -1 until something merges in
}

func newSurvivor(e reference.Entry) *survivor {
	s := &survivor{entry: e, group: -1}
	s.refresh()
	return s
}

func (s *survivor) refresh() {
	s.sig = Signature(s.entry)
	s.counts = byteCounts(s.sig)
}

// minSignatureTitle is the folded title length a signature must exceed.
const minSignatureTitle = 10

// Signature returns the reduced comparison key of an entry: its folded
// alphanumeric title joined to the folded first-author surname. Entries with
// a short title, or with neither author nor year, have no signature.
func Signature(e reference.Entry) string {
	surname := reference.FirstAuthorSurname(e)
	if len(textutil.AlphaNum(e.Title())) <= minSignatureTitle {
		return ""
	}
	if textutil.AlphaNum(surname) == "" && strings.TrimSpace(e.Get("year")) == "" {
		return ""
	}
	return textutil.Signature(e.Title(), surname)
}

func merge(entries []reference.Entry, threshold float64) ([]reference.Entry, []Group) {
	var (
		kept   []*survivor
		groups []Group
		byDOI  = make(map[string]int) // normalized DOI -> index into kept
	)

	for _, e := range entries {
		cand := newSurvivor(e)
		doi := reference.NormalizeDOI(e.Identifier())

		match, how, sim := -1, "", 0.0
		if idx, ok := byDOI[doi]; ok && doi != "" {
			match, how = idx, MatchedByIdentifier
		}
		if cand.sig != "" {
			limit := len(kept)
			if match >= 0 {
				limit = match
			}
			for i := 0; i < limit; i++ {
				if r, ok := similar(kept[i], cand, threshold); ok {
					match, how, sim = i, MatchedBySignature, r
					break
				}
			}
		}

		if match < 0 {
			kept = append(kept, cand)
			if doi != "" {
				if _, ok := byDOI[doi]; !ok {
					byDOI[doi] = len(kept) - 1
				}
			}
			continue
		}

		s := kept[match]
		if s.group < 0 {
			groups = append(groups, Group{Survivor: s.entry.ID})
			s.group = len(groups) - 1
		}
		g := &groups[s.group]
		g.Merged = append(g.Merged, Merged{Key: e.ID, MatchedBy: how, Similarity: sim})
		added, conflicts := mergeFields(&s.entry, e)
		g.Added = appendUnique(g.Added, added...)
		g.Conflicts = append(g.Conflicts, conflicts...)

		if d := reference.NormalizeDOI(s.entry.Identifier()); d != "" {
			if _, ok := byDOI[d]; !ok {
				byDOI[d] = match
			}
		}
		s.refresh()
	}

	out := make([]reference.Entry, len(kept))
	for i, s := range kept {
		out[i] = s.entry
	}
	return out, groups
}

// similar reports whether two non-empty signatures exceed threshold. Cheap
// upper bounds on the ratio are checked before the full comparison.
func similar(a, b *survivor, threshold float64) (float64, bool) {
	if a.sig == "" || b.sig == "" {
		return 0, false
	}
	if a.sig == b.sig {
		return 1, true
	}
	la, lb := len(a.sig), len(b.sig)
	total := float64(la + lb)
	if 2*float64(min(la, lb))/total <= threshold {
		return 0, false
	}
	common := 0
	for i := range a.counts {
		common += int(min(a.counts[i], b.counts[i]))
	}
	if 2*float64(common)/total <= threshold {
		return 0, false
	}
	r := textutil.Ratio(a.sig, b.sig)
	return r, r > threshold
}

func byteCounts(s string) *[128]int32 {
	var c [128]int32
	for i := 0; i < len(s); i++ {
		if s[i] < 128 {
			c[s[i]]++
		}
	}
	return &c
}

// mergeFields copies every field of dup that is absent or empty in dst.
// Non-empty fields of dst are never overwritten.
func mergeFields(dst *reference.Entry, dup reference.Entry) (added []string, conflicts []FieldConflict) {
	dup.Fields.Each(func(name, value string) {
		if value == "" {
			return
		}
		cur := dst.Get(name)
		switch {
		case cur == "":
			dst.Set(name, value)
			added = append(added, name)
		case cur != value:
			conflicts = append(conflicts, FieldConflict{Field: name, Kept: cur, Dropped: value})
		}
	})
	return added, conflicts
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
