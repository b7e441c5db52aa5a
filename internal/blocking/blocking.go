// Package blocking derives a blocking key per record and groups records
// sharing a key, bounding pairwise comparison to within-group candidates.
// Two records with equal keys under the configured algorithm are always
// candidates; records with differing keys are never compared. That miss
// across differing keys is the documented recall/cost trade-off, tuned via
// the algorithm and its options.
package blocking

import (
	"sort"
	"strings"

	"record-reconciliation/internal/normalize"
	"record-reconciliation/internal/phonetic"
)

// Algorithm selects how a blocking key is derived from a value.
type Algorithm string

const (
	AlgorithmExact   Algorithm = "exact"
	AlgorithmPrefix  Algorithm = "prefix"
	AlgorithmCologne Algorithm = "cologne_phonetic"
	AlgorithmSoundex Algorithm = "soundex"
)

// Options tunes key derivation.
type Options struct {
	// CaseSensitive keeps the original casing. Default false: keys fold
	// case so "ACME" and "Acme" land in the same bucket.
	CaseSensitive bool `yaml:"caseSensitive" json:"case_sensitive"`
	// MaxLength, if positive, truncates the normalized text before the
	// algorithm-specific transform.
	MaxLength int `yaml:"maxLength" json:"max_length"`
	// PrefixLength applies to the prefix algorithm; 0 means the default 4,
	// anything lower than 1 is clamped to 1.
	PrefixLength int `yaml:"prefixLength" json:"prefix_length"`
}

// Key derives the blocking key for value. The second return is false when
// the record is excluded from blocking (nil value or empty normalized
// text). An unknown algorithm falls back to the normalized text.
func Key(value any, algorithm Algorithm, opts Options) (string, bool) {
	if value == nil {
		return "", false
	}

	text := normalize.Stringify(value)
	if !opts.CaseSensitive {
		text = strings.ToLower(text)
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", false
	}

	if opts.MaxLength > 0 {
		runes := []rune(text)
		if len(runes) > opts.MaxLength {
			text = string(runes[:opts.MaxLength])
		}
	}

	switch algorithm {
	case AlgorithmExact:
		return text, true
	case AlgorithmPrefix:
		n := opts.PrefixLength
		if n == 0 {
			n = 4
		}
		if n < 1 {
			n = 1
		}
		runes := []rune(text)
		if len(runes) > n {
			text = string(runes[:n])
		}
		return text, true
	case AlgorithmCologne:
		// Letterless values encode to nothing; excluding them keeps all
		// such records out of one shared empty-key bucket.
		key := phonetic.Cologne(text)
		return key, key != ""
	case AlgorithmSoundex:
		key := phonetic.Soundex(text)
		return key, key != ""
	default:
		// Unknown algorithm degrades to the normalized text, never fails.
		return text, true
	}
}

// Group is one blocking bucket with the indices of the records (per input
// slice) whose keys collided.
type Group struct {
	Key   string
	Left  []int
	Right []int
}

// Index buckets left and right record indices by blocking key.
type Index struct {
	buckets map[string]*Group
}

func NewIndex() *Index {
	return &Index{buckets: make(map[string]*Group)}
}

func (ix *Index) group(key string) *Group {
	g, ok := ix.buckets[key]
	if !ok {
		g = &Group{Key: key}
		ix.buckets[key] = g
	}
	return g
}

func (ix *Index) AddLeft(key string, i int)  { g := ix.group(key); g.Left = append(g.Left, i) }
func (ix *Index) AddRight(key string, i int) { g := ix.group(key); g.Right = append(g.Right, i) }

// CrossGroups returns the buckets containing records from both sets, in
// deterministic key order. Only these produce candidate pairs; same-set
// pairs inside a bucket are never compared.
func (ix *Index) CrossGroups() []Group {
	keys := make([]string, 0, len(ix.buckets))
	for k, g := range ix.buckets {
		if len(g.Left) > 0 && len(g.Right) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, *ix.buckets[k])
	}
	return out
}
