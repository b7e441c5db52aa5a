// Package similarity computes normalized [0,1] scores between two values
// under a chosen algorithm, and composite scores combining several
// algorithms. 1 means identical under the algorithm's notion of equality.
package similarity

import (
	"fmt"
	"strings"

	"record-reconciliation/internal/normalize"
	"record-reconciliation/internal/phonetic"
	errs "record-reconciliation/pkg/errors"
)

// Algorithm names one base similarity algorithm.
type Algorithm string

const (
	AlgorithmLevenshtein  Algorithm = "levenshtein"
	AlgorithmJaro         Algorithm = "jaro"
	AlgorithmJaroWinkler  Algorithm = "jaro_winkler"
	AlgorithmDiceSorensen Algorithm = "dice_sorensen"
	AlgorithmJaccard      Algorithm = "jaccard"
	AlgorithmNgram        Algorithm = "ngram"
	AlgorithmSoundex      Algorithm = "soundex"
	AlgorithmCologne      Algorithm = "cologne_phonetic"
)

// Aggregation combines component scores of a composite comparison.
type Aggregation string

const (
	AggregationAverage  Aggregation = "average"
	AggregationWeighted Aggregation = "weighted"
	AggregationMax      Aggregation = "max"
	AggregationMin      Aggregation = "min"
)

// Config selects an algorithm and its knobs for one comparison.
type Config struct {
	Algorithm Algorithm `yaml:"algorithm" json:"algorithm"`
	// Normalize runs these preprocessing steps over both values first.
	Normalize []normalize.Step `yaml:"normalize,omitempty" json:"normalize,omitempty"`
	// CaseInsensitive lowercases both values before comparison.
	CaseInsensitive bool `yaml:"caseInsensitive" json:"case_insensitive"`
	// NgramSize applies to the ngram algorithm; 0 means the default 2.
	NgramSize int `yaml:"ngramSize,omitempty" json:"ngram_size,omitempty"`
	// Weight is consumed by weighted composite aggregation.
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Result is the outcome of a single-algorithm comparison.
type Result struct {
	Score     float64   `json:"score"`
	Algorithm Algorithm `json:"algorithm"`
	Details   []string  `json:"details,omitempty"`
}

// CompositeResult combines several single-algorithm results.
type CompositeResult struct {
	Score       float64     `json:"score"`
	Components  []Result    `json:"components"`
	Aggregation Aggregation `json:"aggregation"`
}

// Score compares a and b under cfg. Unknown algorithms degrade to exact
// equality with a warning detail; they never fail the comparison.
func Score(a, b string, cfg Config) Result {
	if len(cfg.Normalize) > 0 {
		a = normalize.Apply(a, cfg.Normalize)
		b = normalize.Apply(b, cfg.Normalize)
	}
	if cfg.CaseInsensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}

	res := Result{Algorithm: cfg.Algorithm}
	switch cfg.Algorithm {
	case AlgorithmLevenshtein:
		res.Score = Levenshtein(a, b)
	case AlgorithmJaro:
		res.Score = Jaro(a, b)
	case AlgorithmJaroWinkler:
		res.Score = JaroWinkler(a, b)
	case AlgorithmDiceSorensen:
		res.Score = ngramOverlap(a, b, 2)
	case AlgorithmNgram:
		n := cfg.NgramSize
		if n <= 0 {
			n = 2
		}
		res.Score = ngramOverlap(a, b, n)
	case AlgorithmJaccard:
		res.Score = Jaccard(a, b)
	case AlgorithmSoundex:
		res.Score = binary(phonetic.Soundex(a) == phonetic.Soundex(b))
	case AlgorithmCologne:
		res.Score = binary(phonetic.Cologne(a) == phonetic.Cologne(b))
	default:
		res.Score = binary(a == b)
		res.Details = append(res.Details,
			fmt.Sprintf("unknown similarity algorithm %q, fell back to exact equality", cfg.Algorithm))
	}
	return res
}

// Composite compares a and b under every config and aggregates the
// component scores. An empty config list is a configuration error, not a
// silent zero.
func Composite(a, b string, configs []Config, agg Aggregation) (CompositeResult, error) {
	if len(configs) == 0 {
		return CompositeResult{}, errs.NewConfig("similarity.Composite", errs.CodeEmptyComposite,
			"composite similarity requires at least one component",
			"add one or more algorithm entries to the composite configuration")
	}

	components := make([]Result, len(configs))
	for i, cfg := range configs {
		components[i] = Score(a, b, cfg)
	}

	var score float64
	switch agg {
	case AggregationWeighted:
		var sum, totalWeight float64
		for i, cfg := range configs {
			sum += components[i].Score * cfg.Weight
			totalWeight += cfg.Weight
		}
		if totalWeight > 0 {
			score = sum / totalWeight
		}
	case AggregationMax:
		score = components[0].Score
		for _, c := range components[1:] {
			if c.Score > score {
				score = c.Score
			}
		}
	case AggregationMin:
		score = components[0].Score
		for _, c := range components[1:] {
			if c.Score < score {
				score = c.Score
			}
		}
	default: // average
		var sum float64
		for _, c := range components {
			sum += c.Score
		}
		score = sum / float64(len(components))
		agg = AggregationAverage
	}

	return CompositeResult{Score: score, Components: components, Aggregation: agg}, nil
}

func binary(equal bool) float64 {
	if equal {
		return 1.0
	}
	return 0.0
}

// Levenshtein returns 1 - editDistance/max(len(a), len(b)); both empty is
// defined as 1.
func Levenshtein(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	dist := editDistance(ra, rb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1.0 - float64(dist)/float64(longest)
}

// editDistance computes the Levenshtein distance with two rolling rows.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Jaro computes the Jaro similarity using matching-character windows and
// transposition counts. Both empty is 1; one empty is 0.
func Jaro(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	window := len(ra)
	if len(rb) > window {
		window = len(rb)
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(ra))
	bMatched := make([]bool, len(rb))
	matches := 0
	for i := range ra {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(rb) {
			hi = len(rb)
		}
		for j := lo; j < hi; j++ {
			if bMatched[j] || ra[i] != rb[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	j := 0
	for i := range ra {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}
	t := float64(transpositions) / 2.0
	m := float64(matches)

	return (m/float64(len(ra)) + m/float64(len(rb)) + (m-t)/m) / 3.0
}

const winklerBoost = 0.1 // per shared prefix character, capped at 4

// JaroWinkler adds a prefix boost for up to 4 shared leading characters.
func JaroWinkler(a, b string) float64 {
	j := Jaro(a, b)

	ra, rb := []rune(a), []rune(b)
	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && prefix < 4 && ra[prefix] == rb[prefix] {
		prefix++
	}
	return j + float64(prefix)*winklerBoost*(1.0-j)
}

// ngramOverlap is the Dice overlap over character n-grams:
// 2*|A∩B| / (|A|+|B|). Dice-Sørensen is the bigram special case.
func ngramOverlap(a, b string, n int) float64 {
	if a == b {
		return 1.0
	}
	ga := ngrams(a, n)
	gb := ngrams(b, n)
	if len(ga) == 0 || len(gb) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(ga))
	for _, g := range ga {
		counts[g]++
	}
	shared := 0
	for _, g := range gb {
		if counts[g] > 0 {
			counts[g]--
			shared++
		}
	}
	return 2.0 * float64(shared) / float64(len(ga)+len(gb))
}

func ngrams(s string, n int) []string {
	runes := []rune(s)
	if len(runes) < n {
		return nil
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}

// Jaccard is the token-set overlap |A∩B| / |A∪B| over whitespace tokens.
func Jaccard(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}
