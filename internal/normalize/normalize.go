// Package normalize implements the deterministic preprocessing pipeline
// applied to field values before blocking and similarity scoring. Every
// step is a total function over strings: malformed input passes through
// unchanged, never fails.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Step identifies one preprocessing step. Steps execute left-to-right.
type Step string

const (
	StepLowercase        Step = "lowercase"
	StepUppercase        Step = "uppercase"
	StepTrim             Step = "trim"
	StepRemoveWhitespace Step = "remove_whitespace"
	StepRemovePunct      Step = "remove_punctuation"
	StepNormalizeUmlauts Step = "normalize_umlauts"
	StepExpandUmlauts    Step = "expand_umlauts"
	StepRemoveLegalForms Step = "remove_legal_forms"
	StepNormalizePhone   Step = "normalize_phone"
	StepNormalizeVAT     Step = "normalize_vat"
)

// Known reports whether s names a recognized step.
func Known(s Step) bool {
	switch s {
	case StepLowercase, StepUppercase, StepTrim, StepRemoveWhitespace,
		StepRemovePunct, StepNormalizeUmlauts, StepExpandUmlauts,
		StepRemoveLegalForms, StepNormalizePhone, StepNormalizeVAT:
		return true
	}
	return false
}

// Company-suffix tokens stripped by remove_legal_forms. DACH-centric on
// purpose; extend as new source systems show up.
var legalForms = []string{
	"gmbh & co. kg", "gmbh & co kg", "ag & co. kg", "ag & co kg",
	"gesellschaft mbh", "ges.m.b.h.", "gesmbh", "gmbh", "mbh",
	"aktiengesellschaft", "ag", "kgaa", "kg", "ohg", "gbr", "ug",
	"e.k.", "e.v.", "ev", "se", "co.", "co", "inc.", "inc", "ltd.",
	"ltd", "llc", "sarl", "sa",
}

// Apply runs the steps in order over value. Unknown steps pass the value
// through unchanged; callers that care surface them as warnings.
func Apply(value string, steps []Step) string {
	out := value
	for _, s := range steps {
		out = applyStep(out, s)
	}
	return out
}

func applyStep(v string, s Step) string {
	switch s {
	case StepLowercase:
		return strings.ToLower(v)
	case StepUppercase:
		return strings.ToUpper(v)
	case StepTrim:
		return strings.TrimSpace(v)
	case StepRemoveWhitespace:
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, v)
	case StepRemovePunct:
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
				return r
			}
			return -1
		}, v)
	case StepNormalizeUmlauts:
		return normalizeUmlauts(v)
	case StepExpandUmlauts:
		return expandUmlauts(v)
	case StepRemoveLegalForms:
		return removeLegalForms(v)
	case StepNormalizePhone:
		return normalizePhone(v)
	case StepNormalizeVAT:
		return normalizeVAT(v)
	default:
		return v
	}
}

var umlautRepl = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
)

func normalizeUmlauts(v string) string { return umlautRepl.Replace(v) }

// expandUmlauts is the best-effort inverse of normalizeUmlauts. Lossy:
// genuine "ae"/"oe"/"ue" digraphs contract too.
var umlautExpand = strings.NewReplacer(
	"ae", "ä", "oe", "ö", "ue", "ü", "ss", "ß",
	"Ae", "Ä", "Oe", "Ö", "Ue", "Ü",
)

func expandUmlauts(v string) string { return umlautExpand.Replace(v) }

func removeLegalForms(v string) string {
	tokens := strings.Fields(v)
	kept := tokens[:0]
	for _, tok := range tokens {
		lower := strings.ToLower(strings.Trim(tok, ",."))
		isLegal := false
		for _, lf := range legalForms {
			if lower == lf {
				isLegal = true
				break
			}
		}
		if !isLegal {
			kept = append(kept, tok)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// normalizePhone collapses international prefixes to the domestic form
// ("+43" / "0043" -> "0") and strips separators. DACH country codes plus
// a generic fallback for other prefixes.
func normalizePhone(v string) string {
	var digits strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' || r == '+' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}

	for _, cc := range []string{"43", "49", "41"} {
		if strings.HasPrefix(d, "+"+cc) {
			return "0" + d[len(cc)+1:]
		}
		if strings.HasPrefix(d, "00"+cc) {
			return "0" + d[len(cc)+2:]
		}
	}
	// Unknown country prefix: keep digits, drop the plus.
	if strings.HasPrefix(d, "+") {
		return "0" + d[1:]
	}
	if strings.HasPrefix(d, "00") {
		return "0" + d[2:]
	}
	return d
}

// normalizeVAT strips a leading country prefix, uppercases and removes
// separators, so "ATU 1234-5678" and "u12345678" compare equal.
func normalizeVAT(v string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(v) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) >= 2 && isLetter(s[0]) && isLetter(s[1]) {
		s = s[2:]
	}
	return s
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }

// Stringify converts any supported value kind to its canonical text form.
// Preprocessing and blocking both route through here so algorithms never
// branch on ad hoc type checks. Numbers use decimal representation, times
// a fixed ISO-8601 form, structures a stable JSON serialization.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		// encoding/json sorts map keys, giving a stable serialization.
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", x)
	}
}
