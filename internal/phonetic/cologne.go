// Package phonetic implements the two phonetic codecs used for blocking
// and similarity: Kölner Phonetik for German/Austrian/Swiss names and the
// classic Soundex. Both are pure and total; any string, including the
// empty one, yields a defined code.
package phonetic

import (
	"strings"
	"unicode"
)

// Cologne returns the Kölner Phonetik code for the input: every letter is
// mapped to a digit using context-sensitive rules, adjacent duplicate
// digits collapse, and '0' survives only in the leading position. Tuned
// for DACH name conventions; Cologne("Meyer") == Cologne("Maier").
func Cologne(s string) string {
	letters := cologneLetters(s)
	if len(letters) == 0 {
		return ""
	}

	var raw []byte
	for i, c := range letters {
		var prev, next byte
		if i > 0 {
			prev = letters[i-1]
		}
		if i < len(letters)-1 {
			next = letters[i+1]
		}
		raw = append(raw, cologneCode(c, prev, next, i == 0)...)
	}

	// Collapse adjacent duplicates, then drop '0' except as leading digit.
	var out strings.Builder
	var last byte
	for i, c := range raw {
		if i > 0 && c == last {
			continue
		}
		last = c
		if c == '0' && out.Len() > 0 {
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// cologneLetters uppercases, folds umlauts into their base vowels
// (they code as vowels), maps ß to S and drops everything else.
func cologneLetters(s string) []byte {
	var out []byte
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'Ä':
			out = append(out, 'A')
		case 'Ö':
			out = append(out, 'O')
		case 'Ü':
			out = append(out, 'U')
		case 'ß', 'ẞ':
			out = append(out, 'S')
		default:
			if r >= 'A' && r <= 'Z' {
				out = append(out, byte(r))
			} else if unicode.IsLetter(r) {
				// Other diacritics: best effort, skip.
				continue
			}
		}
	}
	return out
}

// cologneCode maps one letter given its neighbours. Returns one or two
// digits ('X' not after C/K/Q codes "48").
func cologneCode(c, prev, next byte, initial bool) []byte {
	switch c {
	case 'A', 'E', 'I', 'J', 'O', 'U', 'Y':
		return []byte{'0'}
	case 'H':
		return nil
	case 'B':
		return []byte{'1'}
	case 'P':
		if next == 'H' {
			return []byte{'3'}
		}
		return []byte{'1'}
	case 'D', 'T':
		if next == 'C' || next == 'S' || next == 'Z' {
			return []byte{'8'}
		}
		return []byte{'2'}
	case 'F', 'V', 'W':
		return []byte{'3'}
	case 'G', 'K', 'Q':
		return []byte{'4'}
	case 'C':
		if initial {
			if oneOf(next, "AHKLOQRUX") {
				return []byte{'4'}
			}
			return []byte{'8'}
		}
		if prev == 'S' || prev == 'Z' {
			return []byte{'8'}
		}
		if oneOf(next, "AHKOQUX") {
			return []byte{'4'}
		}
		return []byte{'8'}
	case 'X':
		if prev == 'C' || prev == 'K' || prev == 'Q' {
			return []byte{'8'}
		}
		return []byte{'4', '8'}
	case 'L':
		return []byte{'5'}
	case 'M', 'N':
		return []byte{'6'}
	case 'R':
		return []byte{'7'}
	case 'S', 'Z':
		return []byte{'8'}
	}
	return nil
}

func oneOf(c byte, set string) bool {
	return c != 0 && strings.IndexByte(set, c) >= 0
}
