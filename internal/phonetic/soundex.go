package phonetic

import (
	"strings"
	"unicode"
)

// Soundex returns the standard 4-character American Soundex code
// (letter + 3 digits): first letter kept, remaining letters mapped to six
// digit classes, adjacent duplicates collapsed, vowels and h/w/y dropped.
// Letters with the same code separated only by h or w are coded once.
// Empty or letterless input yields an empty code.
func Soundex(s string) string {
	var cleaned []byte
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch r {
		case 'Ä':
			cleaned = append(cleaned, 'A')
		case 'Ö':
			cleaned = append(cleaned, 'O')
		case 'Ü':
			cleaned = append(cleaned, 'U')
		case 'ß', 'ẞ':
			cleaned = append(cleaned, 'S', 'S')
		default:
			if r >= 'A' && r <= 'Z' {
				cleaned = append(cleaned, byte(r))
			} else if unicode.IsLetter(r) {
				continue
			}
		}
	}
	if len(cleaned) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteByte(cleaned[0])
	lastCode := soundexCode(cleaned[0])

	for i := 1; i < len(cleaned) && out.Len() < 4; i++ {
		c := cleaned[i]
		if c == 'H' || c == 'W' {
			// h and w are transparent: they neither emit a digit nor
			// separate equal codes.
			continue
		}
		code := soundexCode(c)
		if code == '0' {
			// Vowels emit nothing but do separate equal codes.
			lastCode = '0'
			continue
		}
		if code != lastCode {
			out.WriteByte(code)
		}
		lastCode = code
	}

	for out.Len() < 4 {
		out.WriteByte('0')
	}
	return out.String()
}

// soundexCode groups similar sounding consonants; vowels and y map to '0'.
func soundexCode(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return '1'
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return '2'
	case 'D', 'T':
		return '3'
	case 'L':
		return '4'
	case 'M', 'N':
		return '5'
	case 'R':
		return '6'
	default:
		return '0'
	}
}
