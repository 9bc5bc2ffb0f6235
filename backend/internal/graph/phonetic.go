package graph

import (
	"strings"
	"unicode"
)

var soundexCodes = map[rune]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// Soundex returns the American Soundex code of s, the encoding behind
// apoc.text.phonetic. Non-letters are ignored; an input without letters
// yields "".
func Soundex(s string) string {
	var letters []rune
	for _, r := range strings.ToUpper(s) {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	code := []byte{byte(letters[0])}
	last := soundexCodes[letters[0]]
	for _, r := range letters[1:] {
		digit, coded := soundexCodes[r]
		switch {
		case coded && digit != last:
			code = append(code, digit)
			if len(code) == 4 {
				return string(code)
			}
			last = digit
		case r == 'H' || r == 'W':
			// H and W do not separate letters with the same code
		case !coded:
			last = 0
		}
	}

	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// soundsAlike compares Soundex codes. Names without ASCII letters have no
// code and never match phonetically.
func soundsAlike(a, b string) bool {
	code := Soundex(a)
	return code != "" && code == Soundex(b)
}
