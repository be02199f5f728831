package pipeline

import (
	"strings"
	"unicode"
)

// naturalLess reports whether a sorts before b under locale-agnostic
// alphanumeric comparison: embedded digit runs compare as numbers, letters
// compare case-folded. "img2" sorts before "img10".
func naturalLess(a, b string) bool {
	return naturalCompare(a, b) < 0
}

// naturalCompare returns -1, 0, or 1 ordering a against b.
func naturalCompare(a, b string) int {
	for len(a) > 0 && len(b) > 0 {
		aTok, aRest, aNum := nextToken(a)
		bTok, bRest, bNum := nextToken(b)

		var c int

		switch {
		case aNum && bNum:
			c = compareNumeric(aTok, bTok)
		default:
			c = strings.Compare(strings.ToLower(aTok), strings.ToLower(bTok))
		}

		if c != 0 {
			return c
		}

		a, b = aRest, bRest
	}

	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return -1
	default:
		return 1
	}
}

// nextToken splits off the leading run of digits or non-digits.
func nextToken(s string) (tok, rest string, numeric bool) {
	runes := []rune(s)
	numeric = unicode.IsDigit(runes[0])

	i := 1
	for i < len(runes) && unicode.IsDigit(runes[i]) == numeric {
		i++
	}

	return string(runes[:i]), string(runes[i:]), numeric
}

// compareNumeric compares two digit runs by value. Leading zeros are
// stripped before comparing lengths so "007" equals "7".
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}
