// Package normalize canonicalizes book titles, authors, ISBNs and descriptions.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Matches common HTML tags, to decide whether a description needs conversion.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// TitleKey returns the comparison key for a title or author name.
// Two strings match when their keys are equal: Unicode case folding after NFC,
// with surrounding whitespace ignored. No fuzzy matching.
func TitleKey(s string) string {
	// cases.Caser is stateful; a fresh one per call keeps this safe for concurrent use.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// BookKey is the collection merge key for (title, author).
func BookKey(title, author string) string {
	return TitleKey(title) + "\x00" + TitleKey(author)
}

// ISBN strips separators and upper-cases a trailing check character.
// "978-0-441-17271-9" -> "9780441172719", "0 441 17271 x" -> "044117271X".
func ISBN(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// ValidISBN reports whether raw is a well-formed ISBN-10 or ISBN-13 with a correct
// check digit. Separators are ignored.
func ValidISBN(raw string) bool {
	s := ISBN(raw)
	switch len(s) {
	case 10:
		return validISBN10(s)
	case 13:
		return validISBN13(s)
	default:
		return false
	}
}

func validISBN10(s string) bool {
	sum := 0
	for i := range 10 {
		c := s[i]
		var v int
		switch {
		case c == 'X' && i == 9:
			v = 10
		case c >= '0' && c <= '9':
			v = int(c - '0')
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i := range 13 {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		v := int(c - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}

// Description converts HTML descriptions to Markdown. Plain text is returned
// trimmed; if conversion fails the original text is kept.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
