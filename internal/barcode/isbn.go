package barcode

import (
	"regexp"
	"strings"
)

var (
	// hyphenated or bare ISBN-10 and ISBN-13
	candidatePattern = regexp.MustCompile(`\b\d[\d\-]{8,15}[\dXx]\b`)
	// ISBN-13 printed with spaces between groups
	spacedPattern = regexp.MustCompile(`\b97[89](?: ?\d){10}\b`)
)

// ValidISBN13 reports whether s is 13 digits with a Bookland prefix and a
// correct check digit.
func ValidISBN13(s string) bool {
	if len(s) != 13 || !(strings.HasPrefix(s, "978") || strings.HasPrefix(s, "979")) {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		d := s[i]
		if d < '0' || d > '9' {
			return false
		}
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(d-'0') * w
	}
	return sum%10 == 0
}

// ValidISBN10 reports whether s is a well-formed ISBN-10. The last
// character may be X.
func ValidISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case (c == 'X' || c == 'x') && i == 9:
			v = 10
		default:
			return false
		}
		sum += (10 - i) * v
	}
	return sum%11 == 0
}

// ToISBN13 converts a valid ISBN-10 to its 978-prefixed ISBN-13.
func ToISBN13(isbn10 string) (string, bool) {
	if !ValidISBN10(isbn10) {
		return "", false
	}
	body := "978" + isbn10[:9]
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(body[i]-'0') * w
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check)), true
}

// ToISBN10 converts a 978-prefixed ISBN-13 to ISBN-10. 979 numbers have no
// ISBN-10 form.
func ToISBN10(isbn13 string) (string, bool) {
	if !ValidISBN13(isbn13) || !strings.HasPrefix(isbn13, "978") {
		return "", false
	}
	body := isbn13[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (10 - i) * int(body[i]-'0')
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X", true
	}
	return body + string(rune('0'+check)), true
}

// Normalize strips hyphens and spaces and upper-cases a trailing x.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, s)
	return strings.ToUpper(s)
}

// FindISBN returns the first valid ISBN in text, as ISBN-13.
func FindISBN(text string) (string, bool) {
	for _, m := range candidatePattern.FindAllString(text, -1) {
		s := Normalize(m)
		if ValidISBN13(s) {
			return s, true
		}
		if isbn, ok := ToISBN13(s); ok {
			return isbn, true
		}
	}
	for _, m := range spacedPattern.FindAllString(text, -1) {
		if s := Normalize(m); ValidISBN13(s) {
			return s, true
		}
	}
	return "", false
}
