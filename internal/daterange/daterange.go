// Package daterange resolves dashboard date-range tokens to calendar month indices.
package daterange

import (
	"fmt"
	"strings"
)

// Token selects a slice of the fixture year. The zero value behaves like YTD.
type Token string

const (
	Q1  Token = "q1"
	Q2  Token = "q2"
	Q3  Token = "q3"
	Q4  Token = "q4"
	YTD Token = "ytd"
)

var (
	q1Months  = []int{0, 1, 2}
	q2Months  = []int{3, 4, 5}
	q3Months  = []int{6, 7, 8}
	q4Months  = []int{9, 10, 11}
	ytdMonths = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
)

// MonthsFor returns the ascending 0-based month indices covered by t.
// Unrecognized tokens resolve to the full year. The returned slice is owned by the caller.
func MonthsFor(t Token) []int {
	var months []int
	switch t {
	case Q1:
		months = q1Months
	case Q2:
		months = q2Months
	case Q3:
		months = q3Months
	case Q4:
		months = q4Months
	default:
		months = ytdMonths
	}
	out := make([]int, len(months))
	copy(out, months)
	return out
}

// Parse normalizes user input into a Token. It never fails.
func Parse(s string) Token {
	t, ok := ParseStrict(s)
	if !ok {
		return YTD
	}
	return t
}

// ParseStrict reports whether s names a known token.
func ParseStrict(s string) (Token, bool) {
	switch t := Token(strings.ToLower(strings.TrimSpace(s))); t {
	case Q1, Q2, Q3, Q4, YTD:
		return t, true
	default:
		return YTD, false
	}
}

// Normalize maps unrecognized tokens to YTD so they can be used as cache keys and labels.
func (t Token) Normalize() Token {
	switch t {
	case Q1, Q2, Q3, Q4:
		return t
	default:
		return YTD
	}
}

// Label renders the token the way the dashboard headers show it, e.g. "Q3 2024".
func Label(t Token, year int) string {
	switch t {
	case Q1, Q2, Q3, Q4:
		return fmt.Sprintf("%s %d", strings.ToUpper(string(t)), year)
	default:
		return "Year to Date"
	}
}

func Quarters() []Token {
	return []Token{Q1, Q2, Q3, Q4}
}

func (t Token) String() string {
	return string(t.Normalize())
}
