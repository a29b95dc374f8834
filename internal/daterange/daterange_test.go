package daterange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthsFor(t *testing.T) {
	tests := []struct {
		token Token
		want  []int
	}{
		{Q1, []int{0, 1, 2}},
		{Q2, []int{3, 4, 5}},
		{Q3, []int{6, 7, 8}},
		{Q4, []int{9, 10, 11}},
		{YTD, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{Token("bogus"), []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{Token(""), []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{Token("Q3"), []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
	}

	for _, tt := range tests {
		t.Run(string(tt.token), func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsFor(tt.token))
		})
	}
}

func TestMonthsFor_ReturnsCopy(t *testing.T) {
	months := MonthsFor(Q3)
	months[0] = 99

	assert.Equal(t, []int{6, 7, 8}, MonthsFor(Q3))
}

func TestQuartersPartitionYear(t *testing.T) {
	var all []int
	for _, q := range Quarters() {
		all = append(all, MonthsFor(q)...)
	}
	assert.Equal(t, MonthsFor(YTD), all)
}

func TestParse(t *testing.T) {
	assert.Equal(t, Q3, Parse(" Q3 "))
	assert.Equal(t, Q1, Parse("q1"))
	assert.Equal(t, YTD, Parse("ytd"))
	assert.Equal(t, YTD, Parse("last-week"))
	assert.Equal(t, YTD, Parse(""))

	_, ok := ParseStrict("q5")
	assert.False(t, ok)
	tok, ok := ParseStrict("Q4")
	assert.True(t, ok)
	assert.Equal(t, Q4, tok)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Q1 2024", Label(Q1, 2024))
	assert.Equal(t, "Q4 2024", Label(Q4, 2024))
	assert.Equal(t, "Year to Date", Label(YTD, 2024))
	assert.Equal(t, "Year to Date", Label(Token("nope"), 2024))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "q2", Q2.String())
	assert.Equal(t, "ytd", Token("weird").String())
	assert.Equal(t, YTD, Token("").Normalize())
}
