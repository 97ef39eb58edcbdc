package filler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindOption(t *testing.T) {
	labels := []string{"Very satisfied", "Satisfied", "Neutral"}
	tests := []struct {
		name   string
		answer string
		want   int
		kind   MatchKind
	}{
		{"exact wins over containment", "satisfied", 1, MatchExact},
		{"case and spacing", "  NEUTRAL ", 2, MatchExact},
		{"answer contains label", "I feel neutral about it", 2, MatchContains},
		{"label contains answer", "Very", 0, MatchContains},
		{"no match", "banana", -1, MatchNone},
		{"empty answer", "", -1, MatchNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, kind := findOption(labels, tt.answer)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestChooseOption(t *testing.T) {
	i, kind := chooseOption([]string{"A", "B", "C"}, "zzz")
	assert.Equal(t, 0, i)
	assert.Equal(t, MatchFirst, kind)
	assert.Equal(t, "first", kind.String())

	i, _ = chooseOption(nil, "A")
	assert.Equal(t, -1, i)
}

func TestChooseMany(t *testing.T) {
	labels := []string{"X", "Y", "Z"}
	assert.Equal(t, []int{2, 0}, chooseMany(labels, []string{"z", "x", "Z"}))
	assert.Equal(t, []int{0}, chooseMany(labels, []string{"nothing"}))
	assert.Empty(t, chooseMany(nil, []string{"x"}))
}

func TestParseScale(t *testing.T) {
	n, ok := parseScale("I'd give it a 4")
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	_, ok = parseScale("excellent")
	assert.False(t, ok)
}

func TestParseDateAndClock(t *testing.T) {
	for in, want := range map[string]string{
		"2024-12-25":        "2024-12-25",
		"25/12/2024":        "2024-12-25",
		"12/25/2024":        "2024-12-25",
		"4/7/2001":          "2001-07-04",
		"25 December 2024":  "2024-12-25",
		"December 25, 2024": "2024-12-25",
	} {
		got, ok := ParseDate(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, got.Format("2006-01-02"), in)
		}
	}
	_, ok := ParseDate("tomorrow")
	assert.False(t, ok)

	for in, want := range map[string]string{"09:15": "09:15", "14:30:00": "14:30", "2:30 PM": "14:30", "7:05am": "07:05"} {
		got, ok := ParseClock(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, got.Format("15:04"), in)
		}
	}
	_, ok = ParseClock("noon")
	assert.False(t, ok)
}
