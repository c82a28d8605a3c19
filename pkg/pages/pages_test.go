package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		total int
		want  []int
	}{
		{"single page", "3", 10, []int{3}},
		{"ascending range", "2-5", 10, []int{2, 3, 4, 5}},
		{"descending range", "5-2", 10, []int{5, 4, 3, 2}},
		{"multiple tokens", "1-3,7,9-10", 10, []int{1, 2, 3, 7, 9, 10}},
		{"whitespace inside tokens", " 1 - 3 , 5 ", 10, []int{1, 2, 3, 5}},
		{"open start becomes single page", "4-", 10, []int{4}},
		{"repeated pages kept", "2,2,2", 10, []int{2, 2, 2}},
		{"empty spec means everything", "", 4, []int{1, 2, 3, 4}},
		{"blank spec means everything", "   ", 3, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.spec, tt.total))
		})
	}
}

func TestParseFallsBackOnBadToken(t *testing.T) {
	full := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		spec string
	}{
		{"not a number", "abc"},
		{"page zero", "0"},
		{"negative range bound", "-3-2"},
		{"beyond total", "6"},
		{"range beyond total", "2-9"},
		{"empty token", "1,,3"},
		{"good tokens do not survive a bad one", "1-2,zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, full, Parse(tt.spec, 5))
		})
	}
}

func TestParseBounds(t *testing.T) {
	assert.Nil(t, Parse("1-2", 0))
	assert.Nil(t, Parse("", -1))

	// The total is clamped before anything else.
	got := Parse("", MaxPages+500)
	require.Len(t, got, MaxPages)
	assert.Equal(t, MaxPages, got[MaxPages-1])

	// An explicit list longer than the cap is truncated.
	got = Parse("1-2000,1-2000", MaxPages+500)
	assert.Len(t, got, MaxPages)
}
