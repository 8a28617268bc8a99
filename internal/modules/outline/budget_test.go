package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlideBudget(t *testing.T) {
	tests := []struct {
		n          int
		includeTOC bool
		want       int
	}{
		{n: 5, includeTOC: false, want: 5},
		{n: 12, includeTOC: false, want: 12},
		{n: 2, includeTOC: true, want: 1},
		{n: 10, includeTOC: true, want: 9},
		{n: 12, includeTOC: true, want: 11},
		{n: 20, includeTOC: true, want: 18},
		// a single slide deck leaves no room once the TOC is reserved
		{n: 1, includeTOC: true, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SlideBudget(tt.n, tt.includeTOC), "n=%d toc=%v", tt.n, tt.includeTOC)
	}
}

func TestSlideBudget_Bounds(t *testing.T) {
	for n := 2; n <= 200; n++ {
		got := SlideBudget(n, true)
		assert.Greater(t, got, 0, "n=%d", n)
		assert.LessOrEqual(t, got, n, "n=%d", n)
		assert.Equal(t, n, SlideBudget(n, false))
	}
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, ceilDiv(0, 10))
	assert.Equal(t, 1, ceilDiv(1, 10))
	assert.Equal(t, 1, ceilDiv(10, 10))
	assert.Equal(t, 2, ceilDiv(11, 10))
	assert.Equal(t, 0, ceilDiv(-1, 10))
}
