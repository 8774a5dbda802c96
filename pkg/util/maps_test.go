package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	assert.Equal(
		t,
		[]int{1, 3, 5, 8},
		SortedKeys(map[int]int{5: 1, 1: 9, 8: 0, 3: 3}),
	)
}

func TestShuffledKeys(t *testing.T) {
	input := map[int]int{}
	for i := 1; i <= 20; i++ {
		input[i] = 0
	}

	shuffled := ShuffledKeys(input, "seed1")
	assert.Equal(t, shuffled, ShuffledKeys(input, "seed1"))
	assert.NotEqual(t, SortedKeys(input), shuffled)
	assert.ElementsMatch(t, SortedKeys(input), shuffled)
	assert.NotEqual(t, shuffled, ShuffledKeys(input, "seed2"))
}

func TestSameElements(t *testing.T) {
	assert.True(t, SameElements([]int{1, 2, 3}, []int{3, 1, 2}))
	assert.False(t, SameElements([]int{1, 2, 3}, []int{3, 1}))
	assert.False(t, SameElements([]int{1, 1, 3}, []int{3, 1, 3}))
	assert.True(t, IntsEqual([]int{1, 2}, []int{1, 2}))
	assert.False(t, IntsEqual([]int{1, 2}, []int{2, 1}))
}
