package util

import (
	"hash/fnv"
	"math/rand"
	"sort"
)

// SortedKeys returns the keys of the argument, in ascending order.
func SortedKeys(input map[int]int) []int {
	keys := []int{}

	for key := range input {
		keys = append(keys, key)
	}

	sort.Ints(keys)
	return keys
}

// ShuffledKeys returns a shuffled version of the keys in the
// argument map. The provided seedStr is hashed and used to seed
// the random number generator, so the same seed always produces
// the same order.
func ShuffledKeys(input map[int]int, seedStr string) []int {
	keys := SortedKeys(input)

	hash := fnv.New64()
	hash.Write([]byte(seedStr))

	random := rand.New(rand.NewSource(int64(hash.Sum64())))
	random.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	return keys
}
