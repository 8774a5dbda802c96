package util

// CopyInts copies a slice of ints.
func CopyInts(input []int) []int {
	results := make([]int, len(input))
	copy(results, input)
	return results
}

// SameElements returns whether two int slices hold the same multiset of values, in any
// order. Used to compare replica lists against in-sync replica lists.
func SameElements(slice1 []int, slice2 []int) bool {
	if len(slice1) != len(slice2) {
		return false
	}

	counts := map[int]int{}
	for _, value := range slice1 {
		counts[value]++
	}
	for _, value := range slice2 {
		if counts[value] == 0 {
			return false
		}
		counts[value]--
	}
	return true
}

// IntsEqual returns whether two int slices have the same values in the same order.
func IntsEqual(slice1 []int, slice2 []int) bool {
	if len(slice1) != len(slice2) {
		return false
	}
	for i := range slice1 {
		if slice1[i] != slice2[i] {
			return false
		}
	}
	return true
}
