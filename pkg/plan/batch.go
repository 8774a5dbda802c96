package plan

import "github.com/segmentio/kassigner/pkg/cluster"

// SplitIntoBatches splits moves into contiguous chunks of at most size moves, in order,
// and wraps each chunk with newBatch. A size of zero or less puts everything into one
// batch. No moves means no batches.
//
// newBatch must not be nil.
func SplitIntoBatches[T any](
	moves []*cluster.Partition,
	size int,
	newBatch func([]*cluster.Partition) T,
) []T {
	if newBatch == nil {
		panic("SplitIntoBatches called without a batch constructor")
	}
	if len(moves) == 0 {
		return nil
	}
	if size <= 0 || size > len(moves) {
		size = len(moves)
	}

	numBatches := (len(moves) + size - 1) / size
	batches := make([]T, 0, numBatches)

	for start := 0; start < len(moves); start += size {
		end := start + size
		if end > len(moves) {
			end = len(moves)
		}
		batches = append(batches, newBatch(moves[start:end]))
	}

	return batches
}
