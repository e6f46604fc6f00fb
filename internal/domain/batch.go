package domain

// Partition splits provinces into contiguous batches of at most size
// elements, preserving order. The last batch may be shorter. A size below 1
// is treated as 1. The returned batches share the backing array of the input.
func Partition(provinces []Province, size int) [][]Province {
	if size < 1 {
		size = 1
	}
	if len(provinces) == 0 {
		return nil
	}

	batches := make([][]Province, 0, (len(provinces)+size-1)/size)
	for start := 0; start < len(provinces); start += size {
		end := min(start+size, len(provinces))
		batches = append(batches, provinces[start:end:end])
	}
	return batches
}
