package pipeline

// SizePolicy decides the chunk size for a batch of the given total size.
// It must return a positive number for any total >= 1.
type SizePolicy func(total int) int

// DefaultSizePolicy keeps concurrent bursts small: chunks of 4 when the
// batch size is even, 3 when odd. It deliberately ignores provider limits;
// swap in a different policy to model a specific backend.
func DefaultSizePolicy(total int) int {
	if total%2 == 0 {
		return 4
	}
	return 3
}

// partition splits records into contiguous chunks of at most size elements.
// Chunks cover the whole input with no gaps or overlaps.
func partition(recs []DiffRecord, size int) [][]DiffRecord {
	if size <= 0 {
		size = 1
	}
	var chunks [][]DiffRecord
	for start := 0; start < len(recs); start += size {
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		chunks = append(chunks, recs[start:end])
	}
	return chunks
}
