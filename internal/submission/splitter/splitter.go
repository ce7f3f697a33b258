// Package splitter partitions a contact list into fixed-size batches.
package splitter

import (
	"iter"
	"slices"

	"github.com/enrichkit/contact-pipeline/internal/contact"
)

// Split returns a lazy sequence of (batch id, chunk) pairs. Batch ids are
// 1-based and sequential; every chunk has length size except possibly the
// last. Chunks are subslices of records, so the sequence can be re-iterated
// from scratch as long as the input is not mutated. Split panics if size is
// less than 1.
func Split(records []contact.Record, size int) iter.Seq2[int, []contact.Record] {
	return func(yield func(int, []contact.Record) bool) {
		id := 0
		for chunk := range slices.Chunk(records, size) {
			id++
			if !yield(id, chunk) {
				return
			}
		}
	}
}

// Count returns the number of batches Split will produce for n records.
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
