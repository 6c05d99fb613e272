package importer

import "iter"

// Aggregate groups items from seq into fixed-size batches and calls process
// once per batch. The call is synchronous, so exactly one batch is in flight
// at a time and upstream parsing blocks while a batch processes. A final
// partial batch is always flushed at end of input.
func Aggregate[T any](seq iter.Seq[T], size int, process func(batch []T)) {
	if size < 1 {
		size = 1
	}

	batch := make([]T, 0, size)
	for item := range seq {
		batch = append(batch, item)
		if len(batch) == size {
			process(batch)
			batch = make([]T, 0, size)
		}
	}
	if len(batch) > 0 {
		process(batch)
	}
}
