package importer_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hivereads/hive-server/internal/importer"
)

func TestAggregate_BatchCounts(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		size        int
		wantBatches int
		wantLast    int
	}{
		{name: "exact multiple", n: 20, size: 10, wantBatches: 2, wantLast: 10},
		{name: "partial final batch", n: 25, size: 10, wantBatches: 3, wantLast: 5},
		{name: "single short batch", n: 3, size: 10, wantBatches: 1, wantLast: 3},
		{name: "batch size one", n: 4, size: 1, wantBatches: 4, wantLast: 1},
		{name: "empty input", n: 0, size: 10, wantBatches: 0},
		{name: "one item", n: 1, size: 10, wantBatches: 1, wantLast: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.n)
			for i := range items {
				items[i] = i
			}

			var batches [][]int
			importer.Aggregate(slices.Values(items), tt.size, func(batch []int) {
				// Copy: the aggregator may reuse its buffer.
				batches = append(batches, slices.Clone(batch))
			})

			assert.Len(t, batches, tt.wantBatches)
			for i, batch := range batches {
				if i < len(batches)-1 {
					assert.Len(t, batch, tt.size, "all but the last batch are full")
				} else {
					assert.Len(t, batch, tt.wantLast)
				}
			}

			// No item lost or duplicated, order preserved.
			var flat []int
			for _, b := range batches {
				flat = append(flat, b...)
			}
			assert.Equal(t, items, append([]int{}, flat...))
		})
	}
}

func TestAggregate_OneBatchInFlight(t *testing.T) {
	// process runs synchronously, so a slow consumer must see batches
	// strictly one after another.
	inFlight := 0
	maxInFlight := 0

	items := make([]int, 50)
	importer.Aggregate(slices.Values(items), 7, func(batch []int) {
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		inFlight--
	})

	assert.Equal(t, 1, maxInFlight)
}
