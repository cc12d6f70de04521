// SPDX-License-Identifier: Unlicense OR MIT

package mm

import (
	"fmt"
	"sort"
	"unsafe"
)

type freeRange struct {
	start, end uintptr
	order      int
}

// Verify checks the free lists: every block must be aligned to its
// size and no two blocks may overlap.
func (h *Heap) Verify() error {
	var ranges []freeRange
	for order := range h.free {
		size := uintptr(1) << order
		for p := h.free[order]; p != 0; p = *(*uintptr)(unsafe.Pointer(p)) {
			if p&(size-1) != 0 {
				return fmt.Errorf("mm: free block %#x of order %d is misaligned", p, order)
			}
			ranges = append(ranges, freeRange{p, p + size, order})
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].start < ranges[j].start
	})
	for i := 0; i < len(ranges)-1; i++ {
		r1, r2 := ranges[i], ranges[i+1]
		if r1.end > r2.start {
			return fmt.Errorf("mm: overlapping free blocks %#x (order %d) and %#x (order %d)", r1.start, r1.order, r2.start, r2.order)
		}
	}
	return nil
}
