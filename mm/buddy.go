// SPDX-License-Identifier: Unlicense OR MIT

package mm

import (
	"math/bits"
	"unsafe"

	"yoos.dev/yoos/config"
)

const wordSize = unsafe.Sizeof(uintptr(0))

// Layout describes a memory request. Align must be a power of two.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// Stats are heap usage counters in bytes.
type Stats struct {
	// User is the sum of the requested sizes.
	User uintptr
	// Allocated is the sum of the block sizes handed out.
	Allocated uintptr
	// Total is the size of the memory added to the heap.
	Total uintptr
}

// Heap is a buddy allocator. Free blocks of size 1<<order are kept in
// the free list of that order, linked through their first word.
//
// The zero Heap is empty.
type Heap struct {
	free  [config.HeapOrder]uintptr
	stats Stats
}

// AddRegion adds the memory [start, end) to the heap. The memory must
// not be used by anything else.
func (h *Heap) AddRegion(start, end uintptr) {
	start = (start + wordSize - 1) &^ (wordSize - 1)
	end &^= wordSize - 1
	for start < end && end-start >= wordSize {
		size := prevPowerOfTwo(end - start)
		if low := start & -start; low != 0 && low < size {
			size = low
		}
		if limit := uintptr(1) << (config.HeapOrder - 1); size > limit {
			size = limit
		}
		h.push(bits.TrailingZeros64(uint64(size)), start)
		h.stats.Total += size
		start += size
	}
}

// Alloc returns a block for l, or false if the heap has no block
// large enough.
func (h *Heap) Alloc(l Layout) (uintptr, bool) {
	size, class, ok := blockClass(l)
	if !ok {
		return 0, false
	}
	for i := class; i < len(h.free); i++ {
		if h.free[i] == 0 {
			continue
		}
		// Split the block down to the requested class.
		for j := i; j > class; j-- {
			block := h.pop(j)
			h.push(j-1, block+uintptr(1)<<(j-1))
			h.push(j-1, block)
		}
		p := h.pop(class)
		h.stats.User += l.Size
		h.stats.Allocated += size
		return p, true
	}
	return 0, false
}

// Dealloc returns the block at p, allocated with l, to the heap and
// merges it with its free buddies.
func (h *Heap) Dealloc(p uintptr, l Layout) {
	size, class, ok := blockClass(l)
	if !ok || p == 0 {
		return
	}
	h.stats.User -= l.Size
	h.stats.Allocated -= size
	for class < len(h.free)-1 {
		buddy := p ^ uintptr(1)<<class
		if !h.remove(class, buddy) {
			break
		}
		if buddy < p {
			p = buddy
		}
		class++
	}
	h.push(class, p)
}

func (h *Heap) Stats() Stats {
	return h.stats
}

// blockClass returns the block size and order that serve l.
func blockClass(l Layout) (uintptr, int, bool) {
	if l.Align == 0 || l.Align&(l.Align-1) != 0 {
		return 0, 0, false
	}
	size := nextPowerOfTwo(l.Size)
	if size < l.Align {
		size = l.Align
	}
	if size < wordSize {
		size = wordSize
	}
	class := bits.TrailingZeros64(uint64(size))
	if class >= config.HeapOrder || size < l.Size {
		return 0, 0, false
	}
	return size, class, true
}

func (h *Heap) push(order int, p uintptr) {
	*(*uintptr)(unsafe.Pointer(p)) = h.free[order]
	h.free[order] = p
}

func (h *Heap) pop(order int) uintptr {
	p := h.free[order]
	if p != 0 {
		h.free[order] = *(*uintptr)(unsafe.Pointer(p))
	}
	return p
}

// remove unlinks the block p from the free list of order and reports
// whether it was there.
func (h *Heap) remove(order int, p uintptr) bool {
	link := &h.free[order]
	for *link != 0 {
		if *link == p {
			*link = *(*uintptr)(unsafe.Pointer(p))
			return true
		}
		link = (*uintptr)(unsafe.Pointer(*link))
	}
	return false
}

func prevPowerOfTwo(n uintptr) uintptr {
	return uintptr(1) << (bits.Len64(uint64(n)) - 1)
}

func nextPowerOfTwo(n uintptr) uintptr {
	if n <= 1 {
		return 1
	}
	return uintptr(1) << bits.Len64(uint64(n-1))
}
