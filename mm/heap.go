// SPDX-License-Identifier: Unlicense OR MIT

// Package mm is the kernel heap. Kernel data structures that outlive a
// single task are allocated from a static arena, shared with interrupt
// handlers.
package mm

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"yoos.dev/yoos/config"
	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/mutex"
)

var (
	arena       [config.KernelHeapSize]byte
	kheap       = mutex.Named[Heap, mutex.NoInterruptSpin]("mm.heap", Heap{})
	initialized atomic.Bool
)

// InitHeap adds the kernel heap arena to the allocator. It must be
// called once during boot, before the first allocation.
func InitHeap() {
	if !initialized.CompareAndSwap(false, true) {
		kernel.Fatal("mm: InitHeap called twice")
	}
	start := uintptr(unsafe.Pointer(&arena[0]))
	end := start + uintptr(len(arena))
	kheap.With(func(h *Heap) {
		h.AddRegion(start, end)
	})
	kernel.Logger().Info("kernel heap ready", "start", fmt.Sprintf("%#x", start), "end", fmt.Sprintf("%#x", end))
}

// Alloc allocates a block for l from the kernel heap. It returns 0 if
// the heap is exhausted.
func Alloc(l Layout) uintptr {
	mustInit()
	g := kheap.Lock()
	p, ok := g.Get().Alloc(l)
	g.Unlock()
	if !ok {
		kernel.Logger().Error("kernel heap allocation failed", "size", l.Size, "align", l.Align)
		return 0
	}
	return p
}

// Dealloc frees a block returned by Alloc with the same layout.
func Dealloc(p uintptr, l Layout) {
	mustInit()
	kheap.With(func(h *Heap) {
		h.Dealloc(p, l)
	})
}

func mustInit() {
	if !initialized.Load() {
		kernel.Fatal("mm: kernel heap used before InitHeap")
	}
}

// Bytes returns the n bytes at p as a slice.
func Bytes(p uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// KernelStats returns the usage of the kernel heap.
func KernelStats() Stats {
	var s Stats
	kheap.With(func(h *Heap) {
		s = h.Stats()
	})
	return s
}

// VerifyKernelHeap checks the free lists of the kernel heap.
func VerifyKernelHeap() error {
	var err error
	kheap.With(func(h *Heap) {
		err = h.Verify()
	})
	return err
}

// HandleAllocError reports an allocation of l that could not be
// satisfied and halts.
func HandleAllocError(l Layout) {
	location := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		location = fmt.Sprintf("%s:%d", file, line)
	}
	kernel.Logger().Error("kernel heap allocation failed", "size", l.Size, "align", l.Align, "location", location)
	kernel.Fatal("mm: kernel heap allocation failed")
}
