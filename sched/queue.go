// SPDX-License-Identifier: Unlicense OR MIT

package sched

// runQueue is a double ended queue of runnables in a ring buffer.
type runQueue struct {
	buf  []*Runnable
	head int
	n    int
}

func (q *runQueue) len() int {
	return q.n
}

func (q *runQueue) grow() {
	if q.n < len(q.buf) {
		return
	}
	size := 2 * len(q.buf)
	if size == 0 {
		size = 8
	}
	buf := make([]*Runnable, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}

func (q *runQueue) pushFront(r *Runnable) {
	q.grow()
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = r
	q.n++
}

func (q *runQueue) pushBack(r *Runnable) {
	q.grow()
	q.buf[(q.head+q.n)%len(q.buf)] = r
	q.n++
}

func (q *runQueue) popFront() *Runnable {
	if q.n == 0 {
		return nil
	}
	r := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return r
}
