// SPDX-License-Identifier: Unlicense OR MIT

package mutex

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/aclements/go-moremath/graph"
	"github.com/aclements/go-moremath/graph/graphalg"
)

// orderGraph is a graph of lock classes. An edge from A to B records
// that B was acquired while A was held. A cycle means two paths take
// the same locks in opposite orders: a potential deadlock.
type orderGraph struct {
	ids    map[string]int
	labels []string // Node ID -> class name
	out    [][]int  // Node ID -> edge number -> target node ID
	counts [][]int  // Node ID -> edge number -> times observed
	held   []int    // Classes currently held, in acquisition order
}

var _ graph.Graph = (*orderGraph)(nil)

var (
	orderTracking atomic.Bool
	// order is unnamed so that tracking does not recurse into itself.
	order SpinMutex[orderGraph, NormalSpin]
)

// TrackOrder turns lock order tracking of named mutexes on or off.
func TrackOrder(on bool) {
	orderTracking.Store(on)
}

// ResetOrder forgets every recorded lock class and edge.
func ResetOrder() {
	g := order.UnsafeLock()
	defer g.Unlock()
	*g.Get() = orderGraph{}
}

func (g *orderGraph) NumNodes() int {
	return len(g.labels)
}

func (g *orderGraph) Out(i int) []int {
	return g.out[i]
}

func (g *orderGraph) node(class string) int {
	if id, ok := g.ids[class]; ok {
		return id
	}
	if g.ids == nil {
		g.ids = make(map[string]int)
	}
	id := len(g.labels)
	g.ids[class] = id
	g.labels = append(g.labels, class)
	g.out = append(g.out, nil)
	g.counts = append(g.counts, nil)
	return id
}

func (g *orderGraph) addEdge(from, to int) {
	for i, n := range g.out[from] {
		if n == to {
			g.counts[from][i]++
			return
		}
	}
	g.out[from] = append(g.out[from], to)
	g.counts[from] = append(g.counts[from], 1)
}

// acquireOrder records the acquisition of a mutex of the class and
// returns its node ID, or -1 if it is not tracked.
func acquireOrder(class string) int {
	if class == "" || !orderTracking.Load() {
		return -1
	}
	g := order.UnsafeLock()
	defer g.Unlock()
	og := g.Get()
	id := og.node(class)
	for _, h := range og.held {
		if h != id {
			og.addEdge(h, id)
		}
	}
	og.held = append(og.held, id)
	return id
}

func releaseOrder(id int) {
	if id < 0 {
		return
	}
	g := order.UnsafeLock()
	defer g.Unlock()
	og := g.Get()
	for i := len(og.held) - 1; i >= 0; i-- {
		if og.held[i] == id {
			og.held = append(og.held[:i], og.held[i+1:]...)
			return
		}
	}
}

// OrderCycles returns the lock classes involved in each lock order
// cycle, with the classes of a cycle in sorted order.
func OrderCycles() [][]string {
	g := order.UnsafeLock()
	defer g.Unlock()
	og := g.Get()
	var cycles [][]string
	for _, nodes := range og.cycles() {
		var classes []string
		for _, n := range nodes {
			classes = append(classes, og.labels[n])
		}
		sort.Strings(classes)
		cycles = append(cycles, classes)
	}
	return cycles
}

// cycles returns the node sets of the non-trivial strongly connected
// components.
func (g *orderGraph) cycles() [][]int {
	if g.NumNodes() == 0 {
		return nil
	}
	scc := graphalg.SCC(g, graphalg.SCCSubnodeComponent)
	var comps [][]int
	for cid := 0; cid < scc.NumNodes(); cid++ {
		nids := scc.Subnodes(cid)
		if len(nids) <= 1 {
			continue
		}
		comps = append(comps, append([]int(nil), nids...))
	}
	return comps
}

// ReportOrder writes the edges of every lock order cycle to w.
func ReportOrder(w io.Writer) {
	g := order.UnsafeLock()
	defer g.Unlock()
	og := g.Get()
	cycles := og.cycles()
	if len(cycles) == 0 {
		fmt.Fprintf(w, "no lock order cycles\n")
		return
	}
	scc := graphalg.SCC(og, graphalg.SCCSubnodeComponent)
	for _, nodes := range cycles {
		fmt.Fprintf(w, "lock order cycle:\n")
		for _, n := range nodes {
			for i, to := range og.out[n] {
				if scc.SubnodeComponent(to) != scc.SubnodeComponent(n) {
					continue
				}
				fmt.Fprintf(w, "  %s -> %s (%d times)\n", og.labels[n], og.labels[to], og.counts[n][i])
			}
		}
	}
}
