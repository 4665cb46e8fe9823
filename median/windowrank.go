package median

import "sort"

// nanMarker flags a rank slot whose input value was NaN. Safe to reuse as
// a sentinel because initFinish writes every non-NaN slot and initFeed
// writes every NaN slot directly; no slot is ever read unwritten.
const nanMarker = -1

type sortedEntry[T Float] struct {
	value T
	slot  int
}

// windowRank wraps a bitWindow with a value layer: it maps block cells to
// ranks in the block's value-sorted order, and answers median queries in
// terms of those ranks so the BitWindow never has to know about T.
type windowRank[T Float] struct {
	win    *bitWindow
	rank   []int
	sorted []sortedEntry[T]
	size   int // number of non-NaN entries currently in sorted
}

func newWindowRank[T Float](bb int) *windowRank[T] {
	return &windowRank[T]{
		win:    newBitWindow(bb),
		rank:   make([]int, bb),
		sorted: make([]sortedEntry[T], bb),
	}
}

// initBegin starts a fresh rank build for a new block.
func (r *windowRank[T]) initBegin() {
	r.size = 0
}

// initFeed records the value at packed cell index slot. Call once per
// cell of the block, in any order, between initBegin and initFinish.
func (r *windowRank[T]) initFeed(value T, slot int) {
	if isNaN(value) {
		r.rank[slot] = nanMarker
		return
	}
	r.sorted[r.size] = sortedEntry[T]{value: value, slot: slot}
	r.size++
}

// initFinish sorts the fed values ascending and assigns each a rank.
// Ties break on packed slot index, which is arbitrary but deterministic
// and keeps sort order reproducible across runs.
func (r *windowRank[T]) initFinish() {
	s := r.sorted[:r.size]
	sort.Slice(s, func(i, j int) bool {
		if s[i].value != s[j].value {
			return s[i].value < s[j].value
		}
		return s[i].slot < s[j].slot
	})
	for i, e := range s {
		r.rank[e.slot] = i
	}
}

// clear empties the window (not the rank table) ahead of a new traversal.
func (r *windowRank[T]) clear() {
	r.win.clear()
}

// update applies op (+1 insert, -1 remove) for the cell at slot. NaN cells
// are excluded from the window by construction.
func (r *windowRank[T]) update(op int, slot int) {
	rk := r.rank[slot]
	if rk == nanMarker {
		return
	}
	if op > 0 {
		r.win.insert(rk)
	} else {
		r.win.remove(rk)
	}
}

// median returns the median of the values currently in the window, or NaN
// if the window is empty (e.g. entirely NaN input).
func (r *windowRank[T]) median() T {
	n := r.win.len()
	if n == 0 {
		return nanOf[T]()
	}
	g1 := (n - 1) / 2
	g2 := n / 2
	v1 := r.sorted[r.win.find(g1)].value
	if g1 == g2 {
		return v1
	}
	v2 := r.sorted[r.win.find(g2)].value
	return (v1 + v2) / 2
}
