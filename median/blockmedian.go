package median

// blockMedian processes one block: it rebuilds the block's rank table,
// then snake-walks the block's interior cells, maintaining a bitWindow
// incrementally and writing the median at each cell.
//
// A blockMedian is owned by exactly one worker and reused across every
// block that worker is assigned; run resets it for each new block.
type blockMedian[T Float] struct {
	rank *windowRank[T]
}

func newBlockMedian[T Float](b int) *blockMedian[T] {
	return &blockMedian[T]{rank: newWindowRank[T](b * b)}
}

// run processes the block placed at (bdx, bdy), reading from in and
// writing medians into out. in and out are the full image buffers with
// row stride X; naive selects the reference (re-insert-the-whole-window
// every cell) traversal instead of the snake traversal.
func (m *blockMedian[T]) run(bdx, bdy blockDim, in, out []T, X int, naive bool) {
	lenX := bdx.len
	lenY := bdy.len

	m.rank.initBegin()
	for y := 0; y < lenY; y++ {
		rowBase := (y+bdy.start)*X + bdx.start
		slotBase := y * lenX
		for x := 0; x < lenX; x++ {
			m.rank.initFeed(in[rowBase+x], slotBase+x)
		}
	}
	m.rank.initFinish()

	if naive {
		m.runNaive(bdx, bdy, lenX, out, X)
		return
	}
	m.runSnake(bdx, bdy, lenX, out, X)
}

// updateRect inserts (op > 0) or removes (op < 0) every cell of the local
// rectangle [x0,x1) x [y0,y1). Either extent may be empty, in which case
// this is a no-op — boundary tiles routinely clip a range to nothing.
func (m *blockMedian[T]) updateRect(op, x0, x1, y0, y1, lenX int) {
	for y := y0; y < y1; y++ {
		base := y * lenX
		for x := x0; x < x1; x++ {
			m.rank.update(op, base+x)
		}
	}
}

func (m *blockMedian[T]) emit(x, y int, bdx, bdy blockDim, out []T, X int) {
	out[(y+bdy.start)*X+(x+bdx.start)] = m.rank.median()
}

// runNaive clears and fully re-inserts the window at every interior cell.
// Reference traversal, used only to cross-check the snake path.
func (m *blockMedian[T]) runNaive(bdx, bdy blockDim, lenX int, out []T, X int) {
	for y := bdy.b0; y < bdy.b1; y++ {
		wy0, wy1 := bdy.windowLo(y), bdy.windowHi(y)
		for x := bdx.b0; x < bdx.b1; x++ {
			m.rank.clear()
			wx0, wx1 := bdx.windowLo(x), bdx.windowHi(x)
			m.updateRect(1, wx0, wx1, wy0, wy1, lenX)
			m.emit(x, y, bdx, bdy, out, X)
		}
	}
}

// runSnake walks every interior cell exactly once in serpentine order,
// touching only the rows/columns that enter or leave the window between
// consecutive cells.
func (m *blockMedian[T]) runSnake(bdx, bdy blockDim, lenX int, out []T, X int) {
	m.rank.clear()

	x, y := bdx.b0, bdy.b0
	wx0, wx1 := bdx.windowLo(x), bdx.windowHi(x)
	wy0, wy1 := bdy.windowLo(y), bdy.windowHi(y)
	m.updateRect(1, wx0, wx1, wy0, wy1, lenX)
	m.emit(x, y, bdx, bdy, out, X)

	down := true
	for x < bdx.b1 {
		moved := false
		if down {
			if y+1 < bdy.b1 {
				m.stepVertical(x, y, y+1, bdx, bdy, lenX)
				y++
				moved = true
			}
		} else if y-1 >= bdy.b0 {
			m.stepVertical(x, y, y-1, bdx, bdy, lenX)
			y--
			moved = true
		}
		if moved {
			m.emit(x, y, bdx, bdy, out, X)
			continue
		}

		if x+1 >= bdx.b1 {
			break
		}
		m.stepHorizontal(x, x+1, y, bdx, bdy, lenX)
		x++
		down = !down
		m.emit(x, y, bdx, bdy, out, X)
	}
}

// stepVertical moves the window from (x,y) to (x,yNext), yNext = y±1.
func (m *blockMedian[T]) stepVertical(x, y, yNext int, bdx, bdy blockDim, lenX int) {
	wx0, wx1 := bdx.windowLo(x), bdx.windowHi(x)
	if yNext == y+1 {
		r0, r1 := bdy.windowLo(y), bdy.windowLo(yNext)
		m.updateRect(-1, wx0, wx1, r0, r1, lenX)
		i0, i1 := bdy.windowHi(y), bdy.windowHi(yNext)
		m.updateRect(1, wx0, wx1, i0, i1, lenX)
		return
	}
	r0, r1 := bdy.windowHi(yNext), bdy.windowHi(y)
	m.updateRect(-1, wx0, wx1, r0, r1, lenX)
	i0, i1 := bdy.windowLo(yNext), bdy.windowLo(y)
	m.updateRect(1, wx0, wx1, i0, i1, lenX)
}

// stepHorizontal moves the window from (x,y) to (x+1,y).
func (m *blockMedian[T]) stepHorizontal(x, xNext, y int, bdx, bdy blockDim, lenX int) {
	wy0, wy1 := bdy.windowLo(y), bdy.windowHi(y)
	r0, r1 := bdx.windowLo(x), bdx.windowLo(xNext)
	m.updateRect(-1, r0, r1, wy0, wy1, lenX)
	i0, i1 := bdx.windowHi(x), bdx.windowHi(xNext)
	m.updateRect(1, i0, i1, wy0, wy1, lenX)
}
