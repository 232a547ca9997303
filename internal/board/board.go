package board

import "strings"

const (
	Rows    = 6
	Columns = 7
)

// Side identifies whose pieces a plane holds, relative to the agent deciding.
type Side int

const (
	Self Side = iota
	Opponent
)

// Other returns the opposing side
func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	if s == Self {
		return "self"
	}
	return "opponent"
}

// CenterOrder is the column enumeration used for move iteration and tie-breaking.
var CenterOrder = [Columns]int{3, 2, 4, 1, 5, 0, 6}

// Snapshot is the observation format handed over by a game harness:
// channel 0 holds the mover's pieces, channel 1 the opponent's.
type Snapshot [Rows][Columns][2]uint8

// Mask flags each column as playable (1) or full (0).
type Mask [Columns]uint8

// Legal reports whether the column is flagged playable
func (m Mask) Legal(col int) bool {
	return col >= 0 && col < Columns && m[col] == 1
}

// Board holds two disjoint occupancy planes, one per side.
// Row 0 is the top row and row Rows-1 the bottom one.
type Board struct {
	planes [2][Rows][Columns]bool
}

// Move is the token returned by Apply. It must be handed back to Undo.
type Move struct {
	Row  int
	Col  int
	Side Side
}

// FromSnapshot builds a board from a harness observation
func FromSnapshot(s Snapshot) Board {
	var b Board
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			b.planes[Self][row][col] = s[row][col][0] == 1
			b.planes[Opponent][row][col] = s[row][col][1] == 1
		}
	}
	return b
}

// Snapshot converts the board back to the harness observation format
func (b *Board) Snapshot() Snapshot {
	var s Snapshot
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.planes[Self][row][col] {
				s[row][col][0] = 1
			}
			if b.planes[Opponent][row][col] {
				s[row][col][1] = 1
			}
		}
	}
	return s
}

// Mask returns the legality mask for the current position
func (b *Board) Mask() Mask {
	var m Mask
	for col := 0; col < Columns; col++ {
		if b.IsEmpty(0, col) {
			m[col] = 1
		}
	}
	return m
}

// IsOccupied reports whether side has a piece at (row, col)
func (b *Board) IsOccupied(row, col int, side Side) bool {
	return b.planes[side][row][col]
}

// IsEmpty reports whether neither side has a piece at (row, col)
func (b *Board) IsEmpty(row, col int) bool {
	return !b.planes[Self][row][col] && !b.planes[Opponent][row][col]
}

// NextFreeRow returns the landing row for col, scanning up from the bottom
func (b *Board) NextFreeRow(col int) (int, bool) {
	for row := Rows - 1; row >= 0; row-- {
		if b.IsEmpty(row, col) {
			return row, true
		}
	}
	return -1, false
}

// Play returns a copy of the board with side's piece dropped into col.
// The column must not be full.
func (b Board) Play(col int, side Side) Board {
	row, _ := b.NextFreeRow(col)
	b.planes[side][row][col] = true
	return b
}

// Apply drops side's piece into col in place. The column must not be full.
func (b *Board) Apply(col int, side Side) Move {
	row, _ := b.NextFreeRow(col)
	b.planes[side][row][col] = true
	return Move{Row: row, Col: col, Side: side}
}

// Undo reverts a move made by Apply
func (b *Board) Undo(m Move) {
	b.planes[m.Side][m.Row][m.Col] = false
}

// Place sets a piece at an explicit cell. Used to build fixtures; it does not
// enforce gravity.
func (b *Board) Place(row, col int, side Side) {
	b.planes[side][row][col] = true
}

// Try applies the move, runs fn and always undoes the move before returning
func Try[T any](b *Board, col int, side Side, fn func(*Board) T) T {
	m := b.Apply(col, side)
	defer b.Undo(m)
	return fn(b)
}

// ValidColumns returns the non-full columns in center-first order
func (b *Board) ValidColumns() []int {
	cols := make([]int, 0, Columns)
	for _, col := range CenterOrder {
		if b.IsEmpty(0, col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// Settled reports whether every piece rests on the bottom row or on another
// piece, with no cell shared by both sides.
func (b *Board) Settled() bool {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.planes[Self][row][col] && b.planes[Opponent][row][col] {
				return false
			}
			if !b.IsEmpty(row, col) && row < Rows-1 && b.IsEmpty(row+1, col) {
				return false
			}
		}
	}
	return true
}

// EmptyCells counts unoccupied cells
func (b *Board) EmptyCells() int {
	n := 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.IsEmpty(row, col) {
				n++
			}
		}
	}
	return n
}

// IsFull checks if no column can accept a piece
func (b *Board) IsFull() bool {
	for col := 0; col < Columns; col++ {
		if b.IsEmpty(0, col) {
			return false
		}
	}
	return true
}

// Mirror swaps the two planes, giving the board as the other side sees it
func (b Board) Mirror() Board {
	b.planes[Self], b.planes[Opponent] = b.planes[Opponent], b.planes[Self]
	return b
}

// Key returns a comparable copy of the board contents
func (b *Board) Key() [2][Rows][Columns]bool {
	return b.planes
}

// String renders X for self, O for opponent and . for empty cells
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			switch {
			case b.planes[Self][row][col]:
				sb.WriteByte('X')
			case b.planes[Opponent][row][col]:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse builds a board from the String format, top row first. Whitespace
// between cells is ignored.
func Parse(s string) Board {
	var b Board
	row := 0
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line == "" || row >= Rows {
			continue
		}
		for col, ch := range line {
			if col >= Columns {
				break
			}
			switch ch {
			case 'X':
				b.planes[Self][row][col] = true
			case 'O':
				b.planes[Opponent][row][col] = true
			}
		}
		row++
	}
	return b
}
