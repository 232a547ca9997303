package game

import (
	"errors"
	"sync"

	"github.com/connect-four/agent/internal/board"
	"github.com/connect-four/agent/internal/tactics"
)

const (
	Rows    = board.Rows
	Columns = board.Columns
)

const (
	Empty   = 0
	Player1 = 1
	Player2 = 2
)

var (
	ErrInvalidColumn = errors.New("invalid column")
	ErrInvalidPlayer = errors.New("invalid player")
	ErrColumnFull    = errors.New("column is full")
)

// Board is the shared, absolute board of a session. Agents never see it
// directly; they get a mover-relative Observation.
type Board struct {
	cells [Rows][Columns]int
	mu    sync.RWMutex
}

func NewBoard() *Board {
	return &Board{}
}

// Opponent returns the other player number
func Opponent(player int) int {
	if player == Player1 {
		return Player2
	}
	return Player1
}

func (b *Board) GetCell(row, col int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cells[row][col]
}

// DropDisc drops a disc for player and returns the row where it landed
func (b *Board) DropDisc(column, player int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if column < 0 || column >= Columns {
		return -1, ErrInvalidColumn
	}
	if player != Player1 && player != Player2 {
		return -1, ErrInvalidPlayer
	}
	for row := Rows - 1; row >= 0; row-- {
		if b.cells[row][column] == Empty {
			b.cells[row][column] = player
			return row, nil
		}
	}
	return -1, ErrColumnFull
}

// relative maps the absolute cells onto an engine board from player's seat
func (b *Board) relative(player int) board.Board {
	var rel board.Board
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			switch b.cells[row][col] {
			case Empty:
			case player:
				rel.Place(row, col, board.Self)
			default:
				rel.Place(row, col, board.Opponent)
			}
		}
	}
	return rel
}

// Snapshot returns the board as seen by player: channel 0 holds player's discs
func (b *Board) Snapshot(player int) board.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rel := b.relative(player)
	return rel.Snapshot()
}

func (b *Board) Mask() board.Mask {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var m board.Mask
	for col := 0; col < Columns; col++ {
		if b.cells[0][col] == Empty {
			m[col] = 1
		}
	}
	return m
}

func (b *Board) CheckWin(player int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rel := b.relative(player)
	return tactics.CheckWin(&rel, board.Self)
}

// IsFull checks the top row only; gravity keeps the rest filled
func (b *Board) IsFull() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for col := 0; col < Columns; col++ {
		if b.cells[0][col] == Empty {
			return false
		}
	}
	return true
}

func (b *Board) IsColumnValid(column int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return column >= 0 && column < Columns && b.cells[0][column] == Empty
}

// ToSlice converts the board to a 2D slice for JSON serialization
func (b *Board) ToSlice() [][]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([][]int, Rows)
	for row := range result {
		result[row] = append([]int(nil), b.cells[row][:]...)
	}
	return result
}
