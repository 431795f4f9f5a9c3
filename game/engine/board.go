package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// ColonyPos is the fixed colony origin.
var ColonyPos = Position{X: 0, Y: 0}

// Board is a fixed-size grid of cell states. x indexes rows in [0, Width)
// and y indexes columns in [0, Height).
//
// cells is what observations see. terrain remembers the generated food,
// hazard and colony layout underneath agents and is only consulted when
// terrain preservation is enabled.
type Board struct {
	width   int
	height  int
	cells   []CellState
	terrain []CellState
}

// NewBoard creates a board with every cell empty and the colony at the origin.
func NewBoard(width, height int) (*Board, error) {
	if width < MinBoardSize || height < MinBoardSize {
		return nil, fmt.Errorf("%w: board dimensions must be positive, got %dx%d", ErrInvalidConfig, width, height)
	}
	if width > MaxBoardSize || height > MaxBoardSize {
		return nil, fmt.Errorf("%w: board dimensions must not exceed %d, got %dx%d", ErrInvalidConfig, MaxBoardSize, width, height)
	}

	b := &Board{
		width:   width,
		height:  height,
		cells:   make([]CellState, width*height),
		terrain: make([]CellState, width*height),
	}
	for i := range b.cells {
		b.cells[i] = Empty
		b.terrain[i] = Empty
	}
	b.paint(ColonyPos, Colony)
	return b, nil
}

// GenerateBoard builds a board and scatters numFood food cells and then
// numHazards hazard cells uniformly at random by rejection sampling. Neither
// lands on the colony or on a cell that is already special.
func GenerateBoard(width, height, numFood, numHazards int, rng *rand.Rand) (*Board, error) {
	b, err := NewBoard(width, height)
	if err != nil {
		return nil, err
	}
	if numFood < 0 || numHazards < 0 {
		return nil, fmt.Errorf("%w: food and hazard counts must be non-negative, got %d and %d", ErrInvalidConfig, numFood, numHazards)
	}
	if placeable := width*height - 1; numFood+numHazards > placeable {
		return nil, fmt.Errorf("%w: %d food and %d hazards exceed the %d placeable cells", ErrInvalidConfig, numFood, numHazards, placeable)
	}

	for i := 0; i < numFood; i++ {
		b.paint(b.randomFree(rng), Food)
	}
	for i := 0; i < numHazards; i++ {
		b.paint(b.randomFree(rng), Hazard)
	}
	return b, nil
}

// randomFree draws positions until one is neither the colony nor special.
// Termination relies on the placeable-cell check in GenerateBoard.
func (b *Board) randomFree(rng *rand.Rand) Position {
	for {
		p := Position{X: rng.IntN(b.width), Y: rng.IntN(b.height)}
		if p == ColonyPos {
			continue
		}
		if s := b.at(p); s == Food || s == Hazard {
			continue
		}
		return p
	}
}

// Width returns the x dimension.
func (b *Board) Width() int { return b.width }

// Height returns the y dimension.
func (b *Board) Height() int { return b.height }

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.width && p.Y >= 0 && p.Y < b.height
}

// Get returns the state at (x, y).
func (b *Board) Get(x, y int) (CellState, error) {
	p := Position{X: x, Y: y}
	if !b.InBounds(p) {
		return Boundary, fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfRange, x, y, b.width, b.height)
	}
	return b.at(p), nil
}

// Set writes the state at (x, y). Writing anything other than Occupied also
// replaces the terrain underneath.
func (b *Board) Set(x, y int, state CellState) error {
	p := Position{X: x, Y: y}
	if !b.InBounds(p) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfRange, x, y, b.width, b.height)
	}
	if state == Occupied {
		b.put(p, state)
	} else {
		b.paint(p, state)
	}
	return nil
}

// Terrain returns the generated terrain at (x, y), ignoring occupancy.
func (b *Board) Terrain(x, y int) (CellState, error) {
	p := Position{X: x, Y: y}
	if !b.InBounds(p) {
		return Boundary, fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfRange, x, y, b.width, b.height)
	}
	return b.terrainAt(p), nil
}

func (b *Board) at(p Position) CellState {
	return b.cells[p.X*b.height+p.Y]
}

func (b *Board) put(p Position, state CellState) {
	b.cells[p.X*b.height+p.Y] = state
}

func (b *Board) terrainAt(p Position) CellState {
	return b.terrain[p.X*b.height+p.Y]
}

// paint writes both the visible cell and the terrain.
func (b *Board) paint(p Position, state CellState) {
	i := p.X*b.height + p.Y
	b.cells[i] = state
	b.terrain[i] = state
}

// Count returns the number of cells in the given state.
func (b *Board) Count(state CellState) int {
	n := 0
	for _, c := range b.cells {
		if c == state {
			n++
		}
	}
	return n
}

// Codes returns the observation codes of the board, one row per x.
func (b *Board) Codes() [][]int {
	grid := make([][]int, b.width)
	for x := 0; x < b.width; x++ {
		grid[x] = make([]int, b.height)
		for y := 0; y < b.height; y++ {
			grid[x][y] = b.at(Position{X: x, Y: y}).Code()
		}
	}
	return grid
}

// Rows renders one string per x using CellState.Char.
func (b *Board) Rows() []string {
	rows := make([]string, b.width)
	var sb strings.Builder
	for x := 0; x < b.width; x++ {
		sb.Reset()
		for y := 0; y < b.height; y++ {
			sb.WriteString(b.at(Position{X: x, Y: y}).Char())
		}
		rows[x] = sb.String()
	}
	return rows
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	cells := make([]CellState, len(b.cells))
	copy(cells, b.cells)
	terrain := make([]CellState, len(b.terrain))
	copy(terrain, b.terrain)
	return &Board{width: b.width, height: b.height, cells: cells, terrain: terrain}
}
