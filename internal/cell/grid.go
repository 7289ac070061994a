// Package cell partitions the periodic box into a cubic grid of cells so
// that pair searches only visit particles in adjacent cells.
package cell

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/psim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// emptyCell marks a cell with no members in the start table.
const emptyCell = 0xffffffff

type entry struct {
	hash  int
	index int
}

// Grid is a linked-cell structure over a box of edge Box split into
// Scale cells per axis.
type Grid struct {
	Box   float64
	Scale int
	Size  float64

	entries   []entry
	start     []int
	end       []int
	cellOf    []int
	neighbors [][]int
}

func New(box float64, scale int) (*Grid, error) {
	if box <= 0 || scale < 1 {
		return nil, fmt.Errorf("cell: box %.3f with scale %d: %w", box, scale, sim.ErrInput)
	}

	n := scale * scale * scale
	g := &Grid{
		Box:       box,
		Scale:     scale,
		Size:      box / float64(scale),
		start:     make([]int, n),
		end:       make([]int, n),
		neighbors: make([][]int, n),
	}

	for h := 0; h < n; h++ {
		g.neighbors[h] = g.computeNeighbors(h)
		g.start[h] = emptyCell
	}
	return g, nil
}

func (g *Grid) Cells() int { return len(g.start) }

func (g *Grid) Hash(c [3]int) int {
	return c[0] + g.Scale*c[1] + g.Scale*g.Scale*c[2]
}

func (g *Grid) unhash(h int) [3]int {
	s := g.Scale
	return [3]int{h % s, (h / s) % s, h / (s * s)}
}

// Coords returns the cell holding pos. Positions must already be wrapped.
func (g *Grid) Coords(pos r3.Vec) ([3]int, error) {
	c := [3]int{g.axis(pos.X), g.axis(pos.Y), g.axis(pos.Z)}
	for _, v := range c {
		if v < 0 || v >= g.Scale {
			return c, fmt.Errorf("cell %v at (%.4f, %.4f, %.4f): %w", c, pos.X, pos.Y, pos.Z, sim.ErrCellBounds)
		}
	}
	return c, nil
}

func (g *Grid) axis(v float64) int {
	c := int(math.Floor(v / g.Size))
	// rounding can push a coordinate just below Box into the next cell
	if c == g.Scale && v < g.Box {
		c--
	}
	return c
}

// Rebuild hashes every particle, sorts the (hash, index) table and records
// the range of each cell within it. Each particle's Cell field is updated.
func (g *Grid) Rebuild(ps []*sim.Particle) error {
	if cap(g.entries) < len(ps) {
		g.entries = make([]entry, len(ps))
		g.cellOf = make([]int, len(ps))
	}
	g.entries = g.entries[:len(ps)]
	g.cellOf = g.cellOf[:len(ps)]

	for i, p := range ps {
		c, err := g.Coords(p.Pos)
		if err != nil {
			return &sim.ParticleError{ID: p.ID, Pos: p.Pos, Err: err}
		}
		p.Cell = c
		h := g.Hash(c)
		g.entries[i] = entry{hash: h, index: i}
		g.cellOf[i] = h
	}

	sort.Slice(g.entries, func(a, b int) bool {
		if g.entries[a].hash != g.entries[b].hash {
			return g.entries[a].hash < g.entries[b].hash
		}
		return g.entries[a].index < g.entries[b].index
	})

	for h := range g.start {
		g.start[h] = emptyCell
		g.end[h] = 0
	}
	for k, e := range g.entries {
		if g.start[e.hash] == emptyCell {
			g.start[e.hash] = k
		}
		g.end[e.hash] = k + 1
	}
	return nil
}

// Members returns the particle indices hashed into cell h.
func (g *Grid) Members(h int) []int {
	if h < 0 || h >= len(g.start) || g.start[h] == emptyCell {
		return nil
	}
	out := make([]int, 0, g.end[h]-g.start[h])
	for _, e := range g.entries[g.start[h]:g.end[h]] {
		out = append(out, e.index)
	}
	return out
}

// Neighbors returns the distinct cells adjacent to h, h included, with
// periodic wrap. Small grids yield fewer than 27 cells.
func (g *Grid) Neighbors(h int) []int {
	return g.neighbors[h]
}

// CellOf returns the cell index particle i was hashed into.
func (g *Grid) CellOf(i int) int {
	return g.cellOf[i]
}

// ForEachNeighbor calls fn for every particle j != i in the cells adjacent
// to particle i's cell.
func (g *Grid) ForEachNeighbor(i int, fn func(j int)) {
	for _, h := range g.neighbors[g.cellOf[i]] {
		if g.start[h] == emptyCell {
			continue
		}
		for _, e := range g.entries[g.start[h]:g.end[h]] {
			if e.index != i {
				fn(e.index)
			}
		}
	}
}

func (g *Grid) computeNeighbors(h int) []int {
	c := g.unhash(h)
	seen := make(map[int]bool, 27)
	out := make([]int, 0, 27)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				n := [3]int{
					wrapIndex(c[0]+dx, g.Scale),
					wrapIndex(c[1]+dy, g.Scale),
					wrapIndex(c[2]+dz, g.Scale),
				}
				nh := g.Hash(n)
				if !seen[nh] {
					seen[nh] = true
					out = append(out, nh)
				}
			}
		}
	}
	sort.Ints(out)
	return out
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
