package world

import (
	"math"
	"sort"

	"github.com/tfl/client/internal/geom"
)

// AOIGrid buckets units into square ground-plane cells so a range query
// only looks at the cells its radius can reach. It is rebuilt for each
// auto-target pass and used only from the tick goroutine, so no locks.
type AOIGrid struct {
	cellSize float32
	cells    map[cellKey][]*UnitRecord
}

type cellKey struct {
	cx int32
	cz int32
}

func NewAOIGrid(cellSize float32) *AOIGrid {
	if cellSize <= 0 {
		cellSize = 64
	}
	return &AOIGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]*UnitRecord),
	}
}

func (g *AOIGrid) toCell(v float32) int32 {
	return int32(math.Floor(float64(v / g.cellSize)))
}

func (g *AOIGrid) key(p geom.Vec3) cellKey {
	return cellKey{cx: g.toCell(p.X), cz: g.toCell(p.Z)}
}

// Add places a unit into the grid at its current position.
func (g *AOIGrid) Add(u *UnitRecord) {
	k := g.key(u.Pos)
	g.cells[k] = append(g.cells[k], u)
}

func (g *AOIGrid) Reset() {
	clear(g.cells)
}

// Nearby returns every unit in the cells overlapping the square of the
// given radius around p, in ascending ID order. Caller does fine-grained
// distance filtering.
func (g *AOIGrid) Nearby(p geom.Vec3, radius float32) []*UnitRecord {
	r := int32(math.Ceil(float64(radius / g.cellSize)))
	// a radius spanning more cells than exist is cheaper as a full scan
	if span := int64(2*r+1) * int64(2*r+1); span > int64(len(g.cells)) {
		return g.all()
	}
	c := g.key(p)
	var result []*UnitRecord
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			result = append(result, g.cells[cellKey{cx: c.cx + dx, cz: c.cz + dz}]...)
		}
	}
	sortByID(result)
	return result
}

func (g *AOIGrid) all() []*UnitRecord {
	var result []*UnitRecord
	for _, cell := range g.cells {
		result = append(result, cell...)
	}
	sortByID(result)
	return result
}

func sortByID(us []*UnitRecord) {
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
}
