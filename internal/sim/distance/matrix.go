// Package distance keeps the all-pairs distance table the AI queries each tick.
package distance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

type Transform struct {
	ID  int
	Pos r2.Vec
}

// Source supplies the transforms a Matrix is built from.
type Source interface {
	Transforms() []Transform
	Transform(id int) (Transform, bool)
}

type Neighbor struct {
	EntityID int
	Distance float64
}

// Matrix is a symmetric distance table with no self entries.
type Matrix struct {
	src  Source
	pos  map[int]r2.Vec
	rows map[int]map[int]float64
}

func New(src Source) *Matrix {
	return &Matrix{src: src, pos: map[int]r2.Vec{}, rows: map[int]map[int]float64{}}
}

// Init discards the table and rebuilds it from the source.
func (m *Matrix) Init() {
	ts := m.src.Transforms()
	m.pos = make(map[int]r2.Vec, len(ts))
	m.rows = make(map[int]map[int]float64, len(ts))
	for _, t := range ts {
		m.InsertTransform(t)
	}
}

// InsertTransform adds or replaces one row and its mirrored column.
func (m *Matrix) InsertTransform(t Transform) {
	if _, ok := m.rows[t.ID]; ok {
		m.RemoveTransform(t.ID)
	}
	row := make(map[int]float64, len(m.pos))
	for id, p := range m.pos {
		d := r2.Norm(r2.Sub(t.Pos, p))
		row[id] = d
		m.rows[id][t.ID] = d
	}
	m.pos[t.ID] = t.Pos
	m.rows[t.ID] = row
}

// RemoveTransform purges the row and every column for id.
func (m *Matrix) RemoveTransform(id int) {
	if _, ok := m.rows[id]; !ok {
		return
	}
	delete(m.rows, id)
	delete(m.pos, id)
	for _, row := range m.rows {
		delete(row, id)
	}
}

// Lookup returns the stored distance only.
func (m *Matrix) Lookup(a, b int) (float64, bool) {
	row, ok := m.rows[a]
	if !ok {
		return 0, false
	}
	d, ok := row[b]
	return d, ok
}

// Distance returns the stored distance, or computes it from the source
// without caching when either entity has no row. Unknown entities are +Inf away.
func (m *Matrix) Distance(a, b int) float64 {
	if a == b {
		return 0
	}
	if d, ok := m.Lookup(a, b); ok {
		return d
	}
	ta, okA := m.position(a)
	tb, okB := m.position(b)
	if !okA || !okB {
		return math.Inf(1)
	}
	return r2.Norm(r2.Sub(ta, tb))
}

func (m *Matrix) position(id int) (r2.Vec, bool) {
	if p, ok := m.pos[id]; ok {
		return p, true
	}
	t, ok := m.src.Transform(id)
	return t.Pos, ok
}

// ClosestTo returns up to count neighbors of id with minIncl <= d < maxExcl,
// nearest first, ties broken by id. count <= 0 returns every match. A
// missing row yields nothing.
func (m *Matrix) ClosestTo(id, count int, minIncl, maxExcl float64) []Neighbor {
	row, ok := m.rows[id]
	if !ok {
		return nil
	}
	out := make([]Neighbor, 0, len(row))
	for other, d := range row {
		if d < minIncl || d >= maxExcl {
			continue
		}
		out = append(out, Neighbor{EntityID: other, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].EntityID < out[j].EntityID
	})
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

func (m *Matrix) Len() int { return len(m.rows) }
