package distance

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

type fakeSource map[int]r2.Vec

func (f fakeSource) Transforms() []Transform {
	out := make([]Transform, 0, len(f))
	for id, p := range f {
		out = append(out, Transform{ID: id, Pos: p})
	}
	return out
}

func (f fakeSource) Transform(id int) (Transform, bool) {
	p, ok := f[id]
	return Transform{ID: id, Pos: p}, ok
}

func grid() fakeSource {
	return fakeSource{
		1: {X: 0, Y: 0},
		2: {X: 30, Y: 40},
		3: {X: 100, Y: 0},
		4: {X: -50, Y: 0},
		5: {X: 0, Y: 50},
	}
}

func TestSymmetricWithoutSelf(t *testing.T) {
	m := New(grid())
	m.Init()
	for a := 1; a <= 5; a++ {
		if _, ok := m.Lookup(a, a); ok {
			t.Fatalf("self entry for %d", a)
		}
		for b := 1; b <= 5; b++ {
			if a == b {
				continue
			}
			dab, ok1 := m.Lookup(a, b)
			dba, ok2 := m.Lookup(b, a)
			if !ok1 || !ok2 || dab != dba {
				t.Fatalf("asymmetric %d,%d: %v %v", a, b, dab, dba)
			}
		}
	}
	if d := m.Distance(1, 2); d != 50 {
		t.Fatalf("distance(1,2)=%v", d)
	}
}

func TestClosestToOrderingAndBand(t *testing.T) {
	m := New(grid())
	m.Init()
	got := m.ClosestTo(1, 0, 0, math.Inf(1))
	// 2, 4 and 5 are all 50 away; ties break by id
	want := []int{2, 4, 5, 3}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, id := range want {
		if got[i].EntityID != id {
			t.Fatalf("order got %+v want %v", got, want)
		}
	}
	band := m.ClosestTo(1, 0, 50, 100)
	if len(band) != 3 {
		t.Fatalf("band [50,100) = %+v", band)
	}
	for _, n := range band {
		if n.EntityID == 1 || n.Distance < 50 || n.Distance >= 100 {
			t.Fatalf("band violated: %+v", n)
		}
	}
	if top := m.ClosestTo(1, 1, 0, math.Inf(1)); len(top) != 1 || top[0].EntityID != 2 {
		t.Fatalf("count=1 got %+v", top)
	}
	if m.ClosestTo(42, 3, 0, 1000) != nil {
		t.Fatalf("missing row should be empty")
	}
}

func TestRemovePurgesRowAndColumns(t *testing.T) {
	src := grid()
	m := New(src)
	m.Init()
	m.RemoveTransform(2)
	for a := 1; a <= 5; a++ {
		if _, ok := m.Lookup(a, 2); ok {
			t.Fatalf("column for 2 left in row %d", a)
		}
	}
	if _, ok := m.Lookup(2, 1); ok {
		t.Fatalf("row for 2 left")
	}
	for _, n := range m.ClosestTo(1, 0, 0, math.Inf(1)) {
		if n.EntityID == 2 {
			t.Fatalf("removed entity returned")
		}
	}
	// lazy path still answers from the source without caching
	if d := m.Distance(1, 2); d != 50 {
		t.Fatalf("lazy distance=%v", d)
	}
	if _, ok := m.Lookup(1, 2); ok {
		t.Fatalf("lazy distance cached")
	}
	delete(src, 2)
	if d := m.Distance(1, 2); !math.IsInf(d, 1) {
		t.Fatalf("unknown entity distance=%v", d)
	}
}

func TestInsertReplacesRow(t *testing.T) {
	m := New(grid())
	m.Init()
	m.InsertTransform(Transform{ID: 3, Pos: r2.Vec{X: 0, Y: 10}})
	if d, _ := m.Lookup(1, 3); d != 10 {
		t.Fatalf("distance after move=%v", d)
	}
	if d, _ := m.Lookup(3, 1); d != 10 {
		t.Fatalf("mirror after move=%v", d)
	}
	if m.Len() != 5 {
		t.Fatalf("len=%d", m.Len())
	}
}
