package entity

import "testing"

func newForest(t *testing.T) (*Registry, *Player) {
	t.Helper()
	r := NewRegistry()
	p := &Player{Base: Base{ID: r.NextID()}, HP: 100}
	r.AddPlayer(p)
	// p -> a -> (b, c), c -> d
	a := &Node{Base: Base{ID: r.NextID()}, PlayerEntityID: p.ID, ParentNodeID: p.ID, HP: 1}
	r.AddNode(a)
	b := &Node{Base: Base{ID: r.NextID()}, PlayerEntityID: p.ID, ParentNodeID: a.ID, HP: 1}
	r.AddNode(b)
	c := &Node{Base: Base{ID: r.NextID()}, PlayerEntityID: p.ID, ParentNodeID: a.ID, HP: 1}
	r.AddNode(c)
	d := &Node{Base: Base{ID: r.NextID()}, PlayerEntityID: p.ID, ParentNodeID: c.ID, HP: 1}
	r.AddNode(d)
	return r, p
}

func TestTraverseNodesDepthFirst(t *testing.T) {
	r, p := newForest(t)
	var ids, depths []int
	r.TraverseNodes(p.ID, 0, func(e Entity, depth int) {
		ids = append(ids, e.Ref().ID)
		depths = append(depths, depth)
	})
	wantIDs := []int{1, 2, 3, 4, 5}
	wantDepths := []int{0, 1, 2, 2, 3}
	for i := range wantIDs {
		if i >= len(ids) || ids[i] != wantIDs[i] || depths[i] != wantDepths[i] {
			t.Fatalf("traversal ids=%v depths=%v", ids, depths)
		}
	}
	if len(ids) != len(wantIDs) {
		t.Fatalf("traversal ids=%v", ids)
	}
}

func TestTraverseMissingRoot(t *testing.T) {
	r, _ := newForest(t)
	calls := 0
	r.TraverseNodes(999, 0, func(Entity, int) { calls++ })
	if calls != 0 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestRemoveKeepsChildrenAlive(t *testing.T) {
	r, p := newForest(t)
	if r.Remove(2) == nil {
		t.Fatalf("remove returned nil")
	}
	if r.Get(3) == nil || r.Get(5) == nil {
		t.Fatalf("descendants removed with parent")
	}
	if r.Node(3).ParentNodeID != 2 {
		t.Fatalf("child parent link rewritten")
	}
	if got := r.Children(p.ID); len(got) != 0 {
		t.Fatalf("player children=%v", got)
	}
	if got := r.Children(2); len(got) != 0 {
		t.Fatalf("dead node still indexes children: %v", got)
	}
	if r.Remove(2) != nil {
		t.Fatalf("double remove returned entity")
	}
}

func TestOrderedListingsAndOwnership(t *testing.T) {
	r, p := newForest(t)
	res := &Resource{Base: Base{ID: r.NextID()}, Mineral: 5}
	r.AddResource(res)
	nodes := r.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].ID >= nodes[i].ID {
			t.Fatalf("nodes not ordered")
		}
	}
	if got := len(r.NodesOwnedBy(p.ID)); got != 4 {
		t.Fatalf("owned=%d", got)
	}
	all := r.All()
	if len(all) != 6 || all[5].Kind() != KindResource {
		t.Fatalf("All=%v", all)
	}
	pl, nd, rs := r.Counts()
	if pl != 1 || nd != 4 || rs != 1 {
		t.Fatalf("counts=%d,%d,%d", pl, nd, rs)
	}
}

func TestCanMorph(t *testing.T) {
	cases := []struct {
		from, to NodeType
		ok       bool
	}{
		{NodeBud, NodeShooter, true},
		{NodeBud, NodeSwarm, true},
		{NodeBud, NodeConverter, true},
		{NodeShooter, NodeBud, true},
		{NodeSwarm, NodeBud, true},
		{NodeBud, NodeBud, false},
		{NodeShooter, NodeSwarm, false},
		{NodeRoot, NodeBud, false},
		{NodeBud, NodeRoot, false},
	}
	for _, c := range cases {
		if got := CanMorph(c.from, c.to); got != c.ok {
			t.Fatalf("CanMorph(%s,%s)=%v", c.from, c.to, got)
		}
	}
}

func TestHostileAndDead(t *testing.T) {
	p := &Player{Base: Base{ID: 1}, HP: 10}
	mine := &Node{Base: Base{ID: 2}, PlayerEntityID: 1, HP: 5}
	orphan := &Node{Base: Base{ID: 3}, PlayerEntityID: NoOwner, HP: 5}
	if Hostile(1, p) || Hostile(1, mine) {
		t.Fatalf("own entities hostile")
	}
	if !Hostile(1, orphan) || !Hostile(NoOwner, p) {
		t.Fatalf("expected hostility")
	}
	if Hostile(NoOwner, orphan) {
		t.Fatalf("orphans should not attack orphans")
	}
	if Hostile(1, &Resource{}) {
		t.Fatalf("resources are never targets")
	}
	if !(&Resource{Mineral: 0, Ammo: 0}).Dead() || (&Resource{Mineral: 1}).Dead() {
		t.Fatalf("resource Dead")
	}
	if nt, ok := ParseNodeType("shooter"); !ok || nt != NodeShooter {
		t.Fatalf("ParseNodeType")
	}
}
