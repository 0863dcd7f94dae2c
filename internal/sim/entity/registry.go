package entity

import "sort"

// Registry holds every live entity keyed by id, plus an index from parent id
// to child node ids. It is owned by the simulation goroutine.
type Registry struct {
	nextID    int
	players   map[int]*Player
	nodes     map[int]*Node
	resources map[int]*Resource
	children  map[int]map[int]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		nextID:    1,
		players:   map[int]*Player{},
		nodes:     map[int]*Node{},
		resources: map[int]*Resource{},
		children:  map[int]map[int]struct{}{},
	}
}

// NextID hands out process-unique ids. Ids are never reused.
func (r *Registry) NextID() int {
	id := r.nextID
	r.nextID++
	return id
}

// PeekNextID returns the id the next NextID call will hand out.
func (r *Registry) PeekNextID() int { return r.nextID }

func (r *Registry) AddPlayer(p *Player) { r.players[p.ID] = p }

func (r *Registry) AddResource(res *Resource) { r.resources[res.ID] = res }

func (r *Registry) AddNode(n *Node) {
	r.nodes[n.ID] = n
	if n.ParentNodeID == NoOwner {
		return
	}
	set := r.children[n.ParentNodeID]
	if set == nil {
		set = map[int]struct{}{}
		r.children[n.ParentNodeID] = set
	}
	set[n.ID] = struct{}{}
}

func (r *Registry) Get(id int) Entity {
	if p, ok := r.players[id]; ok {
		return p
	}
	if n, ok := r.nodes[id]; ok {
		return n
	}
	if res, ok := r.resources[id]; ok {
		return res
	}
	return nil
}

func (r *Registry) Player(id int) *Player     { return r.players[id] }
func (r *Registry) Node(id int) *Node         { return r.nodes[id] }
func (r *Registry) Resource(id int) *Resource { return r.resources[id] }

// Remove deletes the entity and its own children index entry. Children keep
// their ParentNodeID value.
func (r *Registry) Remove(id int) Entity {
	e := r.Get(id)
	switch v := e.(type) {
	case *Player:
		delete(r.players, id)
	case *Node:
		delete(r.nodes, id)
		if set := r.children[v.ParentNodeID]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(r.children, v.ParentNodeID)
			}
		}
	case *Resource:
		delete(r.resources, id)
	case nil:
		return nil
	}
	delete(r.children, id)
	return e
}

func (r *Registry) Counts() (players, nodes, resources int) {
	return len(r.players), len(r.nodes), len(r.resources)
}

func (r *Registry) Len() int { return len(r.players) + len(r.nodes) + len(r.resources) }

func (r *Registry) Players() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Nodes() []*Node {
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Resources() []*Resource {
	out := make([]*Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All lists every entity ordered by id.
func (r *Registry) All() []Entity {
	out := make([]Entity, 0, r.Len())
	for _, p := range r.players {
		out = append(out, p)
	}
	for _, n := range r.nodes {
		out = append(out, n)
	}
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref().ID < out[j].Ref().ID })
	return out
}

// Children returns the ids of nodes whose ParentNodeID is id, ascending.
func (r *Registry) Children(id int) []int {
	set := r.children[id]
	out := make([]int, 0, len(set))
	for cid := range set {
		out = append(out, cid)
	}
	sort.Ints(out)
	return out
}

// NodesOwnedBy lists nodes whose PlayerEntityID is playerID, ascending by id.
func (r *Registry) NodesOwnedBy(playerID int) []*Node {
	var out []*Node
	for _, n := range r.nodes {
		if n.PlayerEntityID == playerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlayerBySession finds the live player bound to a session id.
func (r *Registry) PlayerBySession(sessionID string) *Player {
	if sessionID == "" {
		return nil
	}
	for _, p := range r.players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

// TraverseNodes visits rootID and then, depth first, every node descending
// from it through ParentNodeID links. A missing root visits nothing.
func (r *Registry) TraverseNodes(rootID, depth int, fn func(e Entity, depth int)) {
	e := r.Get(rootID)
	if e == nil {
		return
	}
	r.traverse(e, depth, fn)
}

func (r *Registry) traverse(e Entity, depth int, fn func(e Entity, depth int)) {
	fn(e, depth)
	for _, cid := range r.Children(e.Ref().ID) {
		if n := r.nodes[cid]; n != nil {
			r.traverse(n, depth+1, fn)
		}
	}
}
