package physics

import (
	"strconv"

	"github.com/ByteArena/box2d"
)

// LabelMapper extracts the label a contact handler matches on.
type LabelMapper func(f *Fixture) string

func ByFixtureLabel(f *Fixture) string { return f.Label }

func ByBodyLabel(f *Fixture) string {
	if f.Body == nil {
		return ""
	}
	return f.Body.def.Label
}

func ByEntityID(f *Fixture) string {
	if f.Body == nil || f.Body.owner == nil {
		return ""
	}
	return strconv.Itoa(f.Body.owner.EntityID())
}

// ContactFunc receives fixtures in the order the handler declared its labels.
type ContactFunc func(a, b *Fixture)

type contactHandler struct {
	title  string
	mapper LabelMapper
	labelA string
	labelB string
	fn     ContactFunc
}

func (h contactHandler) match(fa, fb *Fixture) (*Fixture, *Fixture, bool) {
	la, lb := h.mapper(fa), h.mapper(fb)
	if la == h.labelA && lb == h.labelB {
		return fa, fb, true
	}
	if la == h.labelB && lb == h.labelA {
		return fb, fa, true
	}
	return nil, nil, false
}

func (w *World) RegisterBeginContactHandler(title string, mapper LabelMapper, labelA, labelB string, fn ContactFunc) {
	w.begin = append(w.begin, contactHandler{title: title, mapper: mapper, labelA: labelA, labelB: labelB, fn: fn})
}

func (w *World) RegisterEndContactHandler(title string, mapper LabelMapper, labelA, labelB string, fn ContactFunc) {
	w.end = append(w.end, contactHandler{title: title, mapper: mapper, labelA: labelA, labelB: labelB, fn: fn})
}

// dispatch runs every matching handler until one of them invalidates a body
// involved in the contact.
func dispatch(handlers []contactHandler, fa, fb *Fixture) {
	if fa == nil || fb == nil {
		return
	}
	if fa.Body.invalidated() || fb.Body.invalidated() {
		return
	}
	for _, h := range handlers {
		a, b, ok := h.match(fa, fb)
		if !ok {
			continue
		}
		h.fn(a, b)
		if fa.Body.invalidated() || fb.Body.invalidated() {
			return
		}
	}
}

func fixtureOf(f *box2d.B2Fixture) *Fixture {
	if f == nil {
		return nil
	}
	fx, _ := f.GetUserData().(*Fixture)
	return fx
}

type contactListener struct {
	w *World
}

func (l contactListener) BeginContact(contact box2d.B2ContactInterface) {
	dispatch(l.w.begin, fixtureOf(contact.GetFixtureA()), fixtureOf(contact.GetFixtureB()))
}

func (l contactListener) EndContact(contact box2d.B2ContactInterface) {
	dispatch(l.w.end, fixtureOf(contact.GetFixtureA()), fixtureOf(contact.GetFixtureB()))
}

func (l contactListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {}

func (l contactListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {}
