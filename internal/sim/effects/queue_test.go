package effects

import "testing"

func TestTransferAppliedOnceAtArrival(t *testing.T) {
	var q Queue[Transfer]
	q.Schedule(Transfer{ID: 1, FromID: 10, ToID: 20, Mineral: 10, StartTick: 1000, Duration: 2000})

	applied := 0
	for tick := int64(1000); tick < 3000; tick += 16 {
		applied += q.Resolve(tick, func(Transfer) { t.Fatalf("applied early at %d", tick) })
	}
	if applied != 0 {
		t.Fatalf("applied=%d", applied)
	}
	var got []Transfer
	q.Resolve(3008, func(tr Transfer) { got = append(got, tr) })
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got=%+v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("transfer still queued")
	}
	if q.Resolve(10000, func(Transfer) { t.Fatalf("applied twice") }) != 0 {
		t.Fatalf("second resolve applied")
	}
}

func TestResolveOrderStableForTies(t *testing.T) {
	var q Queue[Bullet]
	q.Schedule(Bullet{ID: 3, StartTick: 0, FlyTime: 100})
	q.Schedule(Bullet{ID: 1, StartTick: 50, FlyTime: 50})
	q.Schedule(Bullet{ID: 2, StartTick: 0, FlyTime: 40})
	q.Schedule(Bullet{ID: 4, StartTick: 200, FlyTime: 1000})

	var ids []int
	n := q.Resolve(100, func(b Bullet) { ids = append(ids, b.ID) })
	if n != 3 || len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Fatalf("n=%d ids=%v", n, ids)
	}
	if p := q.Pending(); len(p) != 1 || p[0].ID != 4 {
		t.Fatalf("pending=%+v", p)
	}
}

func TestPurgeRules(t *testing.T) {
	var tq Queue[Transfer]
	tq.Schedule(Transfer{ID: 1, FromID: 5, ToID: 6, Duration: 10})
	tq.Schedule(Transfer{ID: 2, FromID: 7, ToID: 5, Duration: 10})
	if n := tq.Purge(func(tr Transfer) bool { return tr.Touches(5) }); n != 1 {
		t.Fatalf("purged=%d", n)
	}
	if p := tq.Pending(); len(p) != 1 || p[0].ID != 1 {
		t.Fatalf("transfer from a removed source must still arrive: %+v", p)
	}

	var bq Queue[Bullet]
	bq.Schedule(Bullet{ID: 1, FromID: 5, ToID: 6, FlyTime: 10})
	bq.Schedule(Bullet{ID: 2, FromID: 7, ToID: 5, FlyTime: 10})
	bq.Schedule(Bullet{ID: 3, FromID: 7, ToID: 8, FlyTime: 10})
	if n := bq.Purge(func(b Bullet) bool { return b.Touches(5) }); n != 2 || bq.Len() != 1 {
		t.Fatalf("purged=%d left=%d", n, bq.Len())
	}
}
