package table

import (
	"math"
	"sort"
	"sync/atomic"
)

type seatRecord struct {
	playerID string
	seat     int
	balance  atomic.Int64
}

// credit adds amount unless the balance would overflow.
func (r *seatRecord) credit(amount int64) (int64, bool) {
	for {
		cur := r.balance.Load()
		if amount > math.MaxInt64-cur {
			return cur, false
		}
		if r.balance.CompareAndSwap(cur, cur+amount) {
			return cur + amount, true
		}
	}
}

func (r *seatRecord) canCredit(amount int64) bool {
	return amount <= math.MaxInt64-r.balance.Load()
}

// debit takes amount off the balance unless that would make it negative.
func (r *seatRecord) debit(amount int64) (int64, bool) {
	for {
		cur := r.balance.Load()
		next := cur - amount
		if next < 0 {
			return cur, false
		}
		if r.balance.CompareAndSwap(cur, next) {
			return next, true
		}
	}
}

func (r *seatRecord) drain() int64 {
	return r.balance.Swap(0)
}

type seating struct {
	byPlayer map[string]*seatRecord
	bySeat   map[int]*seatRecord
}

// seatMap is written only by the table loop. Writers publish a fresh copy of
// the maps; readers load whatever copy is current without locking. Records
// are shared between copies, so balances stay live.
type seatMap struct {
	current atomic.Pointer[seating]
}

func newSeatMap() *seatMap {
	m := &seatMap{}
	m.current.Store(&seating{byPlayer: map[string]*seatRecord{}, bySeat: map[int]*seatRecord{}})
	return m
}

func (m *seatMap) load() *seating {
	return m.current.Load()
}

func (m *seatMap) byPlayer(playerID string) (*seatRecord, bool) {
	rec, ok := m.load().byPlayer[playerID]
	return rec, ok
}

func (m *seatMap) bySeat(seat int) (*seatRecord, bool) {
	rec, ok := m.load().bySeat[seat]
	return rec, ok
}

func (m *seatMap) insert(rec *seatRecord) {
	cur := m.load()
	next := cur.clone()
	next.byPlayer[rec.playerID] = rec
	next.bySeat[rec.seat] = rec
	m.current.Store(next)
}

func (m *seatMap) remove(playerID string) {
	cur := m.load()
	rec, ok := cur.byPlayer[playerID]
	if !ok {
		return
	}
	next := cur.clone()
	delete(next.byPlayer, playerID)
	delete(next.bySeat, rec.seat)
	m.current.Store(next)
}

func (s *seating) clone() *seating {
	out := &seating{
		byPlayer: make(map[string]*seatRecord, len(s.byPlayer)+1),
		bySeat:   make(map[int]*seatRecord, len(s.bySeat)+1),
	}
	for k, v := range s.byPlayer {
		out.byPlayer[k] = v
	}
	for k, v := range s.bySeat {
		out.bySeat[k] = v
	}
	return out
}

// ordered returns the seated records sorted by seat number.
func (s *seating) ordered() []*seatRecord {
	out := make([]*seatRecord, 0, len(s.bySeat))
	for _, rec := range s.bySeat {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seat < out[j].seat })
	return out
}
