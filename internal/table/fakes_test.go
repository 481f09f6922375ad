package table

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type deposit struct {
	playerID string
	amount   int64
}

type fakeBank struct {
	mu          sync.Mutex
	withdrawErr error
	block       bool
	withdrawals []deposit
	deposits    chan deposit
	// depositFailures makes the next n deposits fail.
	depositFailures int
	depositAttempts int
}

func newFakeBank() *fakeBank {
	return &fakeBank{deposits: make(chan deposit, 16)}
}

func (b *fakeBank) Withdraw(ctx context.Context, playerID string, amount int64) error {
	b.mu.Lock()
	err, block := b.withdrawErr, b.block
	b.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.withdrawals = append(b.withdrawals, deposit{playerID: playerID, amount: amount})
	b.mu.Unlock()
	return nil
}

func (b *fakeBank) Deposit(_ context.Context, playerID string, amount int64) error {
	b.mu.Lock()
	b.depositAttempts++
	if b.depositFailures > 0 {
		b.depositFailures--
		b.mu.Unlock()
		return errBankDown
	}
	b.mu.Unlock()
	b.deposits <- deposit{playerID: playerID, amount: amount}
	return nil
}

func (b *fakeBank) attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depositAttempts
}

type fakeHand struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFakeHand() *fakeHand {
	return &fakeHand{done: make(chan struct{})}
}

func (h *fakeHand) Done() <-chan struct{} { return h.done }
func (h *fakeHand) Err() error            { return h.err }

func (h *fakeHand) finish(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

type startCall struct {
	round   RoundID
	players []string
}

type fakeStarter struct {
	mu    sync.Mutex
	err   error
	calls []startCall
	hands []*fakeHand
}

func (s *fakeStarter) Start(_ context.Context, _ Balances, round RoundID, players []string) (Hand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	h := newFakeHand()
	s.calls = append(s.calls, startCall{round: round, players: append([]string(nil), players...)})
	s.hands = append(s.hands, h)
	return h, nil
}

func (s *fakeStarter) last() (*fakeHand, startCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.hands) == 0 {
		return nil, startCall{}
	}
	return s.hands[len(s.hands)-1], s.calls[len(s.calls)-1]
}

var errBankDown = errors.New("bank_down")

func newTestTable(t *testing.T, seats int) (*Table, *fakeBank, *fakeStarter) {
	t.Helper()
	bank := newFakeBank()
	starter := &fakeStarter{}
	tbl := New(Config{ID: "t-test", SeatCount: seats, BankTimeout: time.Second}, bank, starter)
	t.Cleanup(tbl.Close)
	return tbl, bank, starter
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func balanceOf(tbl *Table, playerID string) (int64, bool) {
	for _, p := range tbl.Players() {
		if p.ID == playerID {
			return p.Balance, true
		}
	}
	return 0, false
}
