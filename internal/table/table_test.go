package table

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestSitOutsideSeatRangeUnavailable(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	for _, seat := range []int{-1, 0, 7, 100} {
		if err := tbl.Sit(ctx, "alice", seat); !errors.Is(err, ErrSeatUnavailable) {
			t.Fatalf("seat %d: expected seat_unavailable, got %v", seat, err)
		}
	}
	if len(tbl.Players()) != 0 {
		t.Fatalf("expected empty table, got %+v", tbl.Players())
	}
}

func TestConcurrentSitSameSeat(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, player := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, player string) {
			defer wg.Done()
			errs[i] = tbl.Sit(ctx, player, 3)
		}(i, player)
	}
	wg.Wait()

	ok, taken := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSeatTaken):
			taken++
		default:
			t.Fatalf("unexpected sit error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Fatalf("expected one success and one seat_taken, got %v", errs)
	}
	players := tbl.Players()
	if len(players) != 1 || players[0].Seat != 3 {
		t.Fatalf("unexpected seating: %+v", players)
	}
}

func TestSitTwiceRejected(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.Sit(ctx, "alice", 2); !errors.Is(err, ErrAlreadySeated) {
		t.Fatalf("expected already_seated, got %v", err)
	}
	if err := tbl.Sit(ctx, "bob", 1); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("expected seat_taken, got %v", err)
	}
}

func TestLeaveWithBalanceRejected(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); err != nil {
		t.Fatalf("buy in: %v", err)
	}
	if err := tbl.Leave(ctx, "alice"); !errors.Is(err, ErrPlayerHasBalance) {
		t.Fatalf("expected player_has_balance, got %v", err)
	}
	if bal, ok := balanceOf(tbl, "alice"); !ok || bal != 10 {
		t.Fatalf("expected alice seated with 10, got %d seated=%v", bal, ok)
	}
}

func TestLeaveRemovesSeat(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Leave(ctx, "alice"); !errors.Is(err, ErrNotAtTable) {
		t.Fatalf("expected not_at_table, got %v", err)
	}
	if err := tbl.Sit(ctx, "alice", 2); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.Leave(ctx, "alice"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(tbl.Players()) != 0 {
		t.Fatalf("expected empty table after leave, got %+v", tbl.Players())
	}
	if err := tbl.Sit(ctx, "bob", 2); err != nil {
		t.Fatalf("seat 2 should be free again: %v", err)
	}
}

func TestCashOutDepositsBalance(t *testing.T) {
	tbl, bank, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); err != nil {
		t.Fatalf("buy in: %v", err)
	}
	if err := tbl.CashOut(ctx, "alice"); err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 0 {
		t.Fatalf("expected balance 0 after cash out, got %d", bal)
	}
	select {
	case d := <-bank.deposits:
		if d.playerID != "alice" || d.amount != 10 {
			t.Fatalf("unexpected deposit: %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a deposit of 10")
	}
	if err := tbl.Leave(ctx, "alice"); err != nil {
		t.Fatalf("leave after cash out: %v", err)
	}
}

func TestCashOutEmptySkipsDeposit(t *testing.T) {
	tbl, bank, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.CashOut(ctx, "alice"); !errors.Is(err, ErrNotAtTable) {
		t.Fatalf("expected not_at_table, got %v", err)
	}
	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.CashOut(ctx, "alice"); err != nil {
		t.Fatalf("cash out: %v", err)
	}
	select {
	case d := <-bank.deposits:
		t.Fatalf("unexpected deposit: %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBuyInBankErrorPassesThrough(t *testing.T) {
	tbl, bank, _ := newTestTable(t, 6)
	ctx := context.Background()
	bank.withdrawErr = errBankDown

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); err != errBankDown {
		t.Fatalf("expected bank error verbatim, got %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 0 {
		t.Fatalf("expected balance untouched, got %d", bal)
	}
}

func TestBuyInValidation(t *testing.T) {
	tbl, bank, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.BuyIn(ctx, "alice", 10); !errors.Is(err, ErrNotAtTable) {
		t.Fatalf("expected not_at_table, got %v", err)
	}
	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	for _, amount := range []int64{0, -5} {
		if err := tbl.BuyIn(ctx, "alice", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected invalid_amount, got %v", amount, err)
		}
	}
	if len(bank.withdrawals) != 0 {
		t.Fatalf("expected no withdrawals, got %+v", bank.withdrawals)
	}
}

func TestBuyInBankTimeout(t *testing.T) {
	bank := newFakeBank()
	bank.block = true
	tbl := New(Config{SeatCount: 2, BankTimeout: 20 * time.Millisecond}, bank, &fakeStarter{})
	t.Cleanup(tbl.Close)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 0 {
		t.Fatalf("expected balance untouched, got %d", bal)
	}
	if err := tbl.Sit(ctx, "bob", 2); err != nil {
		t.Fatalf("table should keep serving after a bank timeout: %v", err)
	}
}

func TestUpdateBalanceWithoutRoundIsInvalidHand(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	for _, round := range []RoundID{"", "some-round"} {
		if err := tbl.UpdateBalance(ctx, round, "alice", 5); !errors.Is(err, ErrInvalidHand) {
			t.Fatalf("round %q: expected invalid_hand, got %v", round, err)
		}
	}
}

func TestUpdateBalanceFromOtherRoundIsInvalidHand(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	round, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if err := tbl.UpdateBalance(ctx, round+"x", "alice", 5); !errors.Is(err, ErrInvalidHand) {
		t.Fatalf("expected invalid_hand, got %v", err)
	}
	if err := tbl.UpdateBalance(ctx, round, "ghost", 5); !errors.Is(err, ErrNotAtTable) {
		t.Fatalf("expected not_at_table, got %v", err)
	}
	if err := tbl.UpdateBalance(ctx, round, "alice", 5); err != nil {
		t.Fatalf("update from active round: %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 5 {
		t.Fatalf("expected 5, got %d", bal)
	}
}

func TestUpdateBalanceInsufficientFunds(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); err != nil {
		t.Fatalf("buy in: %v", err)
	}
	round, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if err := tbl.UpdateBalance(ctx, round, "alice", -15); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient_funds, got %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 10 {
		t.Fatalf("expected balance 10, got %d", bal)
	}
	if err := tbl.UpdateBalance(ctx, round, "alice", -10); err != nil {
		t.Fatalf("debit to zero: %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 0 {
		t.Fatalf("expected balance 0, got %d", bal)
	}
}

func TestDealWhileRoundActive(t *testing.T) {
	tbl, _, starter := newTestTable(t, 6)
	ctx := context.Background()

	first, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if active, ok := tbl.ActiveRound(); !ok || active != first {
		t.Fatalf("expected active round %q, got %q", first, active)
	}
	if _, err := tbl.Deal(ctx); !errors.Is(err, ErrHandInProgress) {
		t.Fatalf("expected hand_in_progress, got %v", err)
	}

	h, _ := starter.last()
	h.finish(nil)
	waitFor(t, "round to clear", func() bool {
		_, ok := tbl.ActiveRound()
		return !ok
	})

	second, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal after round ended: %v", err)
	}
	if second == first {
		t.Fatalf("expected a fresh round id, got %q twice", first)
	}
	if err := tbl.UpdateBalance(ctx, first, "alice", 1); !errors.Is(err, ErrInvalidHand) {
		t.Fatalf("finished round must lose its capability, got %v", err)
	}
}

func TestCrashedRoundClearsActive(t *testing.T) {
	tbl, _, starter := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if _, err := tbl.Deal(ctx); err != nil {
		t.Fatalf("deal: %v", err)
	}
	h, _ := starter.last()
	h.finish(errors.New("round panicked"))
	waitFor(t, "crashed round to clear", func() bool {
		_, ok := tbl.ActiveRound()
		return !ok
	})
	if err := tbl.BuyIn(ctx, "alice", 5); err != nil {
		t.Fatalf("buy in after crash: %v", err)
	}
}

func TestDealStartFailureKeepsTableIdle(t *testing.T) {
	tbl, _, starter := newTestTable(t, 6)
	ctx := context.Background()
	startErr := errors.New("not_enough_players")
	starter.err = startErr

	if _, err := tbl.Deal(ctx); err != startErr {
		t.Fatalf("expected start error verbatim, got %v", err)
	}
	if _, ok := tbl.ActiveRound(); ok {
		t.Fatal("expected no active round after failed start")
	}
}

func TestDealPassesPlayersBySeat(t *testing.T) {
	tbl, _, starter := newTestTable(t, 6)
	ctx := context.Background()

	for _, s := range []struct {
		player string
		seat   int
	}{{"carol", 5}, {"alice", 2}, {"bob", 4}} {
		if err := tbl.Sit(ctx, s.player, s.seat); err != nil {
			t.Fatalf("sit %s: %v", s.player, err)
		}
	}
	round, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	_, call := starter.last()
	if call.round != round {
		t.Fatalf("starter got round %q, deal returned %q", call.round, round)
	}
	if want := []string{"alice", "bob", "carol"}; !reflect.DeepEqual(call.players, want) {
		t.Fatalf("players = %v, want %v", call.players, want)
	}
}

func TestMoneyMovesBlockedDuringRound(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if _, err := tbl.Deal(ctx); err != nil {
		t.Fatalf("deal: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); !errors.Is(err, ErrHandInProgress) {
		t.Fatalf("buy in: expected hand_in_progress, got %v", err)
	}
	if err := tbl.CashOut(ctx, "alice"); !errors.Is(err, ErrHandInProgress) {
		t.Fatalf("cash out: expected hand_in_progress, got %v", err)
	}
	if err := tbl.Leave(ctx, "alice"); !errors.Is(err, ErrHandInProgress) {
		t.Fatalf("leave: expected hand_in_progress, got %v", err)
	}
}

func TestStaleRoundEndIgnored(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	round, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	tbl.requests <- request{kind: reqRoundEnded, round: "stale"}
	// Any request queued behind the notice is handled after it.
	_ = tbl.Sit(ctx, "alice", 0)

	if active, ok := tbl.ActiveRound(); !ok || active != round {
		t.Fatalf("expected round %q to stay active, got %q (%v)", round, active, ok)
	}
}

func TestPlayersOrderedAndStable(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	_ = tbl.Sit(ctx, "carol", 6)
	_ = tbl.Sit(ctx, "alice", 1)
	_ = tbl.Sit(ctx, "bob", 3)
	if err := tbl.BuyIn(ctx, "bob", 40); err != nil {
		t.Fatalf("buy in: %v", err)
	}

	first := tbl.Players()
	second := tbl.Players()
	want := []Player{{ID: "alice", Seat: 1}, {ID: "bob", Seat: 3, Balance: 40}, {ID: "carol", Seat: 6}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("players = %+v, want %+v", first, want)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("players changed without a mutation: %+v vs %+v", first, second)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	tbl, _, starter := newTestTable(t, 6)
	ctx := context.Background()

	var mu sync.Mutex
	var got []EventType
	unsubscribe := tbl.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
	})

	_ = tbl.Sit(ctx, "alice", 1)
	_ = tbl.BuyIn(ctx, "alice", 5)
	round, _ := tbl.Deal(ctx)
	_ = tbl.UpdateBalance(ctx, round, "alice", -5)
	h, _ := starter.last()
	h.finish(nil)
	waitFor(t, "round end event", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	})
	unsubscribe()
	_ = tbl.CashOut(ctx, "alice")

	mu.Lock()
	defer mu.Unlock()
	want := []EventType{EventPlayerSeated, EventBuyIn, EventRoundStarted, EventBalanceUpdated, EventRoundEnded}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestClosedTableRejects(t *testing.T) {
	tbl := New(Config{SeatCount: 2}, newFakeBank(), &fakeStarter{})
	tbl.Close()

	if err := tbl.Sit(context.Background(), "alice", 1); !errors.Is(err, ErrTableClosed) {
		t.Fatalf("expected table_closed, got %v", err)
	}
	tbl.Close()
}

func TestCanceledCallReportsWhatHappened(t *testing.T) {
	for i := 0; i < 200; i++ {
		tbl := New(Config{ID: "t-cancel", SeatCount: 6}, newFakeBank(), &fakeStarter{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := tbl.Sit(ctx, "alice", 1)
		_, seated := balanceOf(tbl, "alice")
		tbl.Close()
		switch {
		case err == nil && !seated:
			t.Fatalf("run %d: sit reported success but alice is not seated", i)
		case err != nil && seated:
			t.Fatalf("run %d: sit reported %v but alice is seated", i, err)
		case err != nil && !errors.Is(err, context.Canceled):
			t.Fatalf("run %d: expected context canceled, got %v", i, err)
		}
	}
}

func TestCanceledBuyInDoesNotMoveMoney(t *testing.T) {
	tbl, bank, _ := newTestTable(t, 6)
	if err := tbl.Sit(context.Background(), "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tbl.BuyIn(ctx, "alice", 10)
	bal, _ := balanceOf(tbl, "alice")
	bank.mu.Lock()
	withdrawn := len(bank.withdrawals)
	bank.mu.Unlock()
	if err != nil && (bal != 0 || withdrawn != 0) {
		t.Fatalf("buy in reported %v but balance=%d withdrawals=%d", err, bal, withdrawn)
	}
	if err == nil && (bal != 10 || withdrawn != 1) {
		t.Fatalf("buy in succeeded but balance=%d withdrawals=%d", bal, withdrawn)
	}
}

func TestUpdateBalanceRejectsOverflow(t *testing.T) {
	tbl, _, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); err != nil {
		t.Fatalf("buy in: %v", err)
	}
	round, err := tbl.Deal(ctx)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if err := tbl.UpdateBalance(ctx, round, "alice", math.MaxInt64); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid_amount, got %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 10 {
		t.Fatalf("expected balance 10 after rejected credit, got %d", bal)
	}
	if err := tbl.UpdateBalance(ctx, round, "alice", math.MaxInt64-10); err != nil {
		t.Fatalf("credit up to the limit: %v", err)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != math.MaxInt64 {
		t.Fatalf("expected max balance, got %d", bal)
	}
}

func TestBuyInRejectsOverflowBeforeWithdraw(t *testing.T) {
	tbl, bank, _ := newTestTable(t, 6)
	ctx := context.Background()

	if err := tbl.Sit(ctx, "alice", 1); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", 10); err != nil {
		t.Fatalf("buy in: %v", err)
	}
	if err := tbl.BuyIn(ctx, "alice", math.MaxInt64); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid_amount, got %v", err)
	}
	bank.mu.Lock()
	withdrawn := len(bank.withdrawals)
	bank.mu.Unlock()
	if withdrawn != 1 {
		t.Fatalf("expected only the first withdrawal, got %d", withdrawn)
	}
	if bal, _ := balanceOf(tbl, "alice"); bal != 10 {
		t.Fatalf("expected balance 10, got %d", bal)
	}
}
