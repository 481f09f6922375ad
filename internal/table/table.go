package table

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chip-table/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	defaultMailboxSize = 64
	defaultBankTimeout = 5 * time.Second

	defaultDepositRetryMax  = 3
	defaultDepositRetryBase = 200 * time.Millisecond
)

type requestKind int

const (
	reqSit requestKind = iota
	reqLeave
	reqBuyIn
	reqCashOut
	reqDeal
	reqUpdateBalance
	reqRoundEnded
)

type request struct {
	kind     requestKind
	ctx      context.Context
	playerID string
	seat     int
	amount   int64
	round    RoundID
	reply    chan result
}

type result struct {
	round RoundID
	err   error
}

type activeRound struct {
	id   RoundID
	hand Hand
}

// Table coordinates one physical table. All mutations run one at a time on
// the table's own goroutine; Players and ActiveRound read published state
// directly.
type Table struct {
	cfg   Config
	bank  Bank
	hands HandStarter

	seats  *seatMap
	active atomic.Pointer[activeRound]

	requests chan request
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	deposits        sync.WaitGroup
	depositsPending atomic.Int64

	obsMu     sync.RWMutex
	observers map[int]func(Event)
	nextObs   int
}

// New creates a table and starts its loop. Call Close to stop it.
func New(cfg Config, bank Bank, hands HandStarter) *Table {
	if cfg.ID == "" {
		cfg.ID = store.NewID()
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = defaultMailboxSize
	}
	if cfg.BankTimeout <= 0 {
		cfg.BankTimeout = defaultBankTimeout
	}
	if cfg.DepositRetryMax == 0 {
		cfg.DepositRetryMax = defaultDepositRetryMax
	}
	if cfg.DepositRetryBase <= 0 {
		cfg.DepositRetryBase = defaultDepositRetryBase
	}
	t := &Table{
		cfg:       cfg,
		bank:      bank,
		hands:     hands,
		seats:     newSeatMap(),
		requests:  make(chan request, cfg.MailboxSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		observers: map[int]func(Event){},
	}
	go t.run()
	log.Info().Str("table_id", cfg.ID).Int("seat_count", cfg.SeatCount).Msg("table opened")
	return t
}

func (t *Table) ID() string     { return t.cfg.ID }
func (t *Table) SeatCount() int { return t.cfg.SeatCount }

// Close stops the loop. Pending and later requests fail with ErrTableClosed.
// A running round is not interrupted and cash-out deposits keep going; see
// Drain.
func (t *Table) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *Table) Sit(ctx context.Context, playerID string, seat int) error {
	return t.call(ctx, request{kind: reqSit, playerID: playerID, seat: seat}).err
}

func (t *Table) Leave(ctx context.Context, playerID string) error {
	return t.call(ctx, request{kind: reqLeave, playerID: playerID}).err
}

func (t *Table) BuyIn(ctx context.Context, playerID string, amount int64) error {
	return t.call(ctx, request{kind: reqBuyIn, playerID: playerID, amount: amount}).err
}

func (t *Table) CashOut(ctx context.Context, playerID string) error {
	return t.call(ctx, request{kind: reqCashOut, playerID: playerID}).err
}

// Deal starts a round with everyone currently seated and returns its id.
func (t *Table) Deal(ctx context.Context) (RoundID, error) {
	res := t.call(ctx, request{kind: reqDeal})
	return res.round, res.err
}

// UpdateBalance moves playerID's balance by delta on behalf of round.
func (t *Table) UpdateBalance(ctx context.Context, round RoundID, playerID string, delta int64) error {
	return t.call(ctx, request{kind: reqUpdateBalance, round: round, playerID: playerID, amount: delta}).err
}

// Players lists seated players ordered by seat number.
func (t *Table) Players() []Player {
	recs := t.seats.load().ordered()
	out := make([]Player, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Player{ID: rec.playerID, Seat: rec.seat, Balance: rec.balance.Load()})
	}
	return out
}

// ActiveRound returns the id of the running round, if any.
func (t *Table) ActiveRound() (RoundID, bool) {
	if ar := t.active.Load(); ar != nil {
		return ar.id, true
	}
	return "", false
}

// Subscribe registers fn for every completed mutation. fn runs on the table
// loop and must not block or call back into the table.
func (t *Table) Subscribe(fn func(Event)) (unsubscribe func()) {
	t.obsMu.Lock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = fn
	t.obsMu.Unlock()
	return func() {
		t.obsMu.Lock()
		delete(t.observers, id)
		t.obsMu.Unlock()
	}
}

func (t *Table) call(ctx context.Context, req request) result {
	req.ctx = ctx
	req.reply = make(chan result, 1)
	select {
	case t.requests <- req:
	case <-ctx.Done():
		return result{err: ctx.Err()}
	case <-t.stop:
		return result{err: ErrTableClosed}
	}
	// Once queued the request runs or is dropped by the loop, so its
	// outcome is the reply and not the caller's context.
	select {
	case res := <-req.reply:
		return res
	case <-t.done:
		select {
		case res := <-req.reply:
			return res
		default:
			return result{err: ErrTableClosed}
		}
	}
}

func (t *Table) run() {
	defer close(t.done)
	for {
		select {
		case req := <-t.requests:
			var res result
			if req.ctx != nil && req.ctx.Err() != nil {
				res = result{err: req.ctx.Err()}
			} else {
				res = t.handle(req)
			}
			if res.err != nil && req.kind != reqRoundEnded {
				metricRejected.Add(1)
				log.Debug().
					Err(res.err).
					Str("table_id", t.cfg.ID).
					Str("player_id", req.playerID).
					Int("seat", req.seat).
					Int64("amount", req.amount).
					Msg("table request rejected")
			}
			if req.reply != nil {
				req.reply <- res
			}
		case <-t.stop:
			log.Info().Str("table_id", t.cfg.ID).Msg("table closed")
			return
		}
	}
}

func (t *Table) handle(req request) result {
	switch req.kind {
	case reqSit:
		return result{err: t.sit(req.playerID, req.seat)}
	case reqLeave:
		return result{err: t.leave(req.playerID)}
	case reqBuyIn:
		return result{err: t.buyIn(req.ctx, req.playerID, req.amount)}
	case reqCashOut:
		return result{err: t.cashOut(req.playerID)}
	case reqDeal:
		return t.deal(req.ctx)
	case reqUpdateBalance:
		return result{err: t.updateBalance(req.round, req.playerID, req.amount)}
	case reqRoundEnded:
		t.roundEnded(req.round)
		return result{}
	default:
		return result{err: ErrTableClosed}
	}
}

func (t *Table) publish(ev Event) {
	ev.TableID = t.cfg.ID
	ev.At = time.Now()
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, fn := range t.observers {
		fn(ev)
	}
}
