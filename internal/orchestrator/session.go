package orchestrator

import (
	"context"
	"time"

	"github.com/Duttonn/BlackJackAdvisor/internal/betting"
	"github.com/Duttonn/BlackJackAdvisor/internal/decision"
	"github.com/Duttonn/BlackJackAdvisor/internal/metrics"
	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/internal/telemetry"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// minCardsForDeal is the smallest shoe remainder a deal will draw
// from without the caller first invoking shuffle.
const minCardsForDeal = 4

// Session is a single player's actor: one goroutine owns all mutation
// of its state, so every operation on a session is linearised without
// an explicit lock, mirroring a per-table game-loop actor. Operations
// arrive on ops and are run to completion, one at a time, in the order
// they were submitted.
type Session struct {
	id    string
	mode  Mode
	rules strategy.GameRules
	table *strategy.Table

	bankroll float64
	shoe     *shoe.Shoe
	rng      *shoe.RNG
	deck     []cards.Card
	deckPos  int

	state              State
	hands              []*playHand
	activeHandIndex    int
	dealerHand         cards.Hand
	dealerHoleDrawn    bool
	handsDealtThisShoe int
	currentBet         float64
	stats              SessionStats

	handSink    telemetry.HandEventSink
	statsSink   telemetry.SessionStatsSink

	ops    chan func()
	closed chan struct{}
}

func newSession(id string, mode Mode, rules strategy.GameRules, table *strategy.Table, bankroll float64, rng *shoe.RNG, handSink telemetry.HandEventSink, statsSink telemetry.SessionStatsSink) *Session {
	s := &Session{
		id:        id,
		mode:      mode,
		rules:     rules,
		table:     table,
		bankroll:  bankroll,
		shoe:      shoe.New(rules.NumDecks),
		rng:       rng,
		state:     Idle,
		handSink:  handSink,
		statsSink: statsSink,
		ops:       make(chan func(), 8),
		closed:    make(chan struct{}),
	}
	if mode == Auto {
		s.reshuffleDeck()
	}
	metrics.ActiveSessions.Inc()
	go s.run()
	return s
}

// reshuffleDeck rebuilds the auto-mode virtual deck from a fresh
// shuffle, independent of the Hi-Lo shoe's own running-count reset.
// Only auto-mode sessions draw from a virtual deck; shadow-mode
// sessions only ever observe caller-supplied cards.
func (s *Session) reshuffleDeck() {
	s.deck = s.rng.FreshDeck(s.rules.NumDecks)
	s.deckPos = 0
}

func (s *Session) run() {
	for {
		select {
		case fn := <-s.ops:
			fn()
		case <-s.closed:
			return
		}
	}
}

// submit runs fn on the session's actor goroutine and waits for it to
// complete, returning a SESSION_GONE EngineError if the session has
// already been torn down.
func (s *Session) submit(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case s.ops <- wrapped:
	case <-s.closed:
		return newError(SessionGone, "session %s no longer exists", s.id)
	}
	select {
	case <-done:
		return nil
	case <-s.closed:
		return newError(SessionGone, "session %s no longer exists", s.id)
	}
}

// stop tears down the session's actor goroutine. Safe to call once;
// the Manager guarantees it is invoked at most once per session.
func (s *Session) stop() {
	s.dispatchSessionStats()
	metrics.ActiveSessions.Dec()
	close(s.closed)
}

// dispatchSessionStats fires a detached telemetry dispatch of the
// session's final rollup. It runs off the caller's goroutine so
// end_session never blocks on a slow or unreachable sink.
func (s *Session) dispatchSessionStats() {
	if s.statsSink == nil {
		return
	}
	event := telemetry.SessionStatsEvent{
		SessionID:   s.id,
		Mode:        string(s.mode),
		HandsPlayed: s.stats.HandsPlayed,
		Wins:        s.stats.Wins,
		Losses:      s.stats.Losses,
		Pushes:      s.stats.Pushes,
		Blackjacks:  s.stats.Blackjacks,
		Busts:       s.stats.Busts,
		Surrenders:  s.stats.Surrenders,
		Bankroll:    s.bankroll,
		NetWinnings: s.stats.NetWinnings,
		Timestamp:   sessionStatsTimestamp(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.statsSink.RecordSessionStats(ctx, event)
	}()
}

// sessionStatsTimestamp isolates the only wall-clock read in the
// orchestrator so telemetry dispatch remains the sole caller of
// time.Now - every other component stays a pure function of its
// explicit inputs.
func sessionStatsTimestamp() time.Time {
	return time.Now()
}

func (s *Session) view() SessionView {
	return SessionView{
		ID:          s.id,
		Mode:        s.mode,
		State:       s.state,
		Bankroll:    s.bankroll,
		HandsPlayed: s.stats.HandsPlayed,
		Count:       s.shoe.Snapshot(),
	}
}

func (s *Session) doShuffle() shoe.CountSnapshot {
	s.shoe.Shuffle()
	s.handsDealtThisShoe = 0
	if s.mode == Auto {
		s.reshuffleDeck()
	}
	metrics.ShufflesTotal.Inc()
	return s.shoe.Snapshot()
}

func (s *Session) activeHand() *playHand {
	if s.activeHandIndex < 0 || s.activeHandIndex >= len(s.hands) {
		return nil
	}
	return s.hands[s.activeHandIndex]
}

// draw pulls the next card from the virtual deck and observes it into
// the Hi-Lo shoe in one step - only meaningful in auto mode, where the
// session owns both its RNG-shuffled deck and its running count. It
// reshuffles transparently if the virtual deck itself runs dry before
// the Hi-Lo shoe reports exhaustion (they are reset together, so this
// is a defensive fallback rather than the expected path).
func (s *Session) draw() (cards.Card, error) {
	if s.deckPos >= len(s.deck) {
		s.reshuffleDeck()
	}
	c := s.deck[s.deckPos]
	s.deckPos++
	if err := s.shoe.Observe(c); err != nil {
		s.deckPos--
		return cards.Card{}, newError(ShoeExhausted, "shoe exhausted: %v", err)
	}
	return c, nil
}

// exitSignal re-evaluates the Wong-out predicate against the current
// count and hands-dealt-this-shoe counter.
func (s *Session) exitSignal() (bool, string) {
	snap := s.shoe.Snapshot()
	return betting.ShouldExit(snap.TrueCount, s.handsDealtThisShoe, s.rules)
}

func (s *Session) recommendedBet() float64 {
	snap := s.shoe.Snapshot()
	return betting.RecommendBet(snap.TrueCount, s.bankroll, snap.Penetration, s.rules)
}

// decisionFor consults the decision engine for hand against the
// dealer's visible up-card under this session's current count.
func (s *Session) decisionFor(hand cards.Hand, dealerUp cards.Rank, ctx decision.HandContext) strategy.Action {
	return decision.DecideWithContext(hand, dealerUp, s.shoe.Snapshot(), s.rules, s.table, ctx)
}
