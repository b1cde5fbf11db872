// Package orchestrator binds the stateful shoe, the decision engine,
// and the bet-sizing engine into the per-session operations an
// external caller invokes: start_session, end_session, session_status,
// shuffle, deal, action, observe, and query_decision. Each session is
// an independent actor; the Manager only tracks which sessions exist.
package orchestrator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/internal/telemetry"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// Manager owns the set of live sessions. It holds no game logic of its
// own; every operation beyond start/end/status is delegated straight
// to the addressed Session.
type Manager struct {
	table     *strategy.Table
	handSink  telemetry.HandEventSink
	statsSink telemetry.SessionStatsSink

	mu   sync.RWMutex
	byID map[string]*Session
}

// NewManager constructs a Manager sharing the given immutable strategy
// table across every session it creates. Telemetry sinks default to
// NopSink and can be overridden with WithHandSink/WithStatsSink.
func NewManager(table *strategy.Table) *Manager {
	return &Manager{
		table:     table,
		handSink:  telemetry.NopSink{},
		statsSink: telemetry.NopSink{},
		byID:      make(map[string]*Session),
	}
}

// WithHandSink overrides the per-hand telemetry sink every subsequently
// started session will dispatch settled hands to.
func (m *Manager) WithHandSink(sink telemetry.HandEventSink) *Manager {
	m.handSink = sink
	return m
}

// WithStatsSink overrides the session-rollup telemetry sink every
// subsequently started session will dispatch its teardown stats to.
func (m *Manager) WithStatsSink(sink telemetry.SessionStatsSink) *Manager {
	m.statsSink = sink
	return m
}

// StartSession creates a new session and returns its initial view.
func (m *Manager) StartSession(req StartSessionRequest) (SessionView, *EngineError) {
	if req.Mode != Auto && req.Mode != Shadow {
		return SessionView{}, newError(BadInput, "mode must be AUTO or MANUAL, got %q", req.Mode)
	}
	if req.Bankroll < 0 {
		return SessionView{}, newError(BadInput, "bankroll must be non-negative")
	}

	rules := strategy.DefaultGameRules()
	if req.Rules != nil {
		rules = req.Rules.WithDefaults()
	}
	if err := validateRules(rules); err != nil {
		return SessionView{}, err
	}

	var rng *shoe.RNG
	var err error
	if len(req.Seed) > 0 {
		rng, err = shoe.NewRNGWithSeed(req.Seed)
	} else {
		rng, err = shoe.NewRNG()
	}
	if err != nil {
		return SessionView{}, newError(BadInput, "failed to seed session rng: %v", err)
	}

	id := uuid.NewString()
	session := newSession(id, req.Mode, rules, m.table, req.Bankroll, rng, m.handSink, m.statsSink)

	m.mu.Lock()
	m.byID[id] = session
	m.mu.Unlock()

	return session.view(), nil
}

// validateRules rejects nonsensical numeric inputs a caller might
// supply at start_session time: deck count, penetration, and table
// limits. Strategy-table coverage is checked by strategy.Load, not here.
func validateRules(rules strategy.GameRules) *EngineError {
	validDecks := map[int]bool{1: true, 2: true, 4: true, 6: true, 8: true}
	if !validDecks[rules.NumDecks] {
		return newError(BadRules, "num_decks must be one of {1,2,4,6,8}, got %d", rules.NumDecks)
	}
	if rules.Penetration <= 0 || rules.Penetration >= 1 {
		return newError(BadRules, "penetration must be in (0,1), got %f", rules.Penetration)
	}
	if rules.TableMin <= 0 || rules.TableMax < rules.TableMin {
		return newError(BadRules, "table_min/table_max must satisfy 0 < table_min <= table_max")
	}
	return nil
}

func (m *Manager) lookup(sessionID string) (*Session, *EngineError) {
	m.mu.RLock()
	s, ok := m.byID[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, newError(SessionGone, "no session with id %s", sessionID)
	}
	return s, nil
}

// EndSession tears down a session's actor goroutine and forgets it.
func (m *Manager) EndSession(sessionID string) *EngineError {
	m.mu.Lock()
	s, ok := m.byID[sessionID]
	if ok {
		delete(m.byID, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return newError(SessionGone, "no session with id %s", sessionID)
	}
	s.stop()
	return nil
}

// SessionStatus runs session_status.
func (m *Manager) SessionStatus(sessionID string) (SessionView, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.Status()
}

// Shuffle runs shuffle.
func (m *Manager) Shuffle(sessionID string) (shoe.CountSnapshot, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return shoe.CountSnapshot{}, err
	}
	return s.Shuffle()
}

// Deal runs the auto-mode deal operation.
func (m *Manager) Deal(sessionID string) (DealResult, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return DealResult{}, err
	}
	return s.Deal()
}

// Action runs the auto-mode action operation.
func (m *Manager) Action(sessionID string, act strategy.Action) (ActionResult, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return ActionResult{}, err
	}
	return s.Action(act)
}

// Observe runs the shadow-mode observe operation.
func (m *Manager) Observe(sessionID string, observed []cards.Card) (ObserveResult, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return ObserveResult{}, err
	}
	return s.Observe(observed)
}

// QueryDecision runs the shadow-mode query_decision operation.
func (m *Manager) QueryDecision(sessionID string, playerCards []cards.Card, dealerUp cards.Rank) (QueryDecisionResult, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return QueryDecisionResult{}, err
	}
	return s.QueryDecision(playerCards, dealerUp)
}

// QueryBet runs query_bet.
func (m *Manager) QueryBet(sessionID string) (float64, *EngineError) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return 0, err
	}
	return s.QueryBet()
}
