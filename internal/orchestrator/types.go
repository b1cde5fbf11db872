package orchestrator

import (
	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// Mode selects whether a session drives its own virtual shoe (Auto)
// or only ever relays caller-observed cards (Shadow). The data model
// names these AUTO and MANUAL.
type Mode string

const (
	Auto   Mode = "AUTO"
	Shadow Mode = "MANUAL"
)

// State is the session's position in its hand life-cycle.
type State string

const (
	Idle        State = "IDLE"
	PlayerTurn  State = "PLAYER_TURN"
	DealerTurn  State = "DEALER_TURN"
	Settled     State = "SETTLED"
)

// StartSessionRequest is the input to Manager.StartSession.
type StartSessionRequest struct {
	Mode     Mode
	Bankroll float64
	Rules    *strategy.GameRules // nil means DefaultGameRules()
	Seed     []byte              // nil means an internally generated seed
}

// SessionView is the read-only projection returned by session_status
// and embedded in start_session's response.
type SessionView struct {
	ID          string
	Mode        Mode
	State       State
	Bankroll    float64
	HandsPlayed int
	Count       shoe.CountSnapshot
}

// DealResult is the response to the auto-mode deal operation.
type DealResult struct {
	PlayerCards    []cards.Card
	PlayerTotal    int
	DealerUp       cards.Card
	IsBlackjack    bool
	CountSnapshot  shoe.CountSnapshot
	RecommendedBet float64
}

// ActionResult is the response to the auto-mode action operation.
type ActionResult struct {
	ActionTaken   strategy.Action
	CorrectAction strategy.Action
	IsCorrect     bool
	NewCard       *cards.Card
	NewTotal      *int
	Outcome       *strategy.Outcome
	DealerTotal   *int
	ShouldExit    bool
	ExitReason    string
	CountSnapshot shoe.CountSnapshot
}

// ObserveResult is the response to the shadow-mode observe operation.
type ObserveResult struct {
	CountSnapshot  shoe.CountSnapshot
	RecommendedBet float64
}

// QueryDecisionResult is the response to the shadow-mode
// query_decision operation.
type QueryDecisionResult struct {
	RecommendedAction strategy.Action
	CountSnapshot     shoe.CountSnapshot
	RecommendedBet    float64
	ShouldExit        bool
	ExitReason        string
}

// SessionStats accumulates per-session outcome and action-correctness
// counters. session_status reports HandsPlayed from it; the outcome
// counters and net winnings are exported to the session-stats sink
// when the session ends.
type SessionStats struct {
	HandsPlayed       int
	Wins              int
	Losses            int
	Pushes            int
	Blackjacks        int
	Busts             int
	Surrenders        int
	CorrectActions    int
	IncorrectActions  int
	NetWinnings       float64
}
