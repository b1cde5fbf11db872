// Package server binds the session orchestrator to an HTTP/WebSocket
// transport: a thin REST surface over the §6 operation table plus a
// per-session streaming feed of settled-hand events. None of the
// domain logic lives here - every handler is a JSON marshal/unmarshal
// wrapper around an orchestrator.Manager call.
package server

import (
	"fmt"

	"github.com/Duttonn/BlackJackAdvisor/internal/orchestrator"
	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// rulesDTO is the wire representation of GameRules; omitted numeric
// fields take GameRules.WithDefaults()'s documented defaults. The four
// boolean rules use *bool so an omitted field (nil) can be told apart
// from an explicit `false` - a plain bool can't carry that distinction,
// and JSON has no false-vs-absent marker of its own, so the pointer is
// the only place this ambiguity can be resolved before it reaches the
// domain's GameRules value.
type rulesDTO struct {
	NumDecks              int     `json:"num_decks"`
	DealerStandsSoft17    *bool   `json:"dealer_stands_soft_17"`
	DoubleAfterSplit      *bool   `json:"double_after_split"`
	SurrenderAllowed      *bool   `json:"surrender_allowed"`
	BlackjackPayout       float64 `json:"blackjack_payout"`
	Penetration           float64 `json:"penetration"`
	MaxSplitHands         int     `json:"max_split_hands"`
	ResplitAcesAllowed    *bool   `json:"resplit_aces_allowed"`
	TableMin              float64 `json:"table_min"`
	TableMax              float64 `json:"table_max"`
	KellyFraction         float64 `json:"kelly_fraction"`
	DeviationMargin       float64 `json:"deviation_threshold_margin"`
	MaxBettingPenetration float64 `json:"max_betting_penetration"`
	WongOutThreshold      float64 `json:"wong_out_threshold"`
}

func (d rulesDTO) toRules() strategy.GameRules {
	def := strategy.DefaultGameRules()
	return strategy.GameRules{
		NumDecks:              d.NumDecks,
		DealerStandsSoft17:    boolOrDefault(d.DealerStandsSoft17, def.DealerStandsSoft17),
		DoubleAfterSplit:      boolOrDefault(d.DoubleAfterSplit, def.DoubleAfterSplit),
		SurrenderAllowed:      boolOrDefault(d.SurrenderAllowed, def.SurrenderAllowed),
		BlackjackPayout:       d.BlackjackPayout,
		Penetration:           d.Penetration,
		MaxSplitHands:         d.MaxSplitHands,
		ResplitAcesAllowed:    boolOrDefault(d.ResplitAcesAllowed, def.ResplitAcesAllowed),
		TableMin:              d.TableMin,
		TableMax:              d.TableMax,
		KellyFraction:         d.KellyFraction,
		DeviationMargin:       d.DeviationMargin,
		MaxBettingPenetration: d.MaxBettingPenetration,
		WongOutThreshold:      d.WongOutThreshold,
	}
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

type startSessionRequestDTO struct {
	Mode     string    `json:"mode" binding:"required"`
	Bankroll float64   `json:"bankroll"`
	Rules    *rulesDTO `json:"rules"`
	Seed     string    `json:"seed"`
}

type countSnapshotDTO struct {
	RunningCount   int     `json:"running_count"`
	TrueCount      float64 `json:"true_count"`
	DecksRemaining float64 `json:"decks_remaining"`
	Penetration    float64 `json:"penetration"`
	CardsDealt     int     `json:"cards_dealt"`
}

func snapshotDTO(s shoe.CountSnapshot) countSnapshotDTO {
	return countSnapshotDTO{
		RunningCount:   s.RunningCount,
		TrueCount:      s.TrueCount,
		DecksRemaining: s.DecksRemaining,
		Penetration:    s.Penetration,
		CardsDealt:     s.CardsDealt,
	}
}

type sessionViewDTO struct {
	SessionID   string           `json:"session_id"`
	Mode        string           `json:"mode"`
	State       string           `json:"state,omitempty"`
	Status      string           `json:"status,omitempty"`
	Bankroll    float64          `json:"bankroll"`
	HandsPlayed int              `json:"hands_played"`
	Count       countSnapshotDTO `json:"count_snapshot"`
}

func viewDTO(v orchestrator.SessionView) sessionViewDTO {
	return sessionViewDTO{
		SessionID:   v.ID,
		Mode:        string(v.Mode),
		State:       string(v.State),
		Status:      string(v.State),
		Bankroll:    v.Bankroll,
		HandsPlayed: v.HandsPlayed,
		Count:       snapshotDTO(v.Count),
	}
}

func cardDTO(c cards.Card) string { return c.String() }

func cardsDTO(cs []cards.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = cardDTO(c)
	}
	return out
}

func parseCards(tokens []string) ([]cards.Card, error) {
	out := make([]cards.Card, len(tokens))
	for i, tok := range tokens {
		c, err := cards.ParseCard(tok)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func parseRank(token string) (cards.Rank, error) {
	c, err := cards.ParseCard(token + "s")
	if err != nil {
		return 0, fmt.Errorf("dealer_up %q: %w", token, err)
	}
	return c.Rank, nil
}

func parseAction(name string) (strategy.Action, error) {
	switch name {
	case "hit":
		return strategy.Hit, nil
	case "stand":
		return strategy.Stand, nil
	case "double":
		return strategy.Double, nil
	case "split":
		return strategy.Split, nil
	case "surrender":
		return strategy.Surrender, nil
	default:
		return 0, fmt.Errorf("unknown action %q", name)
	}
}

type dealResultDTO struct {
	PlayerCards    []string         `json:"player_cards"`
	PlayerTotal    int              `json:"player_total"`
	DealerUp       string           `json:"dealer_up"`
	IsBlackjack    bool             `json:"is_blackjack"`
	CountSnapshot  countSnapshotDTO `json:"count_snapshot"`
	RecommendedBet float64          `json:"recommended_bet"`
}

func dealDTO(r orchestrator.DealResult) dealResultDTO {
	return dealResultDTO{
		PlayerCards:    cardsDTO(r.PlayerCards),
		PlayerTotal:    r.PlayerTotal,
		DealerUp:       cardDTO(r.DealerUp),
		IsBlackjack:    r.IsBlackjack,
		CountSnapshot:  snapshotDTO(r.CountSnapshot),
		RecommendedBet: r.RecommendedBet,
	}
}

type actionResultDTO struct {
	ActionTaken   string           `json:"action_taken"`
	CorrectAction string           `json:"correct_action"`
	IsCorrect     bool             `json:"is_correct"`
	NewCard       *string          `json:"new_card,omitempty"`
	NewTotal      *int             `json:"new_total,omitempty"`
	Outcome       *string          `json:"outcome,omitempty"`
	DealerTotal   *int             `json:"dealer_total,omitempty"`
	ShouldExit    bool             `json:"should_exit"`
	ExitReason    string           `json:"exit_reason,omitempty"`
	CountSnapshot countSnapshotDTO `json:"count_snapshot"`
}

func actionDTO(r orchestrator.ActionResult) actionResultDTO {
	out := actionResultDTO{
		ActionTaken:   r.ActionTaken.String(),
		CorrectAction: r.CorrectAction.String(),
		IsCorrect:     r.IsCorrect,
		NewTotal:      r.NewTotal,
		DealerTotal:   r.DealerTotal,
		ShouldExit:    r.ShouldExit,
		ExitReason:    r.ExitReason,
		CountSnapshot: snapshotDTO(r.CountSnapshot),
	}
	if r.NewCard != nil {
		s := cardDTO(*r.NewCard)
		out.NewCard = &s
	}
	if r.Outcome != nil {
		s := r.Outcome.String()
		out.Outcome = &s
	}
	return out
}

type observeResultDTO struct {
	CountSnapshot  countSnapshotDTO `json:"count_snapshot"`
	RecommendedBet float64          `json:"recommended_bet"`
}

func observeDTO(r orchestrator.ObserveResult) observeResultDTO {
	return observeResultDTO{CountSnapshot: snapshotDTO(r.CountSnapshot), RecommendedBet: r.RecommendedBet}
}

type queryDecisionResultDTO struct {
	RecommendedAction string           `json:"recommended_action"`
	CountSnapshot     countSnapshotDTO `json:"count_snapshot"`
	RecommendedBet    float64          `json:"recommended_bet"`
	ShouldExit        bool             `json:"should_exit"`
	ExitReason        string           `json:"exit_reason,omitempty"`
}

func queryDecisionDTO(r orchestrator.QueryDecisionResult) queryDecisionResultDTO {
	return queryDecisionResultDTO{
		RecommendedAction: r.RecommendedAction.String(),
		CountSnapshot:     snapshotDTO(r.CountSnapshot),
		RecommendedBet:    r.RecommendedBet,
		ShouldExit:        r.ShouldExit,
		ExitReason:        r.ExitReason,
	}
}

type errorResponseDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorDTO(err *orchestrator.EngineError) errorResponseDTO {
	return errorResponseDTO{Code: string(err.Code), Message: err.Message}
}

// httpStatusFor maps the §7 error taxonomy onto conventional HTTP
// status codes for the REST surface; the structured code in the body
// remains the source of truth a caller should switch on.
func httpStatusFor(code orchestrator.Code) int {
	switch code {
	case orchestrator.BadInput, orchestrator.BadCard, orchestrator.BadRules, orchestrator.IllegalAction:
		return 400
	case orchestrator.SessionGone:
		return 404
	case orchestrator.WrongMode, orchestrator.WrongState:
		return 409
	case orchestrator.ShoeExhausted:
		return 409
	case orchestrator.SessionBusy:
		return 429
	default:
		return 500
	}
}
