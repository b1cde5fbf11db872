package orchestrator

import (
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// playHand is one of the (possibly several, after a split) hands a
// player is working through this round. It carries the turn-local
// context the decision engine's legality filter needs in addition to
// the cards themselves.
type playHand struct {
	hand        cards.Hand
	wager       float64
	stood       bool
	busted      bool
	surrendered bool
	doubled     bool
	fromSplit   bool
	splitCount  int
	acesOnly    bool // split from aces: HIT/DOUBLE illegal regardless of DAS
	outcome     *strategy.Outcome
}

// resolved reports whether this hand no longer needs player input:
// it stood, busted, surrendered, or doubled (which forces a stand).
func (h *playHand) resolved() bool {
	return h.stood || h.busted || h.surrendered || h.doubled
}

// settle assigns this hand's outcome once the dealer's final total is
// known. It does not touch bankroll; the caller applies netWinnings.
func (h *playHand) settle(dealerTotal int, dealerBlackjack bool) {
	var o strategy.Outcome
	switch {
	case h.surrendered:
		o = strategy.OutcomeSurrender
	case h.busted:
		o = strategy.OutcomeBust
	case h.hand.IsBlackjack() && !dealerBlackjack:
		o = strategy.OutcomeBlackjack
	case h.hand.IsBlackjack() && dealerBlackjack:
		o = strategy.OutcomePush
	case dealerTotal > 21:
		o = strategy.OutcomeWin
	case h.hand.Total() > dealerTotal:
		o = strategy.OutcomeWin
	case h.hand.Total() < dealerTotal:
		o = strategy.OutcomeLoss
	default:
		o = strategy.OutcomePush
	}
	h.outcome = &o
}

// netWinnings returns the bankroll delta this settled hand produces.
func (h *playHand) netWinnings(blackjackPayout float64) float64 {
	if h.outcome == nil {
		return 0
	}
	switch *h.outcome {
	case strategy.OutcomeWin:
		return h.wager
	case strategy.OutcomeLoss:
		return -h.wager
	case strategy.OutcomeBust:
		return -h.wager
	case strategy.OutcomeBlackjack:
		return h.wager * blackjackPayout
	case strategy.OutcomeSurrender:
		return -h.wager / 2
	default: // push
		return 0
	}
}
