// Package decision implements the deterministic basic-strategy plus
// count-deviation decision function: given a hand, the dealer's
// up-card, a count snapshot, and the table rules, it returns the
// optimal action. The engine is a pure function of its inputs - no
// clocks, no randomness, no mutation of its inputs - so repeated calls
// with identical arguments always return identical results; the one
// exception is a Prometheus counter bump when a deviation fires, an
// observability side channel that never feeds back into the decision.
package decision

import (
	"github.com/Duttonn/BlackJackAdvisor/internal/metrics"
	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// HandContext carries the turn-local facts the legality filter needs
// that aren't derivable from the Hand itself: whether this is still
// the initial two-card hand, whether it resulted from a split, and
// how many splits led to this hand.
type HandContext struct {
	InitialTwoCards bool // no HIT has happened yet this hand
	FromSplit       bool // this hand was created by splitting a pair
	SplitCount      int  // number of splits in this hand's own line of descent (the orchestrator counts per hand, not per round)
}

// Decide returns the optimal action for hand against dealerUp, given
// the current count snapshot and table rules. Same inputs always
// yield the same output.
func Decide(hand cards.Hand, dealerUp cards.Rank, count shoe.CountSnapshot, rules strategy.GameRules, table *strategy.Table) strategy.Action {
	ctx := HandContext{InitialTwoCards: len(hand.Cards) == 2}
	return DecideWithContext(hand, dealerUp, count, rules, table, ctx)
}

// DecideWithContext is Decide with explicit split/turn context, used
// by the session orchestrator which tracks that context across a
// multi-hand round.
func DecideWithContext(hand cards.Hand, dealerUp cards.Rank, count shoe.CountSnapshot, rules strategy.GameRules, table *strategy.Table, ctx HandContext) strategy.Action {
	up := dealerUp.DealerUpValue()
	category := hand.Category()

	baseline, ok := table.Baseline(category, up)
	if !ok {
		// Pair categories always have a baseline entry (Load guarantees
		// full coverage), but guard defensively against a hand-built
		// Table missing one.
		baseline, _ = table.Baseline(hand.HardOrSoftCategory(), up)
	}

	action := baseline
	for _, d := range table.Deviations() {
		if d.Category != category {
			continue
		}
		if d.DealerUp != up {
			continue
		}
		if d.fires(count.TrueCount, rules.DeviationMargin) {
			action = d.Action
			metrics.RecordDeviation(d.Name)
			break
		}
	}

	return applyLegality(action, hand, category, up, rules, table, ctx)
}

// applyLegality narrows a candidate action down to one the current
// turn actually permits, per spec §4.2 step 4: DOUBLE only on an
// initial two-card hand (and, without DAS, not after a split); SPLIT
// only on a pair not yet acted on; SURRENDER only on the initial two
// cards and only when the table allows it.
func applyLegality(action strategy.Action, hand cards.Hand, category cards.HandCategory, dealerUp int, rules strategy.GameRules, table *strategy.Table, ctx HandContext) strategy.Action {
	switch action {
	case strategy.Double:
		if !ctx.InitialTwoCards {
			return strategy.Hit
		}
		if ctx.FromSplit && !rules.DoubleAfterSplit {
			return strategy.Hit
		}
		return strategy.Double

	case strategy.Split:
		if !hand.IsPair() {
			fallback, _ := table.Baseline(hand.HardOrSoftCategory(), dealerUp)
			return fallback
		}
		if ctx.SplitCount >= maxSplits(rules) {
			fallback, _ := table.Baseline(hand.HardOrSoftCategory(), dealerUp)
			return fallback
		}
		if hand.Cards[0].Rank == cards.RankAce && ctx.FromSplit && !rules.ResplitAcesAllowed {
			fallback, _ := table.Baseline(hand.HardOrSoftCategory(), dealerUp)
			return fallback
		}
		return strategy.Split

	case strategy.Surrender:
		if !ctx.InitialTwoCards || !rules.SurrenderAllowed {
			return strategy.Hit
		}
		return strategy.Surrender

	default:
		return action
	}
}

func maxSplits(rules strategy.GameRules) int {
	if rules.MaxSplitHands <= 0 {
		return 1
	}
	return rules.MaxSplitHands
}

// ShouldTakeInsurance answers the separate pre-action insurance query:
// whether the count justifies taking insurance against a dealer ace.
// It is deliberately independent of the Illustrious 18/Fab 4 list so
// insurance handling never entangles with hand-action deviations.
func ShouldTakeInsurance(count shoe.CountSnapshot, rules strategy.GameRules) bool {
	return count.TrueCount-rules.DeviationMargin >= strategy.InsuranceThreshold
}
