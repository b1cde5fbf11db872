// Package betting implements the bet-sizing engine: it turns a true
// count, bankroll, and shoe penetration into the recommended wager for
// the next hand under a fractional-Kelly discipline, and separately
// answers the Wong-out exit question. Like the decision engine, every
// function here is pure - no clocks, no caches, no mutation.
package betting

import (
	"fmt"
	"math"

	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
)

// variance is the per-hand outcome variance used by the Kelly formula,
// empirically stable around 1.26 for standard blackjack rule sets.
const variance = 1.26

// baseHouseEdge is the player disadvantage for a 6-deck S17, DAS,
// late-surrender, 3:2 table at true count zero - the reference point
// every other rule adjustment is layered on top of.
const baseHouseEdge = 0.004

// edgeAdjustments holds the per-rule-deviation swing away from
// baseHouseEdge, in the same units (fractional edge). Combinations not
// covered here are treated as linear interpolations of these knobs,
// per the documented advantage model.
var edgeAdjustments = struct {
	hitSoft17  float64
	payout65   float64
	noDAS      float64
	noSurrender float64
}{
	hitSoft17:   0.0022,
	payout65:    0.0139,
	noDAS:       0.0014,
	noSurrender: 0.0008,
}

// Advantage computes the player's edge at the given true count under
// rules. A positive result favors the player; a non-positive result
// means the house retains the edge.
func Advantage(trueCount float64, rules strategy.GameRules) float64 {
	edge := baseHouseEdge
	if !rules.DealerStandsSoft17 {
		edge += edgeAdjustments.hitSoft17
	}
	if rules.BlackjackPayout < 1.5 {
		edge += edgeAdjustments.payout65
	}
	if !rules.DoubleAfterSplit {
		edge += edgeAdjustments.noDAS
	}
	if !rules.SurrenderAllowed {
		edge += edgeAdjustments.noSurrender
	}
	return trueCount*0.005 - edge
}

// RecommendBet returns the bet for the next hand given the current
// true count, bankroll, and shoe penetration. It applies half-Kelly
// (or whatever rules.KellyFraction specifies) sizing, clamps to the
// table limits, and overrides everything with table_min past the
// rules' deep-penetration cutoff.
func RecommendBet(trueCount, bankroll, penetration float64, rules strategy.GameRules) float64 {
	rules = rules.WithDefaults()

	if penetration > rules.MaxBettingPenetration {
		return rules.TableMin
	}

	advantage := Advantage(trueCount, rules)
	if advantage <= 0 {
		return rules.TableMin
	}

	fraction := rules.KellyFraction * advantage / variance
	bet := fraction * bankroll

	return clamp(bet, rules.TableMin, rules.TableMax)
}

func clamp(bet, min, max float64) float64 {
	if bet < min {
		return min
	}
	if bet > max {
		return max
	}
	return bet
}

// ShouldExit implements the Wong-out predicate: the count has fallen
// far enough below rules.WongOutThreshold, with at least one hand
// already dealt this shoe, that walking away from the table no longer
// costs the counted edge. It is advisory, never an error - the caller
// decides whether to act on it.
func ShouldExit(trueCount float64, handsDealtThisShoe int, rules strategy.GameRules) (bool, string) {
	rules = rules.WithDefaults()

	if handsDealtThisShoe <= 0 {
		return false, ""
	}
	if trueCount >= rules.WongOutThreshold {
		return false, ""
	}

	return true, fmt.Sprintf(
		"true count %.1f is below the wong-out threshold %.1f",
		round1(trueCount), rules.WongOutThreshold,
	)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
