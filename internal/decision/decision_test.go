package decision

import (
	"testing"

	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

func mustLoadTable(t *testing.T) *strategy.Table {
	t.Helper()
	table, err := strategy.Load()
	if err != nil {
		t.Fatalf("strategy.Load() returned error: %v", err)
	}
	return table
}

// Scenario 1: basic-strategy lookup with no count influence.
func TestBasicStrategyNoDeviation(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	hand := cards.NewHand(cards.NewCard(cards.RankTen, cards.SuitHearts), cards.NewCard(cards.Rank6, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 0}

	got := Decide(hand, cards.Rank7, count, rules, table)
	if got != strategy.Hit {
		t.Errorf("HARD16 vs 7 @ TC0 = %v, want Hit", got)
	}
}

// Scenario 2: Illustrious-18 entry overrides the baseline.
func TestIllustrious18Fires(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	hand := cards.NewHand(cards.NewCard(cards.RankTen, cards.SuitHearts), cards.NewCard(cards.Rank6, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 0}

	got := Decide(hand, cards.RankTen, count, rules, table)
	if got != strategy.Stand {
		t.Errorf("HARD16 vs 10 @ TC0 = %v, want Stand (Illustrious 18)", got)
	}
}

// Scenario 3: Fab-4 surrender fires when allowed.
func TestFab4SurrenderFires(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	rules.SurrenderAllowed = true
	hand := cards.NewHand(cards.NewCard(cards.Rank9, cards.SuitHearts), cards.NewCard(cards.Rank6, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 0}

	got := Decide(hand, cards.RankTen, count, rules, table)
	if got != strategy.Surrender {
		t.Errorf("HARD15 vs 10 @ TC0 surrender_allowed=true = %v, want Surrender", got)
	}
}

// Scenario 4: Fab-4 falls back to baseline when surrender disallowed.
func TestFab4FallsBackWhenSurrenderDisallowed(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	rules.SurrenderAllowed = false
	hand := cards.NewHand(cards.NewCard(cards.Rank9, cards.SuitHearts), cards.NewCard(cards.Rank6, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 0}

	got := Decide(hand, cards.RankTen, count, rules, table)
	if got != strategy.Hit {
		t.Errorf("HARD15 vs 10 @ TC0 surrender_allowed=false = %v, want Hit", got)
	}
}

func TestHighTrueCountStandsInsteadOfSurrendering(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	rules.SurrenderAllowed = true
	hand := cards.NewHand(cards.NewCard(cards.Rank9, cards.SuitHearts), cards.NewCard(cards.Rank6, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 4}

	got := Decide(hand, cards.RankTen, count, rules, table)
	if got != strategy.Stand {
		t.Errorf("HARD15 vs 10 @ TC4 = %v, want Stand (supersedes surrender)", got)
	}
}

func TestDoubleIsIllegalAfterFirstHit(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	hand := cards.NewHand(
		cards.NewCard(cards.Rank6, cards.SuitHearts),
		cards.NewCard(cards.Rank5, cards.SuitDiamonds),
		cards.NewCard(cards.Rank2, cards.SuitClubs),
	) // HARD13, three cards: baseline double-eligible total (11) avoided on purpose
	hand = cards.NewHand(
		cards.NewCard(cards.Rank4, cards.SuitHearts),
		cards.NewCard(cards.Rank5, cards.SuitDiamonds),
		cards.NewCard(cards.Rank2, cards.SuitClubs),
	) // HARD11 but three cards -> not the initial two-card hand
	count := shoe.CountSnapshot{TrueCount: 0}

	got := DecideWithContext(hand, cards.Rank6, count, rules, table, HandContext{InitialTwoCards: false})
	if got != strategy.Hit {
		t.Errorf("HARD11 (3 cards) vs 6 = %v, want Hit (double illegal after a hit)", got)
	}
}

func TestSplitIllegalWithoutAPair(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	hand := cards.NewHand(cards.NewCard(cards.RankKing, cards.SuitHearts), cards.NewCard(cards.RankTen, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 0}

	got := Decide(hand, cards.Rank6, count, rules, table)
	if got == strategy.Split {
		t.Error("K-T must never be split")
	}
}

func TestInsuranceQuery(t *testing.T) {
	rules := strategy.DefaultGameRules()
	below := shoe.CountSnapshot{TrueCount: 2.9}
	atThreshold := shoe.CountSnapshot{TrueCount: 3.0}

	if ShouldTakeInsurance(below, rules) {
		t.Error("should not recommend insurance below threshold")
	}
	if !ShouldTakeInsurance(atThreshold, rules) {
		t.Error("should recommend insurance at threshold")
	}
}

func TestDecisionEngineIsPure(t *testing.T) {
	table := mustLoadTable(t)
	rules := strategy.DefaultGameRules()
	hand := cards.NewHand(cards.NewCard(cards.RankTen, cards.SuitHearts), cards.NewCard(cards.Rank6, cards.SuitDiamonds))
	count := shoe.CountSnapshot{TrueCount: 1.5}

	first := Decide(hand, cards.RankTen, count, rules, table)
	second := Decide(hand, cards.RankTen, count, rules, table)
	if first != second {
		t.Errorf("Decide is not deterministic: %v != %v", first, second)
	}
	if len(hand.Cards) != 2 {
		t.Error("Decide must not mutate its hand argument")
	}
}
