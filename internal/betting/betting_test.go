package betting

import (
	"testing"

	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
)

func TestNegativeAdvantageReturnsTableMin(t *testing.T) {
	rules := strategy.DefaultGameRules()
	bet := RecommendBet(-3, 10000, 0.2, rules)
	if bet != rules.TableMin {
		t.Errorf("bet = %v, want table_min %v", bet, rules.TableMin)
	}
}

func TestDeepPenetrationForcesTableMin(t *testing.T) {
	rules := strategy.DefaultGameRules()
	bet := RecommendBet(8, 10000, 0.9, rules)
	if bet != rules.TableMin {
		t.Errorf("bet at 90%% penetration = %v, want table_min %v", bet, rules.TableMin)
	}
}

func TestDefensiveCutoffAtExactPenetrationBoundary(t *testing.T) {
	rules := strategy.DefaultGameRules()
	justUnder := RecommendBet(8, 10000, 0.85, rules)
	justOver := RecommendBet(8, 10000, 0.8501, rules)
	if justOver != rules.TableMin {
		t.Errorf("bet just over cutoff = %v, want table_min", justOver)
	}
	if justUnder == rules.TableMin && Advantage(8, rules) > 0 {
		t.Error("bet exactly at the cutoff boundary should still use the Kelly formula, not table_min")
	}
}

func TestBetIsAlwaysWithinTableLimits(t *testing.T) {
	rules := strategy.DefaultGameRules()
	for _, tc := range []float64{-5, -1, 0, 1, 5, 10, 20} {
		bet := RecommendBet(tc, 1_000_000, 0.3, rules)
		if bet < rules.TableMin || bet > rules.TableMax {
			t.Errorf("TC=%v bet=%v outside [%v, %v]", tc, bet, rules.TableMin, rules.TableMax)
		}
	}
}

func TestHighTrueCountIncreasesBet(t *testing.T) {
	rules := strategy.DefaultGameRules()
	low := RecommendBet(2, 5000, 0.3, rules)
	high := RecommendBet(10, 5000, 0.3, rules)
	if high < low {
		t.Errorf("bet at TC10 (%v) should be >= bet at TC2 (%v)", high, low)
	}
}

func TestRuleEdgeAdjustmentsWidenHouseEdge(t *testing.T) {
	base := strategy.DefaultGameRules()
	h17 := base
	h17.DealerStandsSoft17 = false

	if Advantage(5, h17) >= Advantage(5, base) {
		t.Error("H17 should reduce player advantage relative to S17")
	}

	sixFive := base
	sixFive.BlackjackPayout = 1.2
	if Advantage(5, sixFive) >= Advantage(5, base) {
		t.Error("6:5 payout should reduce player advantage relative to 3:2")
	}

	noDAS := base
	noDAS.DoubleAfterSplit = false
	if Advantage(5, noDAS) >= Advantage(5, base) {
		t.Error("no-DAS should reduce player advantage relative to DAS")
	}

	noSurrender := base
	noSurrender.SurrenderAllowed = false
	if Advantage(5, noSurrender) >= Advantage(5, base) {
		t.Error("no-surrender should reduce player advantage relative to surrender-allowed")
	}
}

func TestShouldExitRequiresAtLeastOneHandDealt(t *testing.T) {
	rules := strategy.DefaultGameRules()
	exit, _ := ShouldExit(-5, 0, rules)
	if exit {
		t.Error("should not signal exit before any hand has been dealt this shoe")
	}
}

func TestShouldExitFiresBelowThreshold(t *testing.T) {
	rules := strategy.DefaultGameRules()
	exit, reason := ShouldExit(-1.6, 3, rules)
	if !exit {
		t.Fatal("expected exit signal at TC -1.6 with threshold -1.0")
	}
	if reason == "" {
		t.Error("expected a human-readable reason")
	}
}

func TestShouldExitDoesNotFireAboveThreshold(t *testing.T) {
	rules := strategy.DefaultGameRules()
	exit, _ := ShouldExit(-0.5, 3, rules)
	if exit {
		t.Error("should not signal exit when true count is above the wong-out threshold")
	}
}
