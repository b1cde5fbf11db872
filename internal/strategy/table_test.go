package strategy

import (
	"testing"

	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

func TestLoadProducesFullCoverage(t *testing.T) {
	table, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	for total := hardTotalMin; total <= hardTotalMax; total++ {
		for _, up := range dealerUpValues {
			if _, ok := table.Baseline(cards.HardCategory(total), up); !ok {
				t.Errorf("missing baseline entry for HARD(%d) vs %d", total, up)
			}
		}
	}
	for total := softTotalMin; total <= softTotalMax; total++ {
		for _, up := range dealerUpValues {
			if _, ok := table.Baseline(cards.SoftCategory(total), up); !ok {
				t.Errorf("missing baseline entry for SOFT(%d) vs %d", total, up)
			}
		}
	}
	for _, rank := range pairRanks {
		for _, up := range dealerUpValues {
			if _, ok := table.Baseline(cards.PairCategory(rank), up); !ok {
				t.Errorf("missing baseline entry for PAIR(%v) vs %d", rank, up)
			}
		}
	}
}

func TestHard16Vs10IsHitAtBaseline(t *testing.T) {
	table, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	action, ok := table.Baseline(cards.HardCategory(16), 10)
	if !ok || action != Hit {
		t.Errorf("baseline HARD(16) vs 10 = %v, want Hit", action)
	}
}

func TestDeviationsAllReferenceCoveredPairs(t *testing.T) {
	table, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range table.Deviations() {
		if _, ok := table.Baseline(d.Category, d.DealerUp); !ok {
			t.Errorf("deviation %q references an uncovered baseline pair", d.Name)
		}
	}
}

func TestDeviationFiresAtExactThreshold(t *testing.T) {
	d := Deviation{Threshold: 0, Direction: AtLeast}
	if !d.fires(0, 0) {
		t.Error("AtLeast deviation should fire at exact threshold with zero margin")
	}
	if d.fires(-0.1, 0) {
		t.Error("AtLeast deviation should not fire below threshold")
	}
}
