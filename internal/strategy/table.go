package strategy

import (
	"fmt"

	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// tableKey is the associative-mapping key for a baseline strategy
// entry: a HandCategory collapsed to its discriminant fields plus the
// dealer's up-card value (2-10, 11 for ace).
type tableKey struct {
	kind      cards.CategoryKind
	total     int
	rank      cards.Rank
	dealerUp  int
}

func keyFor(category cards.HandCategory, dealerUp int) tableKey {
	return tableKey{kind: category.Kind, total: category.Total, rank: category.Rank, dealerUp: dealerUp}
}

// dealerUpValues enumerates the ten dealer up-card keys: 2 through 10
// (collapsed from T/J/Q/K) and 11 for ace.
var dealerUpValues = []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

var pairRanks = []cards.Rank{
	cards.Rank2, cards.Rank3, cards.Rank4, cards.Rank5, cards.Rank6,
	cards.Rank7, cards.Rank8, cards.Rank9, cards.RankTen,
	cards.RankJack, cards.RankQueen, cards.RankKing, cards.RankAce,
}

const (
	hardTotalMin = 4
	hardTotalMax = 21
	softTotalMin = 13 // A,2
	softTotalMax = 21
)

// Direction is the comparison operator a deviation's threshold uses.
type Direction int8

const (
	AtLeast Direction = iota // true count (minus margin) >= threshold
	LessThan                 // true count (plus margin) < threshold
)

// Deviation is one entry in the Illustrious 18 + Fab 4 index-play list.
// A deviation fires iff the true count clears its threshold by at least
// the margin in the deviation's direction (trueCount - margin >=
// threshold for AtLeast, trueCount + margin < threshold for LessThan)
// for the matching (category, dealerUp) pair; otherwise the baseline
// basic-strategy entry applies.
type Deviation struct {
	Name      string
	Category  cards.HandCategory
	DealerUp  int
	Threshold float64
	Direction Direction
	Action    Action
}

func (d Deviation) fires(trueCount, margin float64) bool {
	adjusted := trueCount
	switch d.Direction {
	case AtLeast:
		adjusted -= margin
		return adjusted >= d.Threshold
	case LessThan:
		adjusted += margin
		return adjusted < d.Threshold
	default:
		return false
	}
}

// Table bundles the immutable baseline strategy map with the ordered
// deviation list. Construct with Load; a Table is safe to share by
// reference across every session without synchronization.
type Table struct {
	baseline   map[tableKey]Action
	deviations []Deviation
}

// Baseline returns the basic-strategy action for a category and dealer
// up-card value, ignoring any count-based deviation.
func (t *Table) Baseline(category cards.HandCategory, dealerUp int) (Action, bool) {
	a, ok := t.baseline[keyFor(category, dealerUp)]
	return a, ok
}

// Deviations returns the ordered deviation list: Illustrious 18
// entries, then Fab 4. Insurance is not in this list; the decision
// engine's insurance query uses InsuranceThreshold instead.
func (t *Table) Deviations() []Deviation {
	return t.deviations
}

// Load builds and validates the canonical strategy table. It fails
// with a "bad strategy table" error (a plain error value, not a typed
// or sentinel one) if any (category, dealerUp) combination lacks
// exactly one baseline
// entry, or if a deviation references a category/dealerUp pair absent
// from the baseline - never falling back silently.
func Load() (*Table, error) {
	baseline := make(map[tableKey]Action)

	for total := hardTotalMin; total <= hardTotalMax; total++ {
		for _, up := range dealerUpValues {
			baseline[keyFor(cards.HardCategory(total), up)] = hardAction(total, up)
		}
	}
	for total := softTotalMin; total <= softTotalMax; total++ {
		for _, up := range dealerUpValues {
			baseline[keyFor(cards.SoftCategory(total), up)] = softAction(total, up)
		}
	}
	for _, rank := range pairRanks {
		for _, up := range dealerUpValues {
			baseline[keyFor(cards.PairCategory(rank), up)] = pairAction(rank, up)
		}
	}

	expected := (hardTotalMax-hardTotalMin+1)*len(dealerUpValues) +
		(softTotalMax-softTotalMin+1)*len(dealerUpValues) +
		len(pairRanks)*len(dealerUpValues)
	if len(baseline) != expected {
		return nil, fmt.Errorf("bad strategy table: expected %d baseline entries, built %d", expected, len(baseline))
	}

	deviations := illustrious18AndFab4()
	for _, d := range deviations {
		key := keyFor(d.Category, d.DealerUp)
		if _, ok := baseline[key]; !ok {
			return nil, fmt.Errorf("bad strategy table: deviation %q references uncovered category/dealer-up pair", d.Name)
		}
	}

	return &Table{baseline: baseline, deviations: deviations}, nil
}

// hardAction encodes baseline hard-total strategy for a 6-deck S17 DAS
// table (the deviation list and per-rules legality filtering handle
// departures from this baseline).
func hardAction(total, up int) Action {
	switch {
	case total <= 8:
		return Hit
	case total == 9:
		if up >= 3 && up <= 6 {
			return Double
		}
		return Hit
	case total == 10:
		if up >= 2 && up <= 9 {
			return Double
		}
		return Hit
	case total == 11:
		if up != 11 {
			return Double
		}
		return Hit
	case total == 12:
		if up >= 4 && up <= 6 {
			return Stand
		}
		return Hit
	case total >= 13 && total <= 16:
		if up >= 2 && up <= 6 {
			return Stand
		}
		return Hit
	default: // 17-21
		return Stand
	}
}

// softAction encodes baseline soft-total strategy.
func softAction(total, up int) Action {
	switch total {
	case 13, 14: // A,2 / A,3
		if up >= 5 && up <= 6 {
			return Double
		}
		return Hit
	case 15, 16: // A,4 / A,5
		if up >= 4 && up <= 6 {
			return Double
		}
		return Hit
	case 17: // A,6
		if up >= 3 && up <= 6 {
			return Double
		}
		return Hit
	case 18: // A,7
		switch {
		case up >= 3 && up <= 6:
			return Double
		case up == 2 || up == 7 || up == 8:
			return Stand
		default:
			return Hit
		}
	default: // 19-21
		return Stand
	}
}

// pairAction encodes baseline pair-splitting strategy. Ranks that are
// never split (5s, 10s) fall back to their hard-total equivalent.
func pairAction(rank cards.Rank, up int) Action {
	switch rank {
	case cards.RankAce:
		return Split
	case cards.RankTen, cards.RankJack, cards.RankQueen, cards.RankKing:
		return hardAction(20, up)
	case cards.Rank9:
		if up == 7 || up == 10 || up == 11 {
			return Stand
		}
		return Split
	case cards.Rank8:
		return Split
	case cards.Rank7:
		if up >= 2 && up <= 7 {
			return Split
		}
		return Hit
	case cards.Rank6:
		if up >= 2 && up <= 6 {
			return Split
		}
		return Hit
	case cards.Rank5:
		return hardAction(10, up)
	case cards.Rank4:
		if up == 5 || up == 6 {
			return Split
		}
		return Hit
	case cards.Rank3, cards.Rank2:
		if up >= 2 && up <= 7 {
			return Split
		}
		return Hit
	default:
		return Hit
	}
}

// illustrious18AndFab4 returns the canonical deviation set named in
// the spec: the Illustrious 18's highest-value plays followed by the
// Fab 4 surrenders. Insurance is intentionally not part of this list -
// it is a separate pre-action query (see decision.ShouldTakeInsurance)
// so its index never entangles with the hand-action deviations. The
// decision engine stops at the first deviation that fires.
func illustrious18AndFab4() []Deviation {
	return []Deviation{
		{Name: "16v10", Category: cards.HardCategory(16), DealerUp: 10, Threshold: 0, Direction: AtLeast, Action: Stand},
		{Name: "15v10", Category: cards.HardCategory(15), DealerUp: 10, Threshold: 4, Direction: AtLeast, Action: Stand},
		{Name: "12v3", Category: cards.HardCategory(12), DealerUp: 3, Threshold: 2, Direction: AtLeast, Action: Stand},
		{Name: "12v2", Category: cards.HardCategory(12), DealerUp: 2, Threshold: 3, Direction: AtLeast, Action: Stand},
		{Name: "11vA", Category: cards.HardCategory(11), DealerUp: 11, Threshold: 1, Direction: AtLeast, Action: Double},
		{Name: "10v10", Category: cards.HardCategory(10), DealerUp: 10, Threshold: 4, Direction: AtLeast, Action: Double},
		{Name: "10vA", Category: cards.HardCategory(10), DealerUp: 11, Threshold: 4, Direction: AtLeast, Action: Double},
		{Name: "9v2", Category: cards.HardCategory(9), DealerUp: 2, Threshold: 1, Direction: AtLeast, Action: Double},
		{Name: "9v7", Category: cards.HardCategory(9), DealerUp: 7, Threshold: 3, Direction: AtLeast, Action: Double},

		{Name: "15v10-surrender", Category: cards.HardCategory(15), DealerUp: 10, Threshold: 0, Direction: AtLeast, Action: Surrender},
		{Name: "15vA-surrender", Category: cards.HardCategory(15), DealerUp: 11, Threshold: 1, Direction: AtLeast, Action: Surrender},
		{Name: "15v9-surrender", Category: cards.HardCategory(15), DealerUp: 9, Threshold: 2, Direction: AtLeast, Action: Surrender},
		{Name: "14v10-surrender", Category: cards.HardCategory(14), DealerUp: 10, Threshold: 3, Direction: AtLeast, Action: Surrender},
	}
}
