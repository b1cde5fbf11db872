package strategy

// GameRules is an immutable value object describing the table's
// house rules. Construct once with DefaultGameRules (or a caller's
// request) and share by reference across sessions - never mutate a
// GameRules after it is handed to a Table.
type GameRules struct {
	NumDecks             int     // shoe composition, one of {1,2,4,6,8}
	DealerStandsSoft17   bool    // S17 vs H17
	DoubleAfterSplit     bool    // DAS
	SurrenderAllowed     bool    // whether SURRENDER is a candidate action
	BlackjackPayout      float64 // 1.5 for 3:2, 1.2 for 6:5
	Penetration          float64 // fraction of shoe dealt before a shuffle, in (0,1); validated only - no operation shuffles on reaching it, shuffle is caller-invoked
	MaxSplitHands        int     // resplit cap; 1 means "one split per round"
	ResplitAcesAllowed   bool    // whether split aces may be resplit
	TableMin             float64 // minimum bet in table units
	TableMax             float64 // maximum bet in table units
	KellyFraction        float64 // fractional-Kelly multiplier, default 0.5 (half-Kelly)
	DeviationMargin      float64 // non-negative margin added to deviation thresholds
	MaxBettingPenetration float64 // deep-shoe defensive cutoff, default 0.85
	WongOutThreshold     float64 // exit-signal true-count threshold, default -1.0
}

// DefaultGameRules returns the documented defaults from the external
// interface configuration table: 6 decks, S17, DAS, surrender allowed,
// 3:2 blackjack, 75% penetration, half-Kelly, zero deviation margin,
// 85% max betting penetration, -1.0 wong-out threshold.
func DefaultGameRules() GameRules {
	return GameRules{
		NumDecks:              6,
		DealerStandsSoft17:    true,
		DoubleAfterSplit:      true,
		SurrenderAllowed:      true,
		BlackjackPayout:       1.5,
		Penetration:           0.75,
		MaxSplitHands:         1,
		ResplitAcesAllowed:    false,
		TableMin:              15,
		TableMax:              500,
		KellyFraction:         0.5,
		DeviationMargin:       0.0,
		MaxBettingPenetration: 0.85,
		WongOutThreshold:      -1.0,
	}
}

// WithDefaults fills zero-valued numeric fields of r with
// DefaultGameRules, the way the teacher's table configuration applies
// defaults to an incoming request before use. It intentionally leaves
// the four boolean rules untouched: a plain bool can't distinguish
// "caller omitted this" from "caller explicitly asked for false", so
// by the time a GameRules value exists every bool on it is already
// meant literally. That disambiguation happens one layer up, at the
// wire boundary - see rulesDTO's *bool fields in internal/server/dto.go.
func (r GameRules) WithDefaults() GameRules {
	d := DefaultGameRules()
	if r.NumDecks == 0 {
		r.NumDecks = d.NumDecks
	}
	if r.BlackjackPayout == 0 {
		r.BlackjackPayout = d.BlackjackPayout
	}
	if r.Penetration == 0 {
		r.Penetration = d.Penetration
	}
	if r.MaxSplitHands == 0 {
		r.MaxSplitHands = d.MaxSplitHands
	}
	if r.TableMin == 0 {
		r.TableMin = d.TableMin
	}
	if r.TableMax == 0 {
		r.TableMax = d.TableMax
	}
	if r.KellyFraction == 0 {
		r.KellyFraction = d.KellyFraction
	}
	if r.MaxBettingPenetration == 0 {
		r.MaxBettingPenetration = d.MaxBettingPenetration
	}
	if r.WongOutThreshold == 0 {
		r.WongOutThreshold = d.WongOutThreshold
	}
	return r
}
