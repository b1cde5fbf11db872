package strategy

// InsuranceThreshold is the true-count index at which taking insurance
// becomes +EV. Kept separate from the Illustrious 18/Fab 4 list per
// the spec's design note: insurance is a distinct pre-action query,
// not a hand-action deviation.
const InsuranceThreshold = 3.0
