// Package shoe implements the running-count state machine that tracks
// a multi-deck shoe's observed cards, independent of whether those
// cards came from an internal virtual shoe (auto mode) or external
// observation (shadow mode).
package shoe

import (
	"errors"
	"math"

	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// ErrExhausted is returned by Observe when the shoe has already dealt
// every card it holds. It leaves the shoe in its pre-call state; a
// subsequent Shuffle restores operability.
var ErrExhausted = errors.New("shoe exhausted")

// minDecksRemainingForDivision is the floor applied to decks-remaining
// before it is used as the true-count divisor, preventing unbounded
// magnification at the very end of the shoe.
const minDecksRemainingForDivision = 0.5

// CountSnapshot is the point-in-time view of a shoe's counting state.
type CountSnapshot struct {
	RunningCount   int
	TrueCount      float64
	DecksRemaining float64
	Penetration    float64
	CardsDealt     int
}

// Shoe tracks the Hi-Lo running count, cards dealt, and shuffle state
// of a multi-deck shoe. A Shoe is owned exclusively by one Session;
// nothing outside the owning session may mutate it.
type Shoe struct {
	numDecks     int
	runningCount int
	cardsDealt   int
}

// New constructs a shoe freshly shuffled for the given number of decks.
func New(numDecks int) *Shoe {
	return &Shoe{numDecks: numDecks}
}

// totalCards is the full shoe size in cards.
func (s *Shoe) totalCards() int {
	return s.numDecks * 52
}

// Observe records a card dealt from (or seen in) the shoe: it adjusts
// the running count by the card's Hi-Lo tag and advances cards dealt
// by exactly one. It fails with ErrExhausted if the shoe had already
// dealt its full size before this call.
func (s *Shoe) Observe(c cards.Card) error {
	if s.cardsDealt >= s.totalCards() {
		return ErrExhausted
	}
	s.runningCount += c.Rank.HiLoTag()
	s.cardsDealt++
	return nil
}

// Shuffle resets the running count and cards-dealt counters. It is
// idempotent: shuffling twice in a row yields the same snapshot as
// shuffling once.
func (s *Shoe) Shuffle() {
	s.runningCount = 0
	s.cardsDealt = 0
}

// CardsRemaining returns the number of undealt cards left in the shoe.
func (s *Shoe) CardsRemaining() int {
	return s.totalCards() - s.cardsDealt
}

// Snapshot computes the current count/penetration view. True count is
// the running count divided by decks remaining, with decks remaining
// floored at minDecksRemainingForDivision to avoid unbounded
// magnification as the shoe empties.
func (s *Shoe) Snapshot() CountSnapshot {
	decksRemaining := float64(s.CardsRemaining()) / 52.0
	divisor := math.Max(minDecksRemainingForDivision, decksRemaining)

	return CountSnapshot{
		RunningCount:   s.runningCount,
		TrueCount:      float64(s.runningCount) / divisor,
		DecksRemaining: decksRemaining,
		Penetration:    float64(s.cardsDealt) / float64(s.totalCards()),
		CardsDealt:     s.cardsDealt,
	}
}
