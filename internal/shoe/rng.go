package shoe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// RNG is a per-session counter-based AES-CTR pseudo-random source used
// by auto-mode sessions to shuffle and draw from a virtual shoe. Each
// session owns an independent RNG; it is never shared across sessions,
// and a caller-supplied seed makes a session's deal sequence
// reproducible for replay.
type RNG struct {
	cipher  cipher.Block
	seed    []byte
	counter uint64
	mu      sync.Mutex
}

// NewRNG creates an RNG seeded from the system CSPRNG.
func NewRNG() (*RNG, error) {
	seed, err := randomSeed(32)
	if err != nil {
		return nil, fmt.Errorf("failed to seed rng: %w", err)
	}
	return NewRNGWithSeed(seed)
}

// NewRNGWithSeed creates an RNG from a caller-supplied seed, used
// directly as the AES-256 key when it is 32 bytes long and hashed with
// SHA-256 into a 32-byte key otherwise. The same seed
// always produces the same draw sequence, which is what makes a
// session's operation log replayable.
func NewRNGWithSeed(seed []byte) (*RNG, error) {
	key := seed
	if len(key) != 32 {
		hash := sha256.Sum256(seed)
		key = hash[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &RNG{cipher: block, seed: append([]byte(nil), seed...)}, nil
}

// Seed returns the seed this RNG was constructed from, so a caller can
// record it for later replay.
func (r *RNG) Seed() []byte {
	return append([]byte(nil), r.seed...)
}

func randomSeed(n int) ([]byte, error) {
	seed := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// Uint64 returns the next counter-based pseudo-random value.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	block := make([]byte, 16)
	binary.BigEndian.PutUint64(block[:8], r.counter)
	r.counter++

	out := make([]byte, 16)
	r.cipher.Encrypt(out, block)
	return binary.BigEndian.Uint64(out[:8])
}

// Intn returns a pseudo-random int in [0, n).
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint64() % uint64(n))
}

// Shuffle performs an in-place Fisher-Yates shuffle of deck using this
// RNG as the source of randomness.
func (r *RNG) Shuffle(deck []cards.Card) {
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// FreshDeck builds and shuffles a numDecks-deck shoe of cards.
func (r *RNG) FreshDeck(numDecks int) []cards.Card {
	deck := make([]cards.Card, 0, numDecks*52)
	for d := 0; d < numDecks; d++ {
		for rank := cards.Rank2; rank <= cards.RankAce; rank++ {
			for suit := cards.SuitClubs; suit <= cards.SuitSpades; suit++ {
				deck = append(deck, cards.NewCard(rank, suit))
			}
		}
	}
	r.Shuffle(deck)
	return deck
}
