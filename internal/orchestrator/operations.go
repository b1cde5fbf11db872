package orchestrator

import (
	"context"
	"time"

	"github.com/Duttonn/BlackJackAdvisor/internal/decision"
	"github.com/Duttonn/BlackJackAdvisor/internal/metrics"
	"github.com/Duttonn/BlackJackAdvisor/internal/shoe"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/internal/telemetry"
	"github.com/Duttonn/BlackJackAdvisor/pkg/cards"
)

// Deal runs the auto-mode deal operation: two cards to the player, two
// to the dealer (P,D,P,D order), with the dealer's hole card drawn but
// deliberately not yet observed into the count (see drawUnobserved and
// playDealerAndSettle, which observes it when it is revealed). Deal is
// accepted from IDLE or from SETTLED, which starts the next round.
func (s *Session) Deal() (DealResult, *EngineError) {
	var res DealResult
	var opErr *EngineError

	err := s.submit(func() {
		if s.mode != Auto {
			opErr = newError(WrongMode, "deal is an auto-mode operation")
			return
		}
		if s.state != Idle && s.state != Settled {
			opErr = newError(WrongState, "deal requires state IDLE or SETTLED, got %s", s.state)
			return
		}
		if s.shoe.CardsRemaining() < minCardsForDeal {
			opErr = newError(ShoeExhausted, "shoe has fewer than %d cards remaining; shuffle first", minCardsForDeal)
			return
		}

		// Conventional P,D,P,D draw order. The dealer's second card
		// (the hole card) is drawn but deliberately not observed into
		// the count yet - it only affects counting once DEALER_TURN
		// reveals it.
		playerCard1, e1 := s.draw()
		upCard, e2 := s.draw()
		playerCard2, e3 := s.draw()
		holeCard, e4 := s.drawUnobserved()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			opErr = newError(ShoeExhausted, "shoe exhausted mid-deal")
			return
		}

		playerHand := cards.NewHand(playerCard1, playerCard2)
		s.dealerHand = cards.NewHand(upCard, holeCard)
		s.dealerHoleDrawn = false

		bet := s.recommendedBet()
		s.currentBet = bet
		s.hands = []*playHand{{hand: playerHand, wager: bet}}
		s.activeHandIndex = 0
		s.state = PlayerTurn
		s.handsDealtThisShoe++

		metrics.RecordDeal(string(s.mode))
		metrics.RecordBet(bet)
		metrics.TrueCountObserved.Observe(s.shoe.Snapshot().TrueCount)

		res = DealResult{
			PlayerCards:    append([]cards.Card(nil), playerHand.Cards...),
			PlayerTotal:    playerHand.Total(),
			DealerUp:       upCard,
			IsBlackjack:    playerHand.IsBlackjack(),
			CountSnapshot:  s.shoe.Snapshot(),
			RecommendedBet: bet,
		}
	})
	if err != nil {
		return DealResult{}, err.(*EngineError)
	}
	if opErr != nil {
		metrics.RecordError("deal", string(opErr.Code))
	}
	return res, opErr
}

// drawUnobserved draws a card from the virtual deck without touching
// the Hi-Lo count, used for the dealer's hole card at deal time: the
// hole card must not affect the count or any true-count-based decision
// until it is revealed at DEALER_TURN.
func (s *Session) drawUnobserved() (cards.Card, error) {
	if s.deckPos >= len(s.deck) {
		s.reshuffleDeck()
	}
	c := s.deck[s.deckPos]
	s.deckPos++
	return c, nil
}

// Action runs the auto-mode action operation against the active hand.
func (s *Session) Action(act strategy.Action) (ActionResult, *EngineError) {
	var res ActionResult
	var opErr *EngineError

	err := s.submit(func() {
		if s.mode != Auto {
			opErr = newError(WrongMode, "action is an auto-mode operation")
			return
		}
		if s.state != PlayerTurn {
			opErr = newError(WrongState, "action requires state PLAYER_TURN, got %s", s.state)
			return
		}
		hand := s.activeHand()
		if hand == nil {
			opErr = newError(WrongState, "no active hand")
			return
		}

		ctx := decision.HandContext{
			InitialTwoCards: len(hand.hand.Cards) == 2 && !hand.doubled,
			FromSplit:       hand.fromSplit,
			SplitCount:      hand.splitCount,
		}
		correct := s.decisionFor(hand.hand, s.dealerHand.Cards[0].Rank, ctx)

		if !s.legalNow(act, hand, ctx) {
			opErr = newError(IllegalAction, "%s is not legal for the current hand", act)
			return
		}

		res.ActionTaken = act
		res.CorrectAction = correct
		res.IsCorrect = act == correct
		if res.IsCorrect {
			s.stats.CorrectActions++
		} else {
			s.stats.IncorrectActions++
		}
		metrics.RecordAction(string(act), res.IsCorrect)

		switch act {
		case strategy.Hit:
			s.applyHit(hand, &res)
		case strategy.Stand:
			hand.stood = true
			s.advanceActiveHand()
		case strategy.Double:
			s.applyDouble(hand, &res)
		case strategy.Split:
			s.applySplit(hand)
		case strategy.Surrender:
			hand.surrendered = true
			s.advanceActiveHand()
		}

		// Settled here means every hand busted or surrendered: the
		// dealer draws nothing, but the hands are still settled.
		if s.state == DealerTurn || s.state == Settled {
			s.playDealerAndSettle(&res)
		}

		exit, reason := s.exitSignal()
		if exit {
			metrics.RecordWongOut()
		}
		res.ShouldExit = exit
		res.ExitReason = reason
		res.CountSnapshot = s.shoe.Snapshot()
	})
	if err != nil {
		return ActionResult{}, err.(*EngineError)
	}
	if opErr != nil {
		metrics.RecordError("action", string(opErr.Code))
	}
	return res, opErr
}

func (s *Session) legalNow(act strategy.Action, hand *playHand, ctx decision.HandContext) bool {
	switch act {
	case strategy.Hit:
		return !hand.acesOnly
	case strategy.Double:
		if !ctx.InitialTwoCards {
			return false
		}
		if hand.acesOnly {
			return false
		}
		if hand.fromSplit && !s.rules.DoubleAfterSplit {
			return false
		}
		return true
	case strategy.Split:
		if !hand.hand.IsPair() {
			return false
		}
		if hand.splitCount >= maxSplitHands(s.rules) {
			return false
		}
		if hand.hand.Cards[0].Rank == cards.RankAce && hand.fromSplit && !s.rules.ResplitAcesAllowed {
			return false
		}
		return true
	case strategy.Surrender:
		return ctx.InitialTwoCards && s.rules.SurrenderAllowed
	default:
		return true
	}
}

func maxSplitHands(rules strategy.GameRules) int {
	if rules.MaxSplitHands <= 0 {
		return 1
	}
	return rules.MaxSplitHands
}

func (s *Session) applyHit(hand *playHand, res *ActionResult) {
	c, err := s.draw()
	if err != nil {
		hand.busted = true
		s.advanceActiveHand()
		return
	}
	hand.hand.Add(c)
	res.NewCard = &c
	total := hand.hand.Total()
	res.NewTotal = &total

	switch {
	case hand.hand.IsBust():
		hand.busted = true
		s.advanceActiveHand()
	case total == 21:
		hand.stood = true
		s.advanceActiveHand()
	}
}

func (s *Session) applyDouble(hand *playHand, res *ActionResult) {
	hand.wager *= 2
	hand.doubled = true
	c, err := s.draw()
	if err != nil {
		hand.busted = true
		s.advanceActiveHand()
		return
	}
	hand.hand.Add(c)
	res.NewCard = &c
	total := hand.hand.Total()
	res.NewTotal = &total
	if hand.hand.IsBust() {
		hand.busted = true
	}
	s.advanceActiveHand()
}

func (s *Session) applySplit(hand *playHand) {
	first := cards.NewHand(hand.hand.Cards[0])
	second := cards.NewHand(hand.hand.Cards[1])

	c1, _ := s.draw()
	first.Add(c1)
	c2, _ := s.draw()
	second.Add(c2)

	splitCount := hand.splitCount + 1
	wasAces := hand.hand.Cards[0].Rank == cards.RankAce
	newHands := []*playHand{
		{hand: first, wager: hand.wager, fromSplit: true, splitCount: splitCount, acesOnly: wasAces},
		{hand: second, wager: hand.wager, fromSplit: true, splitCount: splitCount, acesOnly: wasAces},
	}

	// A hand split from aces draws exactly one card and can never hit
	// or double (acesOnly, checked in legalNow). It only stays active
	// for a further SPLIT when it drew another ace and the table
	// allows resplitting aces; otherwise it freezes immediately here,
	// mirroring the same condition legalNow applies at line ~186.
	if wasAces {
		splitCtx := decision.HandContext{FromSplit: true, SplitCount: splitCount}
		for _, h := range newHands {
			if !s.legalNow(strategy.Split, h, splitCtx) {
				h.stood = true
			}
		}
	}

	s.hands = append(s.hands[:s.activeHandIndex], append(newHands, s.hands[s.activeHandIndex+1:]...)...)

	if s.hands[s.activeHandIndex].resolved() {
		s.advanceActiveHand()
	}
}

// advanceActiveHand moves to the next unresolved hand, or transitions
// the session out of PLAYER_TURN when every hand has been resolved.
func (s *Session) advanceActiveHand() {
	for i := s.activeHandIndex + 1; i < len(s.hands); i++ {
		if !s.hands[i].resolved() {
			s.activeHandIndex = i
			return
		}
	}
	// No more hands to act on.
	if s.mode == Auto && s.anyHandStillLive() {
		s.state = DealerTurn
	} else {
		s.state = Settled
	}
}

func (s *Session) anyHandStillLive() bool {
	for _, h := range s.hands {
		if !h.busted && !h.surrendered {
			return true
		}
	}
	return false
}

// playDealerAndSettle reveals the hole card (observing it into the
// count for the first time - the lazy-hole-card discipline), draws to
// completion per the dealer's stand rule, then settles every hand.
func (s *Session) playDealerAndSettle(res *ActionResult) {
	if !s.dealerHoleDrawn {
		hole := s.dealerHand.Cards[1]
		s.shoe.Observe(hole)
		s.dealerHoleDrawn = true
	}

	dealerBlackjack := s.dealerHand.IsBlackjack()

	if s.anyHandStillLive() && !dealerBlackjack {
		for {
			total := s.dealerHand.Total()
			soft17 := total == 17 && s.dealerHand.IsSoft()
			if total > 17 || (total == 17 && (!soft17 || s.rules.DealerStandsSoft17)) {
				break
			}
			c, err := s.draw()
			if err != nil {
				break
			}
			s.dealerHand.Add(c)
		}
	}

	dealerTotal := s.dealerHand.Total()
	snap := s.shoe.Snapshot()
	for _, h := range s.hands {
		h.settle(dealerTotal, dealerBlackjack)
		s.applySettlementStats(h)
		s.dispatchHandEvent(h, dealerTotal, snap)
	}

	t := dealerTotal
	res.DealerTotal = &t
	if len(s.hands) > 0 {
		res.Outcome = s.hands[len(s.hands)-1].outcome
	}
	s.state = Settled
}

// dispatchHandEvent fires a detached telemetry write for one settled
// hand. It runs on its own goroutine so a slow or unreachable sink
// never delays the caller's action response.
func (s *Session) dispatchHandEvent(h *playHand, dealerTotal int, snap shoe.CountSnapshot) {
	metrics.RecordSettlement(h.outcome.String())
	if s.handSink == nil {
		return
	}
	event := telemetry.HandEvent{
		SessionID:    s.id,
		HandNumber:   s.stats.HandsPlayed,
		Mode:         string(s.mode),
		PlayerTotal:  h.hand.Total(),
		DealerTotal:  dealerTotal,
		Wager:        h.wager,
		NetWinnings:  h.netWinnings(s.rules.BlackjackPayout),
		Outcome:      h.outcome.String(),
		TrueCount:    snap.TrueCount,
		RunningCount: snap.RunningCount,
		Penetration:  snap.Penetration,
		Timestamp:    sessionStatsTimestamp(),
	}
	sink := s.handSink
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sink.RecordHand(ctx, event)
	}()
}

func (s *Session) applySettlementStats(h *playHand) {
	s.stats.HandsPlayed++
	s.bankroll += h.netWinnings(s.rules.BlackjackPayout)
	s.stats.NetWinnings += h.netWinnings(s.rules.BlackjackPayout)
	if h.outcome == nil {
		return
	}
	switch *h.outcome {
	case strategy.OutcomeWin:
		s.stats.Wins++
	case strategy.OutcomeLoss:
		s.stats.Losses++
	case strategy.OutcomePush:
		s.stats.Pushes++
	case strategy.OutcomeBlackjack:
		s.stats.Blackjacks++
		s.stats.Wins++
	case strategy.OutcomeBust:
		s.stats.Busts++
		s.stats.Losses++
	case strategy.OutcomeSurrender:
		s.stats.Surrenders++
	}
}

// Observe runs the shadow-mode observe operation: forward each caller
// card into the shoe and return the updated snapshot.
func (s *Session) Observe(observed []cards.Card) (ObserveResult, *EngineError) {
	var res ObserveResult
	var opErr *EngineError

	err := s.submit(func() {
		if s.mode != Shadow {
			opErr = newError(WrongMode, "observe is a shadow-mode operation")
			return
		}
		for _, c := range observed {
			if e := s.shoe.Observe(c); e != nil {
				opErr = newError(ShoeExhausted, "shoe exhausted during observe: %v", e)
				return
			}
		}
		res.CountSnapshot = s.shoe.Snapshot()
		res.RecommendedBet = s.recommendedBet()
	})
	if err != nil {
		return ObserveResult{}, err.(*EngineError)
	}
	if opErr != nil {
		metrics.RecordError("observe", string(opErr.Code))
	}
	return res, opErr
}

// QueryDecision runs the shadow-mode query_decision operation: a pure
// read against the current count, with no effect on the shoe.
func (s *Session) QueryDecision(playerCards []cards.Card, dealerUp cards.Rank) (QueryDecisionResult, *EngineError) {
	var res QueryDecisionResult
	var opErr *EngineError

	err := s.submit(func() {
		if s.mode != Shadow {
			opErr = newError(WrongMode, "query_decision is a shadow-mode operation")
			return
		}
		hand := cards.NewHand(playerCards...)
		action := s.decisionFor(hand, dealerUp, decision.HandContext{InitialTwoCards: len(playerCards) == 2})

		exit, reason := s.exitSignal()
		if exit {
			metrics.RecordWongOut()
		}
		res = QueryDecisionResult{
			RecommendedAction: action,
			CountSnapshot:     s.shoe.Snapshot(),
			RecommendedBet:    s.recommendedBet(),
			ShouldExit:        exit,
			ExitReason:        reason,
		}
	})
	if err != nil {
		return QueryDecisionResult{}, err.(*EngineError)
	}
	if opErr != nil {
		metrics.RecordError("query_decision", string(opErr.Code))
	}
	return res, opErr
}

// QueryBet runs query_bet: the bet engine evaluated against the
// session's current snapshot.
func (s *Session) QueryBet() (float64, *EngineError) {
	var bet float64
	err := s.submit(func() {
		bet = s.recommendedBet()
	})
	if err != nil {
		return 0, err.(*EngineError)
	}
	return bet, nil
}

// Shuffle runs the shuffle operation.
func (s *Session) Shuffle() (shoe.CountSnapshot, *EngineError) {
	var snap shoe.CountSnapshot
	err := s.submit(func() {
		snap = s.doShuffle()
	})
	if err != nil {
		return shoe.CountSnapshot{}, err.(*EngineError)
	}
	return snap, nil
}

// Status runs session_status.
func (s *Session) Status() (SessionView, *EngineError) {
	var v SessionView
	err := s.submit(func() {
		v = s.view()
	})
	if err != nil {
		return SessionView{}, err.(*EngineError)
	}
	return v, nil
}
