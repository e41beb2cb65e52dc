// game/engine.go
//
// The turn engine. Everything here runs under the owning room's lock; the
// Store wrappers at the bottom are the public entry points.
package game

import (
	"math/rand"

	"github.com/Jbruinsma/UNO/card"
)

// In-game actions carried inside a process_turn envelope.
const (
	ActionDrawFromDeck  = "draw_card_from_middle"
	ActionPlayCard      = "play_card"
	ActionWildColor     = "change_color_with_wild"
	ActionWildFourColor = "change_color_with_wild_and_draw4"
)

// HandSize is the number of cards dealt to each player at game start.
const HandSize = 7

// Outcome is the tagged result of one processed action. Illegal or
// out-of-turn actions are ignored, not errored, so stale and duplicate
// client messages are harmless; tests can assert "no-op" distinctly from
// "error".
type Outcome struct {
	Applied bool
	Won     bool // the actor emptied their hand
	Room    *Room
}

// Start deals a fresh game: builds and shuffles the deck, deals 7 cards per
// player in join order, flips the first discard, and picks a random starting
// player. A wild first discard gets a random active color. Starting a room
// where someone is already mid-game is a no-op.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Players) < 2 {
		return ErrInsufficientPlayers
	}
	for _, st := range r.PlayerStates {
		if st == PlayerPlaying {
			// Double-start guard: return the current state unchanged.
			return nil
		}
	}

	r.Deck = card.NewDeck()
	r.DiscardPile = nil
	r.Hands = make(map[string][]card.Card, len(r.Players))
	for _, id := range r.Players {
		hand := make([]card.Card, HandSize)
		for i := range hand {
			hand[i] = r.popDeck()
		}
		r.Hands[id] = hand
	}

	first := r.popDeck()
	r.DiscardPile = append(r.DiscardPile, first)
	if first.IsWild() {
		r.ActiveColor = card.RandomColor()
	} else {
		r.ActiveColor = first.Color()
	}

	r.Direction = 1
	r.CurrentPlayerIndex = rand.Intn(len(r.Players))
	r.PendingEvent = nil
	r.awaiting = nil
	r.Finished = false
	r.Winner = ""
	r.Strikes = make(map[string]int)
	for _, id := range r.Players {
		r.PlayerStates[id] = PlayerPlaying
	}
	r.State = StatePlaying
	return nil
}

// ProcessAction applies one in-game action for actor. payload carries the
// card token for play_card, or the chosen color letter for the two color
// choices. advance suppresses turn advancement after a draw when false (the
// client animates the draw before revealing whether the card is playable).
func (r *Room) ProcessAction(actor, action, payload string, advance bool) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	// One-shot: the previous event is consumed by every processed action.
	r.PendingEvent = nil

	if r.State != StatePlaying || r.Finished {
		return Outcome{Room: r}
	}
	if !r.isMember(actor) {
		return Outcome{Room: r}
	}

	var out Outcome
	switch action {
	case ActionDrawFromDeck:
		out = Outcome{Applied: r.drawFromDeck(actor, advance), Room: r}
	case ActionPlayCard:
		applied := r.playCard(actor, card.Card(payload))
		out = Outcome{Applied: applied, Won: r.Finished, Room: r}
	case ActionWildColor:
		out = Outcome{Applied: r.chooseWildColor(actor, payload), Room: r}
	case ActionWildFourColor:
		out = Outcome{Applied: r.chooseWildFourColor(actor, payload), Room: r}
	default:
		return Outcome{Room: r}
	}

	// Acting in time ends an AFK strike streak; only consecutive timeouts
	// count toward a forfeit.
	if out.Applied {
		delete(r.Strikes, actor)
	}
	return out
}

func (r *Room) drawFromDeck(actor string, advance bool) bool {
	if r.awaiting != nil || actor != r.currentPlayer() {
		return false
	}
	if r.drawInto(actor, 1) == 0 {
		// Deck and discard pile both exhausted: refuse rather than corrupt.
		return false
	}
	r.PendingEvent = &Event{Name: EventDrawCard, Player: actor}
	if advance {
		r.advanceTurn(1)
	}
	return true
}

func (r *Room) playCard(actor string, c card.Card) bool {
	if r.awaiting != nil || actor != r.currentPlayer() {
		return false
	}
	if !r.inHand(actor, c) || !r.legalPlay(c) {
		return false
	}

	r.takeFromHand(actor, c)
	r.DiscardPile = append(r.DiscardPile, c)
	r.PendingEvent = &Event{Name: EventPlayCard, Player: actor}

	if len(r.Hands[actor]) == 0 {
		// Game over: no further turn processing.
		r.PendingEvent = &Event{Name: EventWin, Player: actor}
		r.Finished = true
		r.Winner = actor
		return true
	}

	if c.IsWild() {
		// Two-phase play: the card is committed but the turn holds until
		// the actor chooses a color.
		if c.IsDrawFour() {
			r.awaiting = &awaitingColor{actor: actor, drewFour: true}
			r.PendingEvent = &Event{Name: EventWildPickDraw4, Player: actor}
		} else {
			r.awaiting = &awaitingColor{actor: actor}
			r.PendingEvent = &Event{Name: EventWildPick, Player: actor}
		}
		return true
	}

	r.ActiveColor = c.Color()
	r.applyRankEffect(actor, c)
	return true
}

// applyRankEffect resolves a non-wild special rank and advances the turn.
// The victim of Skip and DrawTwo is the next player in the current direction
// computed before any advance.
func (r *Room) applyRankEffect(actor string, c card.Card) {
	switch c.Rank() {
	case card.RankSkip:
		victim := r.Players[r.peekIndex(1)]
		r.advanceTurn(2)
		r.PendingEvent = &Event{Name: EventSkip, Player: victim}
	case card.RankReverse:
		r.Direction *= -1
		r.PendingEvent = &Event{Name: EventReverse, Player: actor}
		r.advanceTurn(1)
	case card.RankDrawTwo:
		victim := r.Players[r.peekIndex(1)]
		r.drawInto(victim, 2)
		r.PendingEvent = &Event{Name: EventDrawTwo, Player: actor, Target: victim}
		// The victim draws and is passed over.
		r.advanceTurn(2)
	default:
		r.advanceTurn(1)
	}
}

func (r *Room) chooseWildColor(actor, color string) bool {
	if r.awaiting == nil || r.awaiting.drewFour || r.awaiting.actor != actor {
		return false
	}
	if card.IsRegularColor(color) {
		r.ActiveColor = color
	}
	// No color supplied: pass through, keeping the previous active color.
	r.awaiting = nil
	r.advanceTurn(1)
	return true
}

func (r *Room) chooseWildFourColor(actor, color string) bool {
	if r.awaiting == nil || !r.awaiting.drewFour || r.awaiting.actor != actor {
		return false
	}
	if card.IsRegularColor(color) {
		r.ActiveColor = color
	}
	victim := r.Players[r.peekIndex(1)]
	r.drawInto(victim, 4)
	r.PendingEvent = &Event{Name: EventDrawFour, Player: actor, Target: victim, Color: r.ActiveColor}
	r.awaiting = nil
	r.advanceTurn(1)
	return true
}

// EnforceTimeout applies the room's AFK behavior to the current player.
// Returns whether anything happened and, for forfeit kicks, who was removed
// and whether the room emptied.
type TimeoutResult struct {
	Acted       bool
	Removed     string
	RemovedName string
	Empty       bool
}

func (r *Room) EnforceTimeout() TimeoutResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StatePlaying || r.Finished || len(r.Players) == 0 {
		return TimeoutResult{}
	}

	victim := r.currentPlayer()
	r.Strikes[victim]++
	r.PendingEvent = &Event{Name: EventTurnTimeout, Player: victim}

	behavior := r.Settings.AFKBehavior
	if behavior == AFKForfeit && r.Settings.MaxAFKStrikes > 0 &&
		r.Strikes[victim] >= r.Settings.MaxAFKStrikes {
		name := r.PlayerNames[victim]
		empty := r.removePlayer(victim)
		return TimeoutResult{Acted: true, Removed: victim, RemovedName: name, Empty: empty}
	}

	if behavior == AFKAutoPlay && r.autoPlay(victim) {
		return TimeoutResult{Acted: true}
	}

	// draw_skip, and the fallback for every other behavior.
	if r.awaiting != nil {
		// A stalled color pick resolves to a random color.
		drewFour := r.awaiting.drewFour
		r.ActiveColor = card.RandomColor()
		if drewFour {
			target := r.Players[r.peekIndex(1)]
			r.drawInto(target, 4)
		}
		r.awaiting = nil
		r.advanceTurn(1)
		return TimeoutResult{Acted: true}
	}

	r.drawInto(victim, 1)
	r.advanceTurn(1)
	return TimeoutResult{Acted: true}
}

// autoPlay plays the first legal card from the victim's hand, resolving
// wilds with a random color immediately. Returns false when no card is
// legal.
func (r *Room) autoPlay(actor string) bool {
	if r.awaiting != nil {
		return false
	}
	var chosen card.Card
	found := false
	for _, c := range r.Hands[actor] {
		if r.legalPlay(c) {
			chosen = c
			found = true
			break
		}
	}
	if !found {
		return false
	}

	r.takeFromHand(actor, chosen)
	r.DiscardPile = append(r.DiscardPile, chosen)

	if len(r.Hands[actor]) == 0 {
		r.PendingEvent = &Event{Name: EventWin, Player: actor}
		r.Finished = true
		r.Winner = actor
		return true
	}

	if chosen.IsWild() {
		r.ActiveColor = card.RandomColor()
		if chosen.IsDrawFour() {
			target := r.Players[r.peekIndex(1)]
			r.drawInto(target, 4)
			r.PendingEvent = &Event{Name: EventDrawFour, Player: actor, Target: target, Color: r.ActiveColor}
		}
		r.advanceTurn(1)
		return true
	}

	r.ActiveColor = chosen.Color()
	r.applyRankEffect(actor, chosen)
	return true
}

// --- helpers, all under mu ---

func (r *Room) isMember(userID string) bool {
	for _, p := range r.Players {
		if p == userID {
			return true
		}
	}
	return false
}

func (r *Room) currentPlayer() string {
	if len(r.Players) == 0 {
		return ""
	}
	return r.Players[r.CurrentPlayerIndex]
}

func (r *Room) inHand(userID string, c card.Card) bool {
	for _, h := range r.Hands[userID] {
		if h == c {
			return true
		}
	}
	return false
}

func (r *Room) takeFromHand(userID string, c card.Card) {
	hand := r.Hands[userID]
	for i, h := range hand {
		if h == c {
			r.Hands[userID] = append(hand[:i], hand[i+1:]...)
			return
		}
	}
}

// legalPlay checks a card against the active color and the discard top.
// Wilds are always legal; otherwise the color must match the active color or
// the rank must match the top card's rank (any "7" on any "7").
func (r *Room) legalPlay(c card.Card) bool {
	if c.IsWild() {
		return true
	}
	if c.Color() == r.ActiveColor {
		return true
	}
	if len(r.DiscardPile) > 0 {
		top := r.DiscardPile[len(r.DiscardPile)-1]
		if c.Rank() == top.Rank() {
			return true
		}
	}
	return false
}

// popDeck removes and returns the deck's tail card. Caller guarantees the
// deck is non-empty.
func (r *Room) popDeck() card.Card {
	c := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	return c
}

// drawInto moves up to n cards from the deck into a hand, replenishing the
// deck from the discard pile when it runs dry. Returns how many cards were
// actually drawn.
func (r *Room) drawInto(userID string, n int) int {
	drawn := 0
	for i := 0; i < n; i++ {
		if len(r.Deck) == 0 {
			r.replenishDeck()
		}
		if len(r.Deck) == 0 {
			break
		}
		r.Hands[userID] = append(r.Hands[userID], r.popDeck())
		drawn++
	}
	return drawn
}

// replenishDeck reshuffles the discard pile, minus its top card, back into
// the deck.
func (r *Room) replenishDeck() {
	if len(r.DiscardPile) <= 1 {
		return
	}
	top := r.DiscardPile[len(r.DiscardPile)-1]
	rest := append([]card.Card(nil), r.DiscardPile[:len(r.DiscardPile)-1]...)
	card.Shuffle(rest)
	r.Deck = append(r.Deck, rest...)
	r.DiscardPile = []card.Card{top}
}

// advanceTurn moves the turn pointer steps players along the current
// direction with wraparound.
func (r *Room) advanceTurn(steps int) {
	r.CurrentPlayerIndex = advanceIndex(r.CurrentPlayerIndex, r.Direction, steps, len(r.Players))
}

// peekIndex returns the player index steps ahead without moving the pointer.
func (r *Room) peekIndex(steps int) int {
	return advanceIndex(r.CurrentPlayerIndex, r.Direction, steps, len(r.Players))
}

// advanceIndex computes a turn index offset with directional wraparound and
// no negative-modulo surprises.
func advanceIndex(index, direction, steps, count int) int {
	if count <= 0 {
		return 0
	}
	return ((index+direction*steps)%count + count) % count
}

// --- Store entry points ---

// StartGame starts the room's game under its lock.
func (s *Store) StartGame(id string) (*Room, error) {
	room, exists := s.Get(id)
	if !exists {
		return nil, ErrNotFound
	}
	if err := room.Start(); err != nil {
		return nil, err
	}
	return room, nil
}

// ProcessAction dispatches one in-game action. The only error is an absent
// room; everything else either applies or is silently ignored.
func (s *Store) ProcessAction(actorID, roomID, action, payload string, advance bool) (Outcome, error) {
	room, exists := s.Get(roomID)
	if !exists {
		return Outcome{}, ErrNotFound
	}
	return room.ProcessAction(actorID, action, payload, advance), nil
}

// EnforceTimeout runs the AFK behavior for a room's current player, deleting
// the room if a forfeit kick emptied it.
func (s *Store) EnforceTimeout(roomID string) (TimeoutResult, *Room) {
	room, exists := s.Get(roomID)
	if !exists {
		return TimeoutResult{}, nil
	}
	res := room.EnforceTimeout()
	if res.Empty {
		s.mutex.Lock()
		delete(s.rooms, roomID)
		s.mutex.Unlock()
		return res, nil
	}
	return res, room
}
