package game

import (
	"errors"
	"testing"

	"github.com/Jbruinsma/UNO/card"
)

// riggedRoom builds a playing room with a fixed, deterministic layout:
// direction +1, player 0 to act, active color red, "R-5" on the discard top
// and a blue number deck to draw from. Hands start empty.
func riggedRoom(players ...string) *Room {
	r := NewRoom("ABCD", players[0], players[0])
	for _, p := range players[1:] {
		r.addPlayer(p, p)
	}

	r.State = StatePlaying
	r.Direction = 1
	r.CurrentPlayerIndex = 0
	r.ActiveColor = card.Red
	r.DiscardPile = []card.Card{"R-5"}
	r.Deck = []card.Card{"B-1", "B-2", "B-3", "B-4", "B-5", "B-6", "B-7", "B-8"}
	for _, p := range players {
		r.PlayerStates[p] = PlayerPlaying
		r.Hands[p] = nil
	}
	return r
}

func totalCards(r *Room) int {
	total := len(r.Deck) + len(r.DiscardPile)
	for _, hand := range r.Hands {
		total += len(hand)
	}
	return total
}

func TestStart_DealsSevenEach(t *testing.T) {
	store := NewStore()
	room, _ := store.Create("ABCD", "p1", "P1")
	store.Join("ABCD", "p2", "P2")
	store.Join("ABCD", "p3", "P3")

	if err := room.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if room.State != StatePlaying {
		t.Errorf("Expected playing state, got %s", room.State)
	}
	for _, p := range room.Players {
		if len(room.Hands[p]) != HandSize {
			t.Errorf("Player %s should hold %d cards, got %d", p, HandSize, len(room.Hands[p]))
		}
		if room.PlayerStates[p] != PlayerPlaying {
			t.Errorf("Player %s should be playing", p)
		}
	}
	if len(room.DiscardPile) != 1 {
		t.Fatalf("Expected one flipped discard, got %d", len(room.DiscardPile))
	}
	if !card.IsRegularColor(room.ActiveColor) {
		t.Errorf("Active color must be a regular color, got %q", room.ActiveColor)
	}
	if room.CurrentPlayerIndex < 0 || room.CurrentPlayerIndex >= len(room.Players) {
		t.Errorf("Current player index out of range: %d", room.CurrentPlayerIndex)
	}
	if totalCards(room) != card.DeckSize {
		t.Errorf("Card conservation violated: %d", totalCards(room))
	}
}

func TestStart_RequiresTwoPlayers(t *testing.T) {
	store := NewStore()
	room, _ := store.Create("ABCD", "p1", "P1")

	if err := room.Start(); !errors.Is(err, ErrInsufficientPlayers) {
		t.Errorf("Expected ErrInsufficientPlayers, got %v", err)
	}
}

func TestStart_DoubleStartIsNoop(t *testing.T) {
	store := NewStore()
	room, _ := store.Create("ABCD", "p1", "P1")
	store.Join("ABCD", "p2", "P2")

	if err := room.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	deckBefore := append([]card.Card(nil), room.Deck...)

	if err := room.Start(); err != nil {
		t.Fatalf("Second start should be a silent no-op, got %v", err)
	}
	if len(room.Deck) != len(deckBefore) {
		t.Error("Second start must not re-deal")
	}
	for i, c := range deckBefore {
		if room.Deck[i] != c {
			t.Fatal("Second start must leave the deck untouched")
		}
	}
}

func TestAdvanceIndex(t *testing.T) {
	if got := advanceIndex(2, 1, 1, 3); got != 0 {
		t.Errorf("Forward wrap: expected 0, got %d", got)
	}
	if got := advanceIndex(0, -1, 1, 3); got != 2 {
		t.Errorf("Backward wrap: expected 2, got %d", got)
	}

	// Advancing forward then the same distance backward returns home.
	for count := 1; count <= 5; count++ {
		for index := 0; index < count; index++ {
			for steps := 1; steps <= 4; steps++ {
				forward := advanceIndex(index, 1, steps, count)
				back := advanceIndex(forward, -1, steps, count)
				if back != index {
					t.Fatalf("advance inverse broken: count=%d index=%d steps=%d got %d",
						count, index, steps, back)
				}
			}
		}
	}
}

func TestPlayCard_MovesExactlyOneInstance(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Hands["p1"] = []card.Card{"R-7", "R-7", "B-3"}

	out := r.ProcessAction("p1", ActionPlayCard, "R-7", true)
	if !out.Applied {
		t.Fatal("Legal play should apply")
	}

	if len(r.Hands["p1"]) != 2 {
		t.Fatalf("Expected 2 cards left, got %d", len(r.Hands["p1"]))
	}
	sevens := 0
	for _, c := range r.Hands["p1"] {
		if c == "R-7" {
			sevens++
		}
	}
	if sevens != 1 {
		t.Errorf("Exactly one R-7 should remain, got %d", sevens)
	}
	if r.DiscardPile[len(r.DiscardPile)-1] != "R-7" {
		t.Error("Played card should sit on the discard top")
	}
}

func TestPlayCard_IgnoresOutOfTurn(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Hands["p2"] = []card.Card{"R-7"}

	out := r.ProcessAction("p2", ActionPlayCard, "R-7", true)
	if out.Applied {
		t.Error("Out-of-turn play must be ignored")
	}
	if len(r.Hands["p2"]) != 1 || r.CurrentPlayerIndex != 0 {
		t.Error("Ignored play must leave the room unchanged")
	}
}

func TestPlayCard_IgnoresUnownedAndMismatched(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Hands["p1"] = []card.Card{"G-3"}

	// Not in hand.
	if out := r.ProcessAction("p1", ActionPlayCard, "R-7", true); out.Applied {
		t.Error("Playing a card not in hand must be ignored")
	}

	// In hand but matches neither the active color nor the top rank.
	if out := r.ProcessAction("p1", ActionPlayCard, "G-3", true); out.Applied {
		t.Error("A color/rank mismatch must be ignored")
	}
}

func TestPlayCard_RankMatchAcrossColors(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Hands["p1"] = []card.Card{"G-5"}

	// Top card is R-5: any 5 is playable regardless of the active color.
	out := r.ProcessAction("p1", ActionPlayCard, "G-5", true)
	if !out.Applied {
		t.Fatal("Rank match should be legal")
	}
	if r.ActiveColor != card.Green {
		t.Errorf("Active color should follow the played card, got %s", r.ActiveColor)
	}
}

func TestSkip_ThreePlayersClockwise(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")
	r.Hands["p1"] = []card.Card{"R-S", "B-1"}

	out := r.ProcessAction("p1", ActionPlayCard, "R-S", true)
	if !out.Applied {
		t.Fatal("Skip play should apply")
	}

	if r.CurrentPlayerIndex != 2 {
		t.Errorf("Turn should land two seats ahead, got index %d", r.CurrentPlayerIndex)
	}
	if r.PendingEvent == nil || r.PendingEvent.Name != EventSkip {
		t.Fatalf("Expected skip event, got %+v", r.PendingEvent)
	}
	if r.PendingEvent.Player != "p2" {
		t.Errorf("Skip event should name the passed-over player p2, got %s", r.PendingEvent.Player)
	}
}

func TestReverse_TwoPlayersActsLikeSkip(t *testing.T) {
	rev := riggedRoom("p1", "p2")
	rev.Hands["p1"] = []card.Card{"R-R", "B-1"}
	rev.ProcessAction("p1", ActionPlayCard, "R-R", true)

	if rev.Direction != -1 {
		t.Errorf("Reverse should flip direction, got %d", rev.Direction)
	}

	skip := riggedRoom("p1", "p2")
	skip.Hands["p1"] = []card.Card{"R-S", "B-1"}
	skip.ProcessAction("p1", ActionPlayCard, "R-S", true)

	if rev.CurrentPlayerIndex != skip.CurrentPlayerIndex {
		t.Errorf("With two players reverse (%d) and skip (%d) must land on the same index",
			rev.CurrentPlayerIndex, skip.CurrentPlayerIndex)
	}
	if rev.CurrentPlayerIndex != 0 {
		t.Errorf("Turn should return to the actor, got %d", rev.CurrentPlayerIndex)
	}
}

func TestDrawTwo_VictimDrawsAndIsPassedOver(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")
	r.Hands["p1"] = []card.Card{"R-D2", "B-1"}

	out := r.ProcessAction("p1", ActionPlayCard, "R-D2", true)
	if !out.Applied {
		t.Fatal("Draw-two play should apply")
	}

	if len(r.Hands["p2"]) != 2 {
		t.Errorf("Victim should draw 2 cards, got %d", len(r.Hands["p2"]))
	}
	if r.CurrentPlayerIndex != 2 {
		t.Errorf("Turn should pass over the victim to index 2, got %d", r.CurrentPlayerIndex)
	}
	ev := r.PendingEvent
	if ev == nil || ev.Name != EventDrawTwo || ev.Player != "p1" || ev.Target != "p2" {
		t.Errorf("Expected draw2 event naming p1 -> p2, got %+v", ev)
	}
}

func TestWild_TwoPhaseColorChoice(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")
	r.Hands["p1"] = []card.Card{"W-Wild", "B-1"}

	out := r.ProcessAction("p1", ActionPlayCard, "W-Wild", true)
	if !out.Applied {
		t.Fatal("Wild play should apply")
	}
	if r.PendingEvent == nil || r.PendingEvent.Name != EventWildPick {
		t.Fatalf("Expected wild_color_pick event, got %+v", r.PendingEvent)
	}
	if r.CurrentPlayerIndex != 0 {
		t.Error("Turn must hold until the color is chosen")
	}
	if r.ActiveColor != card.Red {
		t.Error("Active color must not change before the choice")
	}

	// While the choice is pending, nothing else goes through.
	if out := r.ProcessAction("p1", ActionDrawFromDeck, "", true); out.Applied {
		t.Error("Draw during a pending color choice must be ignored")
	}
	if out := r.ProcessAction("p2", ActionWildColor, "B", true); out.Applied {
		t.Error("Another player's color choice must be ignored")
	}
	if out := r.ProcessAction("p1", ActionWildFourColor, "B", true); out.Applied {
		t.Error("The draw-four resolution does not match a plain wild")
	}

	out = r.ProcessAction("p1", ActionWildColor, "G", true)
	if !out.Applied {
		t.Fatal("The actor's color choice should apply")
	}
	if r.ActiveColor != card.Green {
		t.Errorf("Active color should be green, got %s", r.ActiveColor)
	}
	if r.CurrentPlayerIndex != 1 {
		t.Errorf("Turn should advance after the choice, got %d", r.CurrentPlayerIndex)
	}
}

func TestWildDrawFour_DealsBeforeAdvancing(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")
	r.Hands["p1"] = []card.Card{"W-W4", "B-1"}

	out := r.ProcessAction("p1", ActionPlayCard, "W-W4", true)
	if !out.Applied {
		t.Fatal("Wild draw four play should apply")
	}
	if r.PendingEvent == nil || r.PendingEvent.Name != EventWildPickDraw4 {
		t.Fatalf("Expected wild_color_pick_draw4 event, got %+v", r.PendingEvent)
	}

	out = r.ProcessAction("p1", ActionWildFourColor, "B", true)
	if !out.Applied {
		t.Fatal("Color resolution should apply")
	}
	if r.ActiveColor != card.Blue {
		t.Errorf("Active color should be blue, got %s", r.ActiveColor)
	}
	if len(r.Hands["p2"]) != 4 {
		t.Errorf("Victim should draw 4 cards, got %d", len(r.Hands["p2"]))
	}
	ev := r.PendingEvent
	if ev == nil || ev.Name != EventDrawFour || ev.Player != "p1" || ev.Target != "p2" {
		t.Errorf("Expected draw4 event naming p1 -> p2, got %+v", ev)
	}
	if r.CurrentPlayerIndex != 1 {
		t.Errorf("Turn should advance once, got %d", r.CurrentPlayerIndex)
	}
}

func TestWin_StopsTurnProcessing(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Hands["p1"] = []card.Card{"R-7"}
	r.Hands["p2"] = []card.Card{"B-1"}

	out := r.ProcessAction("p1", ActionPlayCard, "R-7", true)
	if !out.Applied || !out.Won {
		t.Fatalf("Winning play should apply and report the win, got %+v", out)
	}
	if r.PendingEvent == nil || r.PendingEvent.Name != EventWin || r.PendingEvent.Player != "p1" {
		t.Errorf("Expected win event naming p1, got %+v", r.PendingEvent)
	}
	if r.CurrentPlayerIndex != 0 {
		t.Error("No turn advancement may follow a win")
	}
	if r.Winner != "p1" {
		t.Errorf("Winner should be recorded, got %q", r.Winner)
	}

	// The game is over: nothing further applies.
	if out := r.ProcessAction("p2", ActionPlayCard, "B-1", true); out.Applied {
		t.Error("Actions after a win must be ignored")
	}
}

func TestDraw_AdvancesUnlessSuppressed(t *testing.T) {
	r := riggedRoom("p1", "p2")

	out := r.ProcessAction("p1", ActionDrawFromDeck, "", false)
	if !out.Applied {
		t.Fatal("Draw should apply")
	}
	if len(r.Hands["p1"]) != 1 {
		t.Errorf("Expected 1 card drawn, got %d", len(r.Hands["p1"]))
	}
	if r.CurrentPlayerIndex != 0 {
		t.Error("Suppressed draw must not advance the turn")
	}
	if r.PendingEvent == nil || r.PendingEvent.Name != EventDrawCard {
		t.Errorf("Expected draw_card event, got %+v", r.PendingEvent)
	}

	out = r.ProcessAction("p1", ActionDrawFromDeck, "", true)
	if !out.Applied {
		t.Fatal("Draw should apply")
	}
	if r.CurrentPlayerIndex != 1 {
		t.Errorf("Draw should advance the turn, got %d", r.CurrentPlayerIndex)
	}
}

func TestDraw_ReshufflesDiscardWhenDeckEmpties(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Deck = nil
	r.DiscardPile = []card.Card{"R-5", "B-1", "B-2"}

	before := totalCards(r)
	out := r.ProcessAction("p1", ActionDrawFromDeck, "", true)
	if !out.Applied {
		t.Fatal("Draw should succeed by reshuffling the discard pile")
	}

	if len(r.Hands["p1"]) != 1 {
		t.Errorf("Expected 1 card drawn, got %d", len(r.Hands["p1"]))
	}
	if len(r.DiscardPile) != 1 || r.DiscardPile[0] != "B-2" {
		t.Errorf("Reshuffle must keep only the top card, got %v", r.DiscardPile)
	}
	if totalCards(r) != before {
		t.Errorf("Reshuffle must conserve cards: before=%d after=%d", before, totalCards(r))
	}
}

func TestDraw_ExhaustedPilesAreRefused(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Deck = nil
	r.DiscardPile = []card.Card{"R-5"}

	out := r.ProcessAction("p1", ActionDrawFromDeck, "", true)
	if out.Applied {
		t.Error("A draw with no cards anywhere must be ignored")
	}
	if r.CurrentPlayerIndex != 0 || len(r.Hands["p1"]) != 0 {
		t.Error("Refused draw must leave the room unchanged")
	}
}

func TestConservationThroughPlay(t *testing.T) {
	store := NewStore()
	room, _ := store.Create("ABCD", "p1", "P1")
	store.Join("ABCD", "p2", "P2")
	store.Join("ABCD", "p3", "P3")
	if err := room.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 30; i++ {
		actor := room.Players[room.CurrentPlayerIndex]
		room.ProcessAction(actor, ActionDrawFromDeck, "", true)
		if totalCards(room) != card.DeckSize {
			t.Fatalf("Conservation violated after %d draws: %d", i+1, totalCards(room))
		}
	}
}

func TestProcessAction_ClearsPendingEvent(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Hands["p1"] = []card.Card{"R-7", "B-1"}

	r.ProcessAction("p1", ActionPlayCard, "R-7", true)
	if r.PendingEvent == nil {
		t.Fatal("Play should leave an event behind")
	}

	// Even an ignored action consumes the previous event.
	r.ProcessAction("p1", ActionPlayCard, "R-7", true)
	if r.PendingEvent != nil {
		t.Errorf("Pending event should be cleared, got %+v", r.PendingEvent)
	}
}

func TestEnforceTimeout_DrawSkip(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")

	res := r.EnforceTimeout()
	if !res.Acted {
		t.Fatal("Timeout should act on a playing room")
	}
	if len(r.Hands["p1"]) != 1 {
		t.Errorf("Timed-out player should auto-draw one card, got %d", len(r.Hands["p1"]))
	}
	if r.CurrentPlayerIndex != 1 {
		t.Errorf("Turn should pass on, got %d", r.CurrentPlayerIndex)
	}
	if r.Strikes["p1"] != 1 {
		t.Errorf("Strike should be recorded, got %d", r.Strikes["p1"])
	}
}

func TestEnforceTimeout_ForfeitKick(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")
	r.Settings.AFKBehavior = AFKForfeit
	r.Settings.MaxAFKStrikes = 1

	res := r.EnforceTimeout()
	if !res.Acted || res.Removed != "p1" {
		t.Fatalf("Expected p1 to be kicked, got %+v", res)
	}
	if len(r.Players) != 2 {
		t.Errorf("Expected 2 players left, got %d", len(r.Players))
	}
	for _, p := range r.Players {
		if p == "p1" {
			t.Error("Kicked player should be gone from the roster")
		}
	}
}

func TestEnforceTimeout_OnlyConsecutiveStrikesForfeit(t *testing.T) {
	r := riggedRoom("p1", "p2")
	r.Settings.AFKBehavior = AFKForfeit
	r.Settings.MaxAFKStrikes = 2
	r.Hands["p1"] = []card.Card{"R-7", "R-8"}

	if res := r.EnforceTimeout(); res.Removed != "" {
		t.Fatal("A first strike must not kick")
	}

	// p1 acts in time on their next turn, ending the streak.
	r.ProcessAction("p2", ActionDrawFromDeck, "", true)
	if out := r.ProcessAction("p1", ActionPlayCard, "R-7", true); !out.Applied {
		t.Fatal("Timely play should apply")
	}

	r.ProcessAction("p2", ActionDrawFromDeck, "", true)
	if res := r.EnforceTimeout(); res.Removed != "" {
		t.Fatal("Non-consecutive timeouts must not kick")
	}
	if r.Strikes["p1"] != 1 {
		t.Errorf("Streak should have restarted at 1, got %d", r.Strikes["p1"])
	}

	// A second consecutive timeout does kick.
	r.ProcessAction("p2", ActionDrawFromDeck, "", true)
	if res := r.EnforceTimeout(); res.Removed != "p1" {
		t.Errorf("Second consecutive timeout should kick p1, got %+v", res)
	}
}

func TestEnforceTimeout_ResolvesStalledColorPick(t *testing.T) {
	r := riggedRoom("p1", "p2", "p3")
	r.Hands["p1"] = []card.Card{"W-Wild", "B-1"}
	r.ProcessAction("p1", ActionPlayCard, "W-Wild", true)

	res := r.EnforceTimeout()
	if !res.Acted {
		t.Fatal("Timeout should resolve the stalled pick")
	}
	if !card.IsRegularColor(r.ActiveColor) {
		t.Errorf("A color must be chosen, got %q", r.ActiveColor)
	}
	if r.CurrentPlayerIndex != 1 {
		t.Errorf("Turn should advance, got %d", r.CurrentPlayerIndex)
	}
}
