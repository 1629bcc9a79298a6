package domain

import (
	"hash/fnv"
	"strconv"
)

const (
	// BaseDeckSize is the number of card instances each seat starts with.
	BaseDeckSize = 20
	// OpeningHandSize is how many cards each seat draws at room creation.
	OpeningHandSize = 3
)

// baseDeckFirstID gives each seat a disjoint block of instance ids so the
// conservation invariant is checkable across the whole room.
var baseDeckFirstID = map[Role]int{
	RoleP1: 101,
	RoleP2: 201,
}

// DealOffset derives the deterministic rotation offset for a room from the
// creating player's id.
func DealOffset(creatorID string) int {
	h := fnv.New32a()
	h.Write([]byte(creatorID))
	return int(h.Sum32() % BaseDeckSize)
}

// baseDeck returns the seat's card instance ids in canonical order.
func baseDeck(role Role) []CardID {
	first := baseDeckFirstID[role]
	ids := make([]CardID, 0, BaseDeckSize)
	for i := 0; i < BaseDeckSize; i++ {
		ids = append(ids, CardID(strconv.Itoa(first+i)))
	}
	return ids
}

// NewGameState seeds a fresh room document: both seats dealt a rotated copy
// of their base deck with an opening hand drawn, the creator seated as p1,
// p2 left open, version at 1.
func NewGameState(creatorID, creatorName string) *GameState {
	offset := DealOffset(creatorID)
	state := &GameState{
		Seats: map[Role]*Seat{
			RoleP1: {PlayerID: creatorID, Name: creatorName},
			RoleP2: {},
		},
		Tapped:  make(map[CardID]bool),
		Tarped:  make(map[CardID]bool),
		Version: 1,
	}
	for role, seat := range state.Seats {
		base := baseDeck(role)
		for i := range base {
			seat.Zones.Deck.InsertBack(base[(i+offset)%BaseDeckSize])
		}
		// Opening hand uses the same operation a live draw does: deck
		// front removed, hand front gains it.
		for i := 0; i < OpeningHandSize; i++ {
			id, ok := seat.Zones.Deck.RemoveFront()
			if !ok {
				break
			}
			seat.Zones.Hand.InsertFront(id)
		}
	}
	return state
}
