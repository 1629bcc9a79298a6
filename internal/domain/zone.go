package domain

import (
	"encoding/json"
	"fmt"
)

// Zone is an ordered sequence of card instance ids. Order is meaningful:
// index 0 is the top/next-drawn card of a deck and the display front of a
// hand; the end of the stack zone is its top. All mutation goes through the
// methods below so each call site preserves the zone's invariants.
type Zone struct {
	cards []CardID
}

// NewZone builds a zone holding the given ids in order.
func NewZone(ids ...CardID) Zone {
	return Zone{cards: append([]CardID(nil), ids...)}
}

// Len returns the number of cards in the zone.
func (z *Zone) Len() int { return len(z.cards) }

// Cards returns a copy of the zone's contents in order.
func (z *Zone) Cards() []CardID {
	return append([]CardID(nil), z.cards...)
}

// Contains reports whether the id is present in the zone.
func (z *Zone) Contains(id CardID) bool {
	for _, c := range z.cards {
		if c == id {
			return true
		}
	}
	return false
}

// Remove deletes the first occurrence of id, reporting whether it was found.
func (z *Zone) Remove(id CardID) bool {
	for i, c := range z.cards {
		if c == id {
			z.cards = append(z.cards[:i], z.cards[i+1:]...)
			z.normalize()
			return true
		}
	}
	return false
}

// InsertFront places id at index 0.
func (z *Zone) InsertFront(id CardID) {
	z.cards = append([]CardID{id}, z.cards...)
}

// InsertBack appends id to the end of the zone.
func (z *Zone) InsertBack(id CardID) {
	z.cards = append(z.cards, id)
}

// Front returns the card at index 0, if any.
func (z *Zone) Front() (CardID, bool) {
	if len(z.cards) == 0 {
		return "", false
	}
	return z.cards[0], true
}

// RemoveFront removes and returns the card at index 0, if any.
func (z *Zone) RemoveFront() (CardID, bool) {
	if len(z.cards) == 0 {
		return "", false
	}
	id := z.cards[0]
	z.cards = z.cards[1:]
	z.normalize()
	return id, true
}

// normalize keeps the empty zone in one canonical form (nil cards), so a
// zone drained by removals compares equal to a fresh or cloned empty zone.
func (z *Zone) normalize() {
	if len(z.cards) == 0 {
		z.cards = nil
	}
}

// ReplaceOrder replaces the zone's order with ids. The new order must be a
// permutation of the current contents; anything that adds, drops or
// duplicates ids fails and leaves the zone unchanged.
func (z *Zone) ReplaceOrder(ids []CardID) error {
	if len(ids) != len(z.cards) {
		return fmt.Errorf("reorder has %d ids, zone holds %d", len(ids), len(z.cards))
	}
	counts := make(map[CardID]int, len(z.cards))
	for _, c := range z.cards {
		counts[c]++
	}
	for _, id := range ids {
		counts[id]--
		if counts[id] < 0 {
			return fmt.Errorf("reorder names id %q not in zone", id)
		}
	}
	z.cards = append([]CardID(nil), ids...)
	return nil
}

// Clone returns an independent copy of the zone.
func (z *Zone) Clone() Zone {
	return Zone{cards: append([]CardID(nil), z.cards...)}
}

// MarshalJSON encodes the zone as a plain JSON array of ids.
func (z Zone) MarshalJSON() ([]byte, error) {
	if z.cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(z.cards)
}

// UnmarshalJSON decodes a JSON array of ids (numbers or strings).
func (z *Zone) UnmarshalJSON(data []byte) error {
	var ids []CardID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	z.cards = ids
	z.normalize()
	return nil
}
