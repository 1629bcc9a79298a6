package domain

import "fmt"

// Role identifies one of the two seats in a room.
type Role string

const (
	RoleP1 Role = "p1"
	RoleP2 Role = "p2"
)

// ParseRole validates a client-supplied role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleP1, RoleP2:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ZoneName names one of the fixed zones in a room.
type ZoneName string

const (
	ZoneHand       ZoneName = "hand"
	ZoneDeck       ZoneName = "deck"
	ZoneGraveyard  ZoneName = "graveyard"
	ZoneLands      ZoneName = "lands"
	ZonePermanents ZoneName = "permanents"
	ZoneStack      ZoneName = "stack"
)

// ParseZoneName validates a client-supplied zone name.
func ParseZoneName(s string) (ZoneName, error) {
	switch ZoneName(s) {
	case ZoneHand, ZoneDeck, ZoneGraveyard, ZoneLands, ZonePermanents, ZoneStack:
		return ZoneName(s), nil
	}
	return "", fmt.Errorf("unknown zone %q", s)
}

// Public reports whether any seat may act on the zone regardless of
// ownership. Hand, deck and graveyard are private to their owning seat;
// lands and permanents are owned but publicly actionable; the stack is
// shared outright.
func (n ZoneName) Public() bool {
	switch n {
	case ZoneLands, ZonePermanents, ZoneStack:
		return true
	}
	return false
}

// Shared reports whether the zone belongs to the room rather than a seat.
func (n ZoneName) Shared() bool { return n == ZoneStack }

// ZoneRef names a zone inside a room. Owner is ignored for shared zones.
type ZoneRef struct {
	Owner Role
	Zone  ZoneName
}

// SeatZones holds the per-seat zones.
type SeatZones struct {
	Hand       Zone `json:"hand"`
	Deck       Zone `json:"deck"`
	Graveyard  Zone `json:"graveyard"`
	Lands      Zone `json:"lands"`
	Permanents Zone `json:"permanents"`
}

// Seat is one of the two participant slots. An empty PlayerID marks the
// seat as open for a joining player to claim.
type Seat struct {
	PlayerID string    `json:"id"`
	Name     string    `json:"name"`
	Zones    SeatZones `json:"zones"`
}

// Open reports whether the seat has no occupant.
func (s *Seat) Open() bool { return s.PlayerID == "" }

// Zone returns the seat's zone with the given name, or nil for shared or
// unknown names.
func (s *Seat) Zone(name ZoneName) *Zone {
	switch name {
	case ZoneHand:
		return &s.Zones.Hand
	case ZoneDeck:
		return &s.Zones.Deck
	case ZoneGraveyard:
		return &s.Zones.Graveyard
	case ZoneLands:
		return &s.Zones.Lands
	case ZonePermanents:
		return &s.Zones.Permanents
	}
	return nil
}

// SharedZones holds the zones owned by the room itself.
type SharedZones struct {
	Stack Zone `json:"stack"`
}

// GameState is the authoritative per-room document. Version starts at 1 and
// increases by exactly 1 per accepted intent.
type GameState struct {
	Seats       map[Role]*Seat  `json:"seats"`
	SharedZones SharedZones     `json:"sharedZones"`
	Tapped      map[CardID]bool `json:"tapped"`
	Tarped      map[CardID]bool `json:"tarped"`
	Version     int             `json:"version"`
}

// Seat returns the seat for the role, or nil for an unknown role.
func (g *GameState) Seat(role Role) *Seat {
	return g.Seats[role]
}

// ZoneFor resolves a zone reference against the state. Shared zones resolve
// regardless of the reference's owner.
func (g *GameState) ZoneFor(ref ZoneRef) *Zone {
	if ref.Zone.Shared() {
		return &g.SharedZones.Stack
	}
	seat := g.Seats[ref.Owner]
	if seat == nil {
		return nil
	}
	return seat.Zone(ref.Zone)
}

// Clone returns a deep copy, safe to marshal or inspect while the original
// keeps mutating under its room's lock.
func (g *GameState) Clone() *GameState {
	out := &GameState{
		Seats:       make(map[Role]*Seat, len(g.Seats)),
		SharedZones: SharedZones{Stack: g.SharedZones.Stack.Clone()},
		Tapped:      make(map[CardID]bool, len(g.Tapped)),
		Tarped:      make(map[CardID]bool, len(g.Tarped)),
		Version:     g.Version,
	}
	for role, seat := range g.Seats {
		out.Seats[role] = &Seat{
			PlayerID: seat.PlayerID,
			Name:     seat.Name,
			Zones: SeatZones{
				Hand:       seat.Zones.Hand.Clone(),
				Deck:       seat.Zones.Deck.Clone(),
				Graveyard:  seat.Zones.Graveyard.Clone(),
				Lands:      seat.Zones.Lands.Clone(),
				Permanents: seat.Zones.Permanents.Clone(),
			},
		}
	}
	for id, v := range g.Tapped {
		out.Tapped[id] = v
	}
	for id, v := range g.Tarped {
		out.Tarped[id] = v
	}
	return out
}

// CardCounts returns the multiset of every card id across all zones in the
// room. Move-type intents must leave it invariant.
func (g *GameState) CardCounts() map[CardID]int {
	counts := make(map[CardID]int)
	add := func(z *Zone) {
		for _, id := range z.Cards() {
			counts[id]++
		}
	}
	for _, seat := range g.Seats {
		add(&seat.Zones.Hand)
		add(&seat.Zones.Deck)
		add(&seat.Zones.Graveyard)
		add(&seat.Zones.Lands)
		add(&seat.Zones.Permanents)
	}
	add(&g.SharedZones.Stack)
	return counts
}
