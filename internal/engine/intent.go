package engine

import (
	"encoding/json"

	"duelboard/internal/domain"
)

// Intent type discriminators as they appear on the wire.
const (
	TypeDrawCard    = "DRAW_CARD"
	TypeMoveCard    = "MOVE_CARD"
	TypeToggleTap   = "TOGGLE_TAP"
	TypeDeckPlace   = "DECK_PLACE"
	TypeReorderZone = "REORDER_ZONE"
)

// Mark kinds for ToggleTap.
const (
	MarkTapped = "tapped"
	MarkTarped = "tarped"
)

// Deck placement positions for DeckPlace.
const (
	DeckTop    = "top"
	DeckBottom = "bottom"
)

// Intent is the closed set of mutations a client can request. One concrete
// type per intent kind, each carrying exactly the fields that kind needs, so
// the applier is an exhaustive switch rather than field probing.
type Intent interface {
	intentType() string
}

// DrawCard moves the top card of the owner's deck to the front of their hand.
type DrawCard struct {
	Owner domain.Role
}

// MoveCard moves one card between two zone references.
type MoveCard struct {
	CardID domain.CardID
	From   domain.ZoneRef
	To     domain.ZoneRef
}

// ToggleTap flips one of the two mutually exclusive mark maps for a card.
type ToggleTap struct {
	CardID domain.CardID
	Kind   string
}

// DeckPlace moves a card from a zone to the top or bottom of a deck.
type DeckPlace struct {
	CardID domain.CardID
	From   domain.ZoneRef
	Owner  domain.Role
	Where  string
}

// ReorderZone replaces a zone's order with a permutation of its contents.
type ReorderZone struct {
	Owner domain.Role
	Zone  domain.ZoneName
	IDs   []domain.CardID
}

func (DrawCard) intentType() string    { return TypeDrawCard }
func (MoveCard) intentType() string    { return TypeMoveCard }
func (ToggleTap) intentType() string   { return TypeToggleTap }
func (DeckPlace) intentType() string   { return TypeDeckPlace }
func (ReorderZone) intentType() string { return TypeReorderZone }

// wireRef is the zone reference shape inside intent payloads.
type wireRef struct {
	Owner string `json:"owner"`
	Zone  string `json:"zone"`
}

func (r wireRef) resolve() (domain.ZoneRef, *Rejection) {
	zone, err := domain.ParseZoneName(r.Zone)
	if err != nil {
		// A reference to a zone that does not exist can never be
		// authorized, so it fails closed as an access failure.
		return domain.ZoneRef{}, Reject(CodeZoneAccessDenied, "unknown zone %q", r.Zone)
	}
	if zone.Shared() {
		return domain.ZoneRef{Zone: zone}, nil
	}
	owner, err := domain.ParseRole(r.Owner)
	if err != nil {
		return domain.ZoneRef{}, Reject(CodeZoneAccessDenied, "unknown owner %q", r.Owner)
	}
	return domain.ZoneRef{Owner: owner, Zone: zone}, nil
}

// Decode parses a wire intent into its typed form. The payload is decoded
// per discriminator; card ids are normalized whether they arrive as JSON
// numbers or strings.
func Decode(intentType string, payload json.RawMessage) (Intent, *Rejection) {
	if payload == nil {
		payload = json.RawMessage("{}")
	}
	switch intentType {
	case TypeDrawCard:
		var p struct {
			Owner string `json:"owner"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, Reject(CodeUnknownIntentType, "malformed %s payload: %v", intentType, err)
		}
		owner, err := domain.ParseRole(p.Owner)
		if err != nil {
			return nil, Reject(CodeZoneAccessDenied, "unknown owner %q", p.Owner)
		}
		return DrawCard{Owner: owner}, nil

	case TypeMoveCard:
		var p struct {
			CardID domain.CardID `json:"cardId"`
			From   wireRef       `json:"from"`
			To     wireRef       `json:"to"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, Reject(CodeUnknownIntentType, "malformed %s payload: %v", intentType, err)
		}
		from, rej := p.From.resolve()
		if rej != nil {
			return nil, rej
		}
		to, rej := p.To.resolve()
		if rej != nil {
			return nil, rej
		}
		return MoveCard{CardID: p.CardID, From: from, To: to}, nil

	case TypeToggleTap:
		var p struct {
			CardID domain.CardID `json:"cardId"`
			Kind   string        `json:"kind"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, Reject(CodeUnknownIntentType, "malformed %s payload: %v", intentType, err)
		}
		if p.Kind != MarkTapped && p.Kind != MarkTarped {
			return nil, Reject(CodeUnknownIntentType, "unknown mark kind %q", p.Kind)
		}
		return ToggleTap{CardID: p.CardID, Kind: p.Kind}, nil

	case TypeDeckPlace:
		var p struct {
			CardID domain.CardID `json:"cardId"`
			From   wireRef       `json:"from"`
			Owner  string        `json:"owner"`
			Where  string        `json:"where"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, Reject(CodeUnknownIntentType, "malformed %s payload: %v", intentType, err)
		}
		from, rej := p.From.resolve()
		if rej != nil {
			return nil, rej
		}
		owner, err := domain.ParseRole(p.Owner)
		if err != nil {
			return nil, Reject(CodeZoneAccessDenied, "unknown owner %q", p.Owner)
		}
		if p.Where != DeckTop && p.Where != DeckBottom {
			return nil, Reject(CodeUnknownIntentType, "unknown placement %q", p.Where)
		}
		return DeckPlace{CardID: p.CardID, From: from, Owner: owner, Where: p.Where}, nil

	case TypeReorderZone:
		var p struct {
			Owner string          `json:"owner"`
			Zone  string          `json:"zone"`
			IDs   []domain.CardID `json:"ids"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, Reject(CodeUnknownIntentType, "malformed %s payload: %v", intentType, err)
		}
		ref, rej := wireRef{Owner: p.Owner, Zone: p.Zone}.resolve()
		if rej != nil {
			return nil, rej
		}
		return ReorderZone{Owner: ref.Owner, Zone: ref.Zone, IDs: p.IDs}, nil
	}

	return nil, Reject(CodeUnknownIntentType, "unknown intent type %q", intentType)
}
