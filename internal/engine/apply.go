package engine

import "duelboard/internal/domain"

// Apply validates an intent against the current state and, if every check
// passes, mutates the state and increments its version by exactly 1. Any
// rejection leaves the state untouched: all validation happens before the
// first mutation, so a refused intent has no partial side effects.
//
// Callers must serialize invocations per room; Apply itself takes no locks.
func Apply(state *domain.GameState, acting domain.Role, baseVersion int, intent Intent) *Rejection {
	if baseVersion != state.Version {
		return Reject(CodeVersionMismatch, "intent built against version %d, room is at %d", baseVersion, state.Version)
	}

	switch it := intent.(type) {
	case DrawCard:
		return applyDraw(state, acting, it)
	case MoveCard:
		return applyMove(state, acting, it)
	case ToggleTap:
		return applyToggleTap(state, it)
	case DeckPlace:
		return applyDeckPlace(state, acting, it)
	case ReorderZone:
		return applyReorder(state, acting, it)
	}
	return Reject(CodeUnknownIntentType, "unhandled intent %T", intent)
}

// authorize applies the zone-access rule: public zones are open to any seat,
// private zones only to their owning seat.
func authorize(ref domain.ZoneRef, acting domain.Role) *Rejection {
	if ref.Zone.Public() {
		return nil
	}
	if ref.Owner != acting {
		return Reject(CodeZoneAccessDenied, "%s may not touch %s's %s", acting, ref.Owner, ref.Zone)
	}
	return nil
}

func applyDraw(state *domain.GameState, acting domain.Role, it DrawCard) *Rejection {
	// A player may only draw from their own deck.
	if it.Owner != acting {
		return Reject(CodeZoneAccessDenied, "%s may not draw from %s's deck", acting, it.Owner)
	}
	seat := state.Seat(it.Owner)
	if seat.Zones.Deck.Len() == 0 {
		return Reject(CodeDeckEmpty, "%s's deck is empty", it.Owner)
	}

	id, _ := seat.Zones.Deck.RemoveFront()
	seat.Zones.Hand.InsertFront(id)
	state.Version++
	return nil
}

func applyMove(state *domain.GameState, acting domain.Role, it MoveCard) *Rejection {
	if rej := authorize(it.From, acting); rej != nil {
		return rej
	}
	if rej := authorize(it.To, acting); rej != nil {
		return rej
	}

	from := state.ZoneFor(it.From)
	to := state.ZoneFor(it.To)
	if from == nil || to == nil {
		return Reject(CodeZoneAccessDenied, "unresolvable zone reference")
	}
	if !from.Contains(it.CardID) {
		return Reject(CodeCardNotInSource, "card %q not in %s/%s", it.CardID, it.From.Owner, it.From.Zone)
	}

	from.Remove(it.CardID)
	to.InsertBack(it.CardID)
	state.Version++
	return nil
}

func applyToggleTap(state *domain.GameState, it ToggleTap) *Rejection {
	// Tap state is public board information; no zone reference, no privacy
	// check. The two mark maps stay mutually exclusive per card.
	flip := func(target, other map[domain.CardID]bool) {
		now := !target[it.CardID]
		delete(other, it.CardID)
		if now {
			target[it.CardID] = true
		} else {
			delete(target, it.CardID)
		}
	}
	if it.Kind == MarkTapped {
		flip(state.Tapped, state.Tarped)
	} else {
		flip(state.Tarped, state.Tapped)
	}
	state.Version++
	return nil
}

func applyDeckPlace(state *domain.GameState, acting domain.Role, it DeckPlace) *Rejection {
	if rej := authorize(it.From, acting); rej != nil {
		return rej
	}
	// Only one's own deck accepts placements.
	if it.Owner != acting {
		return Reject(CodeZoneAccessDenied, "%s may not place into %s's deck", acting, it.Owner)
	}

	from := state.ZoneFor(it.From)
	if from == nil {
		return Reject(CodeZoneAccessDenied, "unresolvable zone reference")
	}
	if !from.Contains(it.CardID) {
		return Reject(CodeCardNotInSource, "card %q not in %s/%s", it.CardID, it.From.Owner, it.From.Zone)
	}

	from.Remove(it.CardID)
	deck := &state.Seat(it.Owner).Zones.Deck
	if it.Where == DeckTop {
		deck.InsertFront(it.CardID)
	} else {
		deck.InsertBack(it.CardID)
	}
	state.Version++
	return nil
}

func applyReorder(state *domain.GameState, acting domain.Role, it ReorderZone) *Rejection {
	ref := domain.ZoneRef{Owner: it.Owner, Zone: it.Zone}
	if rej := authorize(ref, acting); rej != nil {
		return rej
	}

	zone := state.ZoneFor(ref)
	if zone == nil {
		return Reject(CodeZoneAccessDenied, "unresolvable zone reference")
	}
	if err := zone.ReplaceOrder(it.IDs); err != nil {
		return Reject(CodeInvalidReorder, "%v", err)
	}
	state.Version++
	return nil
}
