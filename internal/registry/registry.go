// Package registry owns the process-wide collection of live rooms. It is
// constructed once at startup and handed to every component that needs it;
// nothing here is an ambient global. Rooms survive seat vacancy and die only
// through explicit deletion or the idle-eviction policy.
package registry

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"duelboard/internal/domain"
	"duelboard/internal/engine"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrCodeInUse    = errors.New("room code already in use")
	ErrInvalidCode  = errors.New("invalid room code")
	ErrRoomLimit    = errors.New("room limit reached")
)

// Options tunes a Registry. The zero value disables the capacity cap and
// idle eviction; Now and Rand default to the clock and a time-seeded source.
type Options struct {
	MaxRooms      int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
	Rand          *rand.Rand
}

// Summary is one lobby row. It never exposes private zone contents.
type Summary struct {
	RoomID   string `json:"roomId"`
	P1Filled bool   `json:"p1Filled"`
	P2Filled bool   `json:"p2Filled"`
}

type room struct {
	id string

	// mu serializes every read and mutation of state, so intents on one
	// room apply in strict arrival order while other rooms run in parallel.
	mu         sync.Mutex
	state      *domain.GameState
	lastActive time.Time
}

// Registry is the shared room collection.
type Registry struct {
	opts Options

	mu        sync.RWMutex
	rooms     map[string]*room
	lastSweep time.Time
}

// New builds an empty registry.
func New(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &Registry{
		opts:  opts,
		rooms: make(map[string]*room),
	}
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Exists reports whether the room code is live.
func (r *Registry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[NormalizeCode(roomID)]
	return ok
}

// CreateRoom allocates a fresh room, seats the creator as p1 with a dealt
// deck and opening hand, and leaves p2 open. A requested code is honored if
// it sticks to the alphabet and is not already in use.
func (r *Registry) CreateRoom(playerID, playerName, requestedCode string) (string, *domain.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpiredLocked()
	if r.opts.MaxRooms > 0 && len(r.rooms) >= r.opts.MaxRooms {
		return "", nil, ErrRoomLimit
	}

	code := NormalizeCode(requestedCode)
	if code != "" {
		if !ValidCode(code) {
			return "", nil, ErrInvalidCode
		}
		if _, taken := r.rooms[code]; taken {
			return "", nil, ErrCodeInUse
		}
	} else {
		for {
			code = generateCode(r.opts.Rand)
			if _, taken := r.rooms[code]; !taken {
				break
			}
		}
	}

	rm := &room{
		id:         code,
		state:      domain.NewGameState(playerID, playerName),
		lastActive: r.opts.Now(),
	}
	r.rooms[code] = rm
	return code, rm.state.Clone(), nil
}

// JoinRoom seats a player. A player already holding a seat gets that seat
// back untouched (reconnect); otherwise an open seat is claimed, preferring
// the requested role when that seat is open.
func (r *Registry) JoinRoom(roomID, playerID, playerName string, preferred domain.Role) (domain.Role, *domain.GameState, error) {
	rm, err := r.room(roomID)
	if err != nil {
		return "", nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.lastActive = r.opts.Now()

	for _, role := range []domain.Role{domain.RoleP1, domain.RoleP2} {
		if rm.state.Seat(role).PlayerID == playerID {
			return role, rm.state.Clone(), nil
		}
	}

	order := []domain.Role{domain.RoleP1, domain.RoleP2}
	if preferred == domain.RoleP2 {
		order = []domain.Role{domain.RoleP2, domain.RoleP1}
	}
	for _, role := range order {
		seat := rm.state.Seat(role)
		if seat.Open() {
			seat.PlayerID = playerID
			seat.Name = playerName
			return role, rm.state.Clone(), nil
		}
	}
	return "", nil, ErrRoomFull
}

// VacateSeat clears the seat held by the player, leaving the room itself
// alive for the other seat or a reconnecting player.
func (r *Registry) VacateSeat(roomID, playerID string) error {
	rm, err := r.room(roomID)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, role := range []domain.Role{domain.RoleP1, domain.RoleP2} {
		seat := rm.state.Seat(role)
		if seat.PlayerID == playerID {
			seat.PlayerID = ""
			seat.Name = ""
		}
	}
	return nil
}

// ResolveSeat maps a player to their role in the room, if any.
func (r *Registry) ResolveSeat(roomID, playerID string) (domain.Role, bool, error) {
	rm, err := r.room(roomID)
	if err != nil {
		return "", false, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, role := range []domain.Role{domain.RoleP1, domain.RoleP2} {
		if rm.state.Seat(role).PlayerID == playerID && playerID != "" {
			return role, true, nil
		}
	}
	return "", false, nil
}

// StateSnapshot returns a deep copy of the room's current state.
func (r *Registry) StateSnapshot(roomID string) (*domain.GameState, error) {
	rm, err := r.room(roomID)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.state.Clone(), nil
}

// ApplyIntent routes an intent to its room, resolves the acting seat, and
// applies it under the room's lock. The returned state is always the
// canonical post-call document: updated on acceptance, untouched on
// rejection, ready for broadcast or client repair either way.
func (r *Registry) ApplyIntent(roomID, playerID string, baseVersion int, intent engine.Intent) (*domain.GameState, domain.Role, *engine.Rejection, error) {
	rm, err := r.room(roomID)
	if err != nil {
		return nil, "", nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.lastActive = r.opts.Now()

	var acting domain.Role
	for _, role := range []domain.Role{domain.RoleP1, domain.RoleP2} {
		if rm.state.Seat(role).PlayerID == playerID && playerID != "" {
			acting = role
			break
		}
	}
	if acting == "" {
		return rm.state.Clone(), "", engine.Reject(engine.CodeZoneAccessDenied, "player holds no seat in room %s", rm.id), nil
	}

	if rej := engine.Apply(rm.state, acting, baseVersion, intent); rej != nil {
		return rm.state.Clone(), acting, rej, nil
	}
	return rm.state.Clone(), acting, nil, nil
}

// ListOpenRooms is the lobby snapshot.
func (r *Registry) ListOpenRooms() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rm.mu.Lock()
		out = append(out, Summary{
			RoomID:   rm.id,
			P1Filled: !rm.state.Seat(domain.RoleP1).Open(),
			P2Filled: !rm.state.Seat(domain.RoleP2).Open(),
		})
		rm.mu.Unlock()
	}
	return out
}

// DeleteRoom tears down one room. Deleting an unknown code is not an error;
// the return reports whether anything was removed.
func (r *Registry) DeleteRoom(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	code := NormalizeCode(roomID)
	if _, ok := r.rooms[code]; !ok {
		return false
	}
	delete(r.rooms, code)
	return true
}

// DeleteAllRooms tears down every room, returning how many were removed.
func (r *Registry) DeleteAllRooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.rooms)
	r.rooms = make(map[string]*room)
	return n
}

// Sweep evicts rooms idle past the configured timeout and returns their
// codes. It throttles itself to the sweep interval so callers can invoke it
// opportunistically (every match tick) without cost.
func (r *Registry) Sweep() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.Now().Sub(r.lastSweep) < r.opts.SweepInterval {
		return nil
	}
	return r.evictExpiredLocked()
}

func (r *Registry) evictExpiredLocked() []string {
	r.lastSweep = r.opts.Now()
	if r.opts.IdleTimeout <= 0 {
		return nil
	}
	cutoff := r.opts.Now().Add(-r.opts.IdleTimeout)
	var evicted []string
	for code, rm := range r.rooms {
		rm.mu.Lock()
		idle := rm.lastActive.Before(cutoff)
		rm.mu.Unlock()
		if idle {
			delete(r.rooms, code)
			evicted = append(evicted, code)
		}
	}
	return evicted
}

func (r *Registry) room(roomID string) (*room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[NormalizeCode(roomID)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}
