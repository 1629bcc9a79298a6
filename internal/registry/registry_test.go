package registry

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"duelboard/internal/domain"
	"duelboard/internal/engine"
)

// testClock is a manual clock for eviction tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(opts Options) *Registry {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(7))
	}
	return New(opts)
}

func TestCreateRoomSeatsCreator(t *testing.T) {
	reg := newTestRegistry(Options{})

	code, state, err := reg.CreateRoom("u1", "Alice", "")
	if err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if !ValidCode(code) {
		t.Fatalf("generated code %q is invalid", code)
	}
	if state.Seat(domain.RoleP1).PlayerID != "u1" {
		t.Fatal("creator not seated as p1")
	}
	if !state.Seat(domain.RoleP2).Open() {
		t.Fatal("p2 should be open")
	}
	if state.Version != 1 {
		t.Fatalf("version = %d, want 1", state.Version)
	}
}

func TestCreateRoomRequestedCode(t *testing.T) {
	reg := newTestRegistry(Options{})

	code, _, err := reg.CreateRoom("u1", "Alice", "tabq7")
	if err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if code != "TABQ7" {
		t.Fatalf("code = %q, want TABQ7", code)
	}

	if _, _, err := reg.CreateRoom("u2", "Bob", "TABQ7"); !errors.Is(err, ErrCodeInUse) {
		t.Fatalf("duplicate code error = %v, want ErrCodeInUse", err)
	}
	if _, _, err := reg.CreateRoom("u2", "Bob", "BAD 0DE"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("invalid code error = %v, want ErrInvalidCode", err)
	}
	// "TABLE7" reads fine but L is outside the alphabet; requested codes get
	// the same validation as generated ones.
	if _, _, err := reg.CreateRoom("u2", "Bob", "table7"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("ambiguous-letter code error = %v, want ErrInvalidCode", err)
	}
}

func TestJoinRoom(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, _, _ := reg.CreateRoom("u1", "Alice", "")

	role, state, err := reg.JoinRoom(code, "u2", "Bob", "")
	if err != nil {
		t.Fatalf("JoinRoom error: %v", err)
	}
	if role != domain.RoleP2 {
		t.Fatalf("role = %s, want p2", role)
	}
	if state.Seat(domain.RoleP2).Name != "Bob" {
		t.Fatal("p2 name not recorded")
	}

	// Reconnect is idempotent and does not touch the other seat.
	again, state, err := reg.JoinRoom(code, "u2", "Bobby", "p1")
	if err != nil {
		t.Fatalf("reconnect error: %v", err)
	}
	if again != domain.RoleP2 {
		t.Fatalf("reconnect role = %s, want p2", again)
	}
	if state.Seat(domain.RoleP2).Name != "Bob" {
		t.Fatal("reconnect rewrote the seat name")
	}
	if state.Seat(domain.RoleP1).PlayerID != "u1" {
		t.Fatal("reconnect touched p1")
	}

	if _, _, err := reg.JoinRoom(code, "u3", "Carol", ""); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("third player error = %v, want ErrRoomFull", err)
	}
	if _, _, err := reg.JoinRoom("ZZZZZ", "u3", "Carol", ""); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room error = %v, want ErrRoomNotFound", err)
	}
}

func TestJoinRoomPreferredRole(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, _, _ := reg.CreateRoom("u1", "Alice", "")
	reg.VacateSeat(code, "u1")

	role, _, err := reg.JoinRoom(code, "u2", "Bob", domain.RoleP2)
	if err != nil {
		t.Fatalf("JoinRoom error: %v", err)
	}
	if role != domain.RoleP2 {
		t.Fatalf("role = %s, want preferred p2", role)
	}

	// Preferred seat taken: fall back to the remaining open seat.
	role, _, err = reg.JoinRoom(code, "u3", "Carol", domain.RoleP2)
	if err != nil {
		t.Fatalf("JoinRoom error: %v", err)
	}
	if role != domain.RoleP1 {
		t.Fatalf("role = %s, want fallback p1", role)
	}
}

func TestVacateSeatKeepsRoomAlive(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, _, _ := reg.CreateRoom("u1", "Alice", "")
	reg.JoinRoom(code, "u2", "Bob", "")

	if err := reg.VacateSeat(code, "u1"); err != nil {
		t.Fatalf("VacateSeat error: %v", err)
	}
	if !reg.Exists(code) {
		t.Fatal("room torn down on seat vacancy")
	}

	state, _ := reg.StateSnapshot(code)
	if !state.Seat(domain.RoleP1).Open() {
		t.Fatal("p1 still occupied after vacate")
	}
	if state.Seat(domain.RoleP2).PlayerID != "u2" {
		t.Fatal("vacate touched the other seat")
	}
}

func TestResolveSeat(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, _, _ := reg.CreateRoom("u1", "Alice", "")

	role, ok, err := reg.ResolveSeat(code, "u1")
	if err != nil || !ok || role != domain.RoleP1 {
		t.Fatalf("ResolveSeat(u1) = %s,%v,%v", role, ok, err)
	}
	if _, ok, _ := reg.ResolveSeat(code, "stranger"); ok {
		t.Fatal("stranger resolved to a seat")
	}
	// An open seat's empty id must not resolve.
	if _, ok, _ := reg.ResolveSeat(code, ""); ok {
		t.Fatal("empty player id resolved to the open seat")
	}
	if _, _, err := reg.ResolveSeat("ZZZZZ", "u1"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room error = %v, want ErrRoomNotFound", err)
	}
}

func TestListOpenRoomsExposesNoZoneContents(t *testing.T) {
	reg := newTestRegistry(Options{})
	a, _, _ := reg.CreateRoom("u1", "Alice", "")
	b, _, _ := reg.CreateRoom("u2", "Bob", "")
	reg.JoinRoom(b, "u3", "Carol", "")

	rooms := reg.ListOpenRooms()
	if len(rooms) != 2 {
		t.Fatalf("lobby rows = %d, want 2", len(rooms))
	}
	byID := map[string]Summary{}
	for _, s := range rooms {
		byID[s.RoomID] = s
	}
	if s := byID[a]; !s.P1Filled || s.P2Filled {
		t.Fatalf("room %s summary = %+v", a, s)
	}
	if s := byID[b]; !s.P1Filled || !s.P2Filled {
		t.Fatalf("room %s summary = %+v", b, s)
	}

	// The serialized lobby row carries only the code and fill flags.
	data, _ := json.Marshal(rooms[0])
	var row map[string]any
	json.Unmarshal(data, &row)
	if len(row) != 3 {
		t.Fatalf("summary fields = %v, want roomId/p1Filled/p2Filled only", row)
	}
}

func TestDeleteRoomIdempotent(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, _, _ := reg.CreateRoom("u1", "Alice", "")

	if !reg.DeleteRoom(code) {
		t.Fatal("delete existing room = false")
	}
	if reg.DeleteRoom(code) {
		t.Fatal("second delete = true")
	}
	if reg.Exists(code) {
		t.Fatal("room still exists")
	}

	reg.CreateRoom("u1", "Alice", "")
	reg.CreateRoom("u2", "Bob", "")
	if n := reg.DeleteAllRooms(); n != 2 {
		t.Fatalf("DeleteAllRooms = %d, want 2", n)
	}
	if n := reg.DeleteAllRooms(); n != 0 {
		t.Fatalf("repeat DeleteAllRooms = %d, want 0", n)
	}
}

func TestApplyIntentRoutesAndBumpsVersion(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, state, _ := reg.CreateRoom("u1", "Alice", "")

	after, acting, rej, err := reg.ApplyIntent(code, "u1", state.Version, engine.DrawCard{Owner: domain.RoleP1})
	if err != nil || rej != nil {
		t.Fatalf("ApplyIntent = %v, %v", rej, err)
	}
	if acting != domain.RoleP1 {
		t.Fatalf("acting = %s, want p1", acting)
	}
	if after.Version != state.Version+1 {
		t.Fatalf("version = %d, want %d", after.Version, state.Version+1)
	}

	// Stale base version: rejected, canonical state returned, untouched.
	again, _, rej, err := reg.ApplyIntent(code, "u1", state.Version, engine.DrawCard{Owner: domain.RoleP1})
	if err != nil {
		t.Fatalf("ApplyIntent error: %v", err)
	}
	if rej == nil || rej.Code != engine.CodeVersionMismatch {
		t.Fatalf("rejection = %v, want VersionMismatch", rej)
	}
	if again.Version != after.Version {
		t.Fatalf("state mutated on rejection: version %d", again.Version)
	}
}

func TestApplyIntentUnseatedPlayer(t *testing.T) {
	reg := newTestRegistry(Options{})
	code, state, _ := reg.CreateRoom("u1", "Alice", "")

	_, _, rej, err := reg.ApplyIntent(code, "stranger", state.Version, engine.DrawCard{Owner: domain.RoleP1})
	if err != nil {
		t.Fatalf("ApplyIntent error: %v", err)
	}
	if rej == nil || rej.Code != engine.CodeZoneAccessDenied {
		t.Fatalf("rejection = %v, want ZoneAccessDenied", rej)
	}

	if _, _, _, err := reg.ApplyIntent("ZZZZZ", "u1", 1, engine.DrawCard{Owner: domain.RoleP1}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room error = %v, want ErrRoomNotFound", err)
	}
}

func TestApplyIntentRoomsRunInParallel(t *testing.T) {
	reg := newTestRegistry(Options{})
	codeA, stateA, _ := reg.CreateRoom("u1", "Alice", "")
	codeB, stateB, _ := reg.CreateRoom("u2", "Bob", "")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reg.ApplyIntent(codeA, "u1", stateA.Version, engine.DrawCard{Owner: domain.RoleP1})
	}()
	go func() {
		defer wg.Done()
		reg.ApplyIntent(codeB, "u2", stateB.Version, engine.DrawCard{Owner: domain.RoleP1})
	}()
	wg.Wait()

	a, _ := reg.StateSnapshot(codeA)
	b, _ := reg.StateSnapshot(codeB)
	if a.Version != 2 || b.Version != 2 {
		t.Fatalf("versions = %d/%d, want 2/2", a.Version, b.Version)
	}
}

func TestCapacityAndIdleEviction(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	reg := newTestRegistry(Options{
		MaxRooms:      2,
		IdleTimeout:   time.Hour,
		SweepInterval: time.Minute,
		Now:           clock.Now,
	})

	a, _, _ := reg.CreateRoom("u1", "Alice", "")
	reg.CreateRoom("u2", "Bob", "")

	if _, _, err := reg.CreateRoom("u3", "Carol", ""); !errors.Is(err, ErrRoomLimit) {
		t.Fatalf("over-capacity error = %v, want ErrRoomLimit", err)
	}

	// Keep one room active past the idle cutoff; the other expires.
	clock.Advance(45 * time.Minute)
	if _, _, _, err := reg.ApplyIntent(a, "u1", 1, engine.DrawCard{Owner: domain.RoleP1}); err != nil {
		t.Fatalf("ApplyIntent error: %v", err)
	}
	clock.Advance(30 * time.Minute)

	evicted := reg.Sweep()
	if len(evicted) != 1 {
		t.Fatalf("evicted %v, want exactly the idle room", evicted)
	}
	if !reg.Exists(a) {
		t.Fatal("active room was evicted")
	}

	// A second sweep inside the throttle interval is a no-op.
	clock.Advance(30 * time.Second)
	if evicted := reg.Sweep(); evicted != nil {
		t.Fatalf("throttled sweep evicted %v", evicted)
	}
}
