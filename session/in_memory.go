package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/wxbot/wxbot/core"
)

// DefaultSnapshotLimit bounds the per-session window of turn snapshots.
const DefaultSnapshotLimit = 20

// record is the mutable per-session state. It is only ever accessed under
// the store lock.
type record struct {
	sessionID   string
	location    core.LocationRef
	hasLocation bool
	pending     core.PendingIntent
	hasPending  bool
	snapshots   []core.TurnSnapshot
	expiresAt   time.Time
}

// Options configure an InMemoryStore.
type Options struct {
	// Now overrides the clock, used by tests to simulate expiry.
	Now func() time.Time
	// SnapshotLimit bounds the turn-snapshot window per session.
	SnapshotLimit int
}

// InMemoryStore is a volatile SessionStore keeping per-session location
// memory and recent turn snapshots in a process local table. Every read or
// write refreshes the session's expiry and recency, so the eviction order
// (oldest touch first) is also the expiry order. It is safe for concurrent
// access; same-session concurrent writes are last-write-wins.
type InMemoryStore struct {
	mu            sync.Mutex
	elements      map[string]*list.Element
	order         *list.List // front = most recently touched
	capacity      int
	ttl           time.Duration
	now           func() time.Time
	snapshotLimit int
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs a store bounded to capacity sessions that
// expire ttl after their last touch.
func NewInMemoryStore(capacity int, ttl time.Duration, optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Now: time.Now, SnapshotLimit: DefaultSnapshotLimit}
	for _, fn := range optFns {
		fn(&opts)
	}
	if capacity < 1 {
		capacity = 1
	}
	return &InMemoryStore{
		elements:      make(map[string]*list.Element),
		order:         list.New(),
		capacity:      capacity,
		ttl:           ttl,
		now:           opts.Now,
		snapshotLimit: opts.SnapshotLimit,
	}
}

// GetLocation returns the last known location for the session, bumping its
// recency. An expired or absent session misses.
func (s *InMemoryStore) GetLocation(sessionID string) (core.LocationRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	el, ok := s.elements[sessionID]
	if !ok {
		return core.LocationRef{}, false
	}
	rec := el.Value.(*record)
	s.touch(el, rec, now)
	if !rec.hasLocation {
		return core.LocationRef{}, false
	}
	return rec.location, true
}

// SetLocation inserts or replaces the session's last known location,
// enforcing capacity eviction on new sessions.
func (s *InMemoryStore) SetLocation(sessionID string, loc core.LocationRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	rec := s.getOrCreate(sessionID, now)
	rec.location = loc
	rec.hasLocation = true
}

// PendingIntent returns the session's deferred request, if any, bumping the
// session's recency.
func (s *InMemoryStore) PendingIntent(sessionID string) (core.PendingIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	el, ok := s.elements[sessionID]
	if !ok {
		return core.PendingIntent{}, false
	}
	rec := el.Value.(*record)
	s.touch(el, rec, now)
	if !rec.hasPending {
		return core.PendingIntent{}, false
	}
	return rec.pending, true
}

// SetPendingIntent remembers a deferred request so a follow-up turn carrying
// a location can complete it.
func (s *InMemoryStore) SetPendingIntent(sessionID string, pending core.PendingIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	rec := s.getOrCreate(sessionID, now)
	rec.pending = pending
	rec.hasPending = true
}

// ClearPendingIntent drops the session's deferred request. Clearing an
// absent session is a no-op and does not resurrect it.
func (s *InMemoryStore) ClearPendingIntent(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	el, ok := s.elements[sessionID]
	if !ok {
		return
	}
	rec := el.Value.(*record)
	s.touch(el, rec, now)
	rec.pending = core.PendingIntent{}
	rec.hasPending = false
}

// AppendSnapshot records a lightweight turn snapshot for follow-up context,
// keeping only the most recent SnapshotLimit entries.
func (s *InMemoryStore) AppendSnapshot(sessionID string, snap core.TurnSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	rec := s.getOrCreate(sessionID, now)
	rec.snapshots = append(rec.snapshots, snap)
	if len(rec.snapshots) > s.snapshotLimit {
		rec.snapshots = rec.snapshots[len(rec.snapshots)-s.snapshotLimit:]
	}
}

// Snapshots returns a copy of the session's recent turn snapshots, oldest
// first. An expired or absent session yields nil.
func (s *InMemoryStore) Snapshots(sessionID string) []core.TurnSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpired(now)
	el, ok := s.elements[sessionID]
	if !ok {
		return nil
	}
	rec := el.Value.(*record)
	s.touch(el, rec, now)
	out := make([]core.TurnSnapshot, len(rec.snapshots))
	copy(out, rec.snapshots)
	return out
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(s.now())
	return s.order.Len()
}

func (s *InMemoryStore) getOrCreate(sessionID string, now time.Time) *record {
	if el, ok := s.elements[sessionID]; ok {
		rec := el.Value.(*record)
		s.touch(el, rec, now)
		return rec
	}
	rec := &record{sessionID: sessionID, expiresAt: now.Add(s.ttl)}
	s.elements[sessionID] = s.order.PushFront(rec)
	for s.order.Len() > s.capacity {
		s.evictOldest()
	}
	return rec
}

func (s *InMemoryStore) touch(el *list.Element, rec *record, now time.Time) {
	rec.expiresAt = now.Add(s.ttl)
	s.order.MoveToFront(el)
}

// purgeExpired drops expired sessions from the back of the recency list.
// Expiry is always lastTouch+ttl, so the oldest-touched session is also the
// first to expire and the scan can stop at the first live record.
func (s *InMemoryStore) purgeExpired(now time.Time) {
	for el := s.order.Back(); el != nil; el = s.order.Back() {
		rec := el.Value.(*record)
		if now.Before(rec.expiresAt) {
			return
		}
		s.removeElement(el)
	}
}

func (s *InMemoryStore) evictOldest() {
	if el := s.order.Back(); el != nil {
		s.removeElement(el)
	}
}

func (s *InMemoryStore) removeElement(el *list.Element) {
	rec := el.Value.(*record)
	s.order.Remove(el)
	delete(s.elements, rec.sessionID)
}
