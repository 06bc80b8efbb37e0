package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxbot/wxbot/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func austin() core.LocationRef {
	return core.LocationRef{Name: "Austin, TX", Coords: &core.Coordinates{Lat: 30.2672, Lon: -97.7431}}
}

func TestInMemoryStore_SetAndGetLocation(t *testing.T) {
	s := NewInMemoryStore(10, time.Minute)

	_, ok := s.GetLocation("s1")
	assert.False(t, ok)

	s.SetLocation("s1", austin())
	loc, ok := s.GetLocation("s1")
	require.True(t, ok)
	assert.Equal(t, "Austin, TX", loc.Name)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewInMemoryStore(10, 30*time.Minute, func(o *Options) { o.Now = clock.Now })

	s.SetLocation("s1", austin())
	clock.Advance(31 * time.Minute)

	_, ok := s.GetLocation("s1")
	assert.False(t, ok, "expired session must miss")
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_ReadRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewInMemoryStore(10, 30*time.Minute, func(o *Options) { o.Now = clock.Now })

	s.SetLocation("s1", austin())
	clock.Advance(20 * time.Minute)
	_, ok := s.GetLocation("s1")
	require.True(t, ok)

	// The read above bumped the expiry; 20 more minutes stays inside TTL.
	clock.Advance(20 * time.Minute)
	_, ok = s.GetLocation("s1")
	assert.True(t, ok, "a read must refresh the session TTL")
}

func TestInMemoryStore_CapacityEvictsOldest(t *testing.T) {
	s := NewInMemoryStore(3, time.Hour)

	for i := 1; i <= 3; i++ {
		s.SetLocation(fmt.Sprintf("s%d", i), austin())
	}
	// Touch s1 so s2 becomes the oldest.
	_, ok := s.GetLocation("s1")
	require.True(t, ok)

	s.SetLocation("s4", austin())

	assert.Equal(t, 3, s.Len())
	_, ok = s.GetLocation("s2")
	assert.False(t, ok, "oldest session should be evicted")
	_, ok = s.GetLocation("s1")
	assert.True(t, ok)
}

func TestInMemoryStore_PendingIntent(t *testing.T) {
	s := NewInMemoryStore(10, time.Minute)

	_, ok := s.PendingIntent("s1")
	assert.False(t, ok)

	s.SetPendingIntent("s1", core.PendingIntent{Intent: core.IntentForecast, Datetime: "tomorrow"})
	pending, ok := s.PendingIntent("s1")
	require.True(t, ok)
	assert.Equal(t, core.IntentForecast, pending.Intent)
	assert.Equal(t, "tomorrow", pending.Datetime)

	s.ClearPendingIntent("s1")
	_, ok = s.PendingIntent("s1")
	assert.False(t, ok)

	// Pending state rides the session record and expires with it.
	clock := newFakeClock()
	s = NewInMemoryStore(10, 30*time.Minute, func(o *Options) { o.Now = clock.Now })
	s.SetPendingIntent("s1", core.PendingIntent{Intent: core.IntentAlerts})
	clock.Advance(31 * time.Minute)
	_, ok = s.PendingIntent("s1")
	assert.False(t, ok)
}

func TestInMemoryStore_ClearPendingAbsentSession(t *testing.T) {
	s := NewInMemoryStore(10, time.Minute)

	s.ClearPendingIntent("ghost")

	assert.Equal(t, 0, s.Len(), "clearing must not create a session")
}

func TestInMemoryStore_SnapshotWindow(t *testing.T) {
	s := NewInMemoryStore(10, time.Hour, func(o *Options) { o.SnapshotLimit = 3 })

	for i := 0; i < 5; i++ {
		s.AppendSnapshot("s1", core.TurnSnapshot{Intent: fmt.Sprintf("i%d", i)})
	}

	snaps := s.Snapshots("s1")
	require.Len(t, snaps, 3)
	assert.Equal(t, "i2", snaps[0].Intent)
	assert.Equal(t, "i4", snaps[2].Intent)
}

func TestInMemoryStore_ConcurrentSessions(t *testing.T) {
	s := NewInMemoryStore(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", i)
			for j := 0; j < 50; j++ {
				s.SetLocation(sid, austin())
				_, _ = s.GetLocation(sid)
				s.AppendSnapshot(sid, core.TurnSnapshot{Intent: core.IntentForecast})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
}
