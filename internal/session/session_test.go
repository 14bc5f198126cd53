// ABOUTME: Tests for draft merging, completeness and session lifecycle
// ABOUTME: Also exercises per-correspondent locking under concurrency

package session

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft_MergeOverwritesOnlyNewFields(t *testing.T) {
	d := Draft{POL: "BAQ", Commodity: "SCRAP METAL"}
	d.Merge(Draft{POD: "NINGBO", POL: ""})

	assert.Equal(t, "BAQ", d.POL, "empty incoming field must not clear")
	assert.Equal(t, "NINGBO", d.POD)
	assert.Equal(t, "SCRAP METAL", d.Commodity)

	d.Merge(Draft{POL: "CTG"})
	assert.Equal(t, "CTG", d.POL, "non-empty incoming field overwrites")
}

func TestDraft_Completeness(t *testing.T) {
	d := Draft{}
	assert.False(t, d.Complete())
	assert.Equal(t, []string{"port of origin", "port of destination", "container type", "commodity"}, d.Missing())

	d = Draft{POL: "BAQ", POD: "NINGBO", ContainerType: "40' DRY HC", Commodity: "SCRAP METAL"}
	assert.True(t, d.Complete(), "empty pickup must not block completeness")
	assert.Empty(t, d.Missing())

	d.Commodity = ""
	assert.Equal(t, []string{"commodity"}, d.Missing())
}

func TestStore_GetCreatesIdleSession(t *testing.T) {
	s := NewStore()
	sess := s.Get("573001112233")
	require.NotNil(t, sess)
	assert.Equal(t, StateIdle, sess.State)
	assert.False(t, sess.Welcomed)
	assert.Empty(t, sess.Assistance)

	// Same correspondent maps to the same session.
	assert.Same(t, sess, s.Get("573001112233"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_PeekAndDelete(t *testing.T) {
	s := NewStore()
	_, ok := s.Peek("a")
	assert.False(t, ok)

	s.Get("a")
	_, ok = s.Peek("a")
	assert.True(t, ok)

	s.Delete("a")
	_, ok = s.Peek("a")
	assert.False(t, ok)
}

func TestSession_ResetClearsWelcome(t *testing.T) {
	sess := &Session{
		State:      StateAwaitingAssistance,
		Welcomed:   true,
		Assistance: []Turn{{Role: "user", Content: "hi"}},
		Draft:      Draft{POL: "BAQ"},
	}
	sess.Reset()
	assert.Equal(t, StateIdle, sess.State)
	assert.False(t, sess.Welcomed)
	assert.Empty(t, sess.Assistance)
	assert.Equal(t, Draft{}, sess.Draft)
}

func TestSession_EndCycleKeepsWelcome(t *testing.T) {
	sess := &Session{State: StateProcessing, Welcomed: true, Draft: Draft{POL: "BAQ"}}
	sess.EndCycle()
	assert.Equal(t, StateIdle, sess.State)
	assert.True(t, sess.Welcomed)
	assert.Equal(t, Draft{}, sess.Draft)
}

func TestStore_PerKeyLockSerializesSameCorrespondent(t *testing.T) {
	s := NewStore()
	const n = 50

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock("same")
			defer s.Unlock("same")
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, n, counter)
}

func TestStore_LocksAreIndependentAcrossCorrespondents(t *testing.T) {
	s := NewStore()
	s.Lock("a")
	defer s.Unlock("a")

	done := make(chan struct{})
	go func() {
		s.Lock("b")
		s.Unlock("b")
		close(done)
	}()
	<-done // must not deadlock while "a" is held
}

func TestStore_LockEntriesReleasedAfterUse(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "5730011122" + strconv.Itoa(i)
			s.Lock(key)
			s.Unlock(key)
		}(i)
	}
	wg.Wait()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.locks, "idle correspondents must not pin lock entries")
}

func TestStore_LockEntrySurvivesWaiters(t *testing.T) {
	s := NewStore()
	s.Lock("a")

	released := make(chan struct{})
	go func() {
		s.Lock("a") // waits; both events share one entry
		s.Unlock("a")
		close(released)
	}()

	// Wait for the second event to register as a waiter before releasing.
	for {
		s.mu.RLock()
		refs := 0
		if l, ok := s.locks["a"]; ok {
			refs = l.refs
		}
		s.mu.RUnlock()
		if refs == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	s.Unlock("a")
	<-released

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.locks)
}
