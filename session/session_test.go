package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateEnforcesOneSessionPerKey(t *testing.T) {
	store := New(time.Minute)

	_, err := store.Create("key", Options{Kind: "rps"})
	require.NoError(t, err)

	_, err = store.Create("key", Options{Kind: "rps"})
	require.ErrorIs(t, err, ErrExists)
}

func TestSubmitResolvesWhenAllAnswered(t *testing.T) {
	store := New(time.Minute)

	_, err := store.Create("match", Options{
		Kind:         "rps",
		Participants: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	_, resolved, err := store.Submit("match", "alice", "rock")
	require.NoError(t, err)
	require.False(t, resolved)

	final, resolved, err := store.Submit("match", "bob", "paper")
	require.NoError(t, err)
	require.True(t, resolved)
	require.Equal(t, StateResolved, final.State)
	require.Equal(t, "rock", final.Choices["alice"])
	require.Equal(t, "paper", final.Choices["bob"])

	// the resolved session is gone
	_, _, err = store.Submit("match", "alice", "rock")
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, store.Len())
}

func TestSubmitRejectsNonParticipants(t *testing.T) {
	store := New(time.Minute)

	_, err := store.Create("match", Options{
		Kind:         "rps",
		Participants: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	_, _, err = store.Submit("match", "mallory", "rock")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTimeoutExpiresSession(t *testing.T) {
	store := New(time.Minute)

	expired := make(chan Session, 1)
	_, err := store.Create("match", Options{
		Kind:         "rps",
		Participants: []string{"alice", "bob"},
		Timeout:      20 * time.Millisecond,
		OnExpire: func(s Session) {
			expired <- s
		},
	})
	require.NoError(t, err)

	select {
	case s := <-expired:
		require.Equal(t, StateExpired, s.State)
	case <-time.After(time.Second):
		t.Fatal("session did not expire")
	}

	// late interaction is rejected, never silently resumed
	_, _, err = store.Submit("match", "alice", "rock")
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, store.Len())
}

func TestTimerIsNoOpAfterResolution(t *testing.T) {
	store := New(time.Minute)

	expired := make(chan Session, 1)
	_, err := store.Create("match", Options{
		Kind:         "rps",
		Participants: []string{"alice"},
		Timeout:      20 * time.Millisecond,
		OnExpire: func(s Session) {
			expired <- s
		},
	})
	require.NoError(t, err)

	_, resolved, err := store.Submit("match", "alice", "rock")
	require.NoError(t, err)
	require.True(t, resolved)

	select {
	case <-expired:
		t.Fatal("expiry callback ran after resolution")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerDoesNotExpireReusedKey(t *testing.T) {
	store := New(time.Minute)

	expired := make(chan string, 2)
	_, err := store.Create("key", Options{
		Kind:    "recruit",
		Timeout: 20 * time.Millisecond,
		OnExpire: func(s Session) {
			expired <- s.ID
		},
	})
	require.NoError(t, err)

	require.NoError(t, store.Cancel("key"))

	// a new session under the same key must not be killed by the old timer
	fresh, err := store.Create("key", Options{
		Kind:    "recruit",
		Timeout: time.Minute,
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	got, ok := store.Get("key")
	require.True(t, ok)
	require.Equal(t, fresh.ID, got.ID)
	require.Empty(t, expired)
}

func TestConcurrentJoinAdmitsExactlyOne(t *testing.T) {
	store := New(time.Minute)

	_, err := store.Create("recruit", Options{
		Kind:     "recruit",
		Capacity: 1,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for _, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := store.Join("recruit", u)
			results <- err
		}(user)
	}
	wg.Wait()
	close(results)

	joined, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			joined++
		case err == ErrFull:
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, joined)
	require.Equal(t, 1, full)
}

func TestJoinRejectsDuplicates(t *testing.T) {
	store := New(time.Minute)

	_, err := store.Create("recruit", Options{Kind: "recruit", Capacity: 2})
	require.NoError(t, err)

	_, err = store.Join("recruit", "alice")
	require.NoError(t, err)

	_, err = store.Join("recruit", "alice")
	require.ErrorIs(t, err, ErrAlreadyJoined)
}
