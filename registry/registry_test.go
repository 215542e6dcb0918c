package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/systemcmd0122/developer-bot/backend/memory"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	store, err := memory.New()
	require.NoError(t, err)

	return New(store)
}

func TestSaveButtonThenGet(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	id := uuid.NewString()
	p := ButtonPayload{Action: "delete-all", UserID: "user-1", GuildID: "guild-1"}

	require.NoError(t, r.SaveButton(ctx, id, p))

	got, ok := r.Button(id)
	require.True(t, ok)
	require.Equal(t, p, got)
}

func TestSaveRejectsEmptyValues(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.Error(t, r.SaveButton(ctx, "", ButtonPayload{Action: "x"}))
	require.Error(t, r.SaveButton(ctx, uuid.NewString(), ButtonPayload{}))
	require.Error(t, r.SaveMenu(ctx, "", MenuPayload{Action: "x"}))
	require.Error(t, r.SaveBoard(ctx, uuid.NewString(), BoardPayload{}))
}

func TestOverwriteWins(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	id := uuid.NewString()

	require.NoError(t, r.SaveButton(ctx, id, ButtonPayload{Action: "first"}))
	require.NoError(t, r.SaveButton(ctx, id, ButtonPayload{Action: "second"}))

	got, ok := r.Button(id)
	require.True(t, ok)
	require.Equal(t, "second", got.Action)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	id := uuid.NewString()

	require.NoError(t, r.SaveButton(ctx, id, ButtonPayload{Action: "a"}))
	require.NoError(t, r.SaveMenu(ctx, id, MenuPayload{Action: "b"}))
	require.NoError(t, r.SaveBoard(ctx, id, BoardPayload{Action: "c", BoardID: "123"}))

	require.NoError(t, r.Remove(ctx, id))
	require.NoError(t, r.Remove(ctx, id))

	_, ok := r.Button(id)
	require.False(t, ok)
	_, ok = r.Menu(id)
	require.False(t, ok)
	_, ok = r.Board(id)
	require.False(t, ok)
}

func TestBoardRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	id := uuid.NewString()
	p := BoardPayload{
		Action:  "board-game-select",
		Games:   []string{"Valorant"},
		BoardID: "123",
	}

	require.NoError(t, r.SaveBoard(ctx, id, p))

	got, ok := r.Board(id)
	require.True(t, ok)
	require.Equal(t, []string{"Valorant"}, got.Games)
	require.Equal(t, "123", got.BoardID)

	require.NoError(t, r.Remove(ctx, id))

	_, ok = r.Board(id)
	require.False(t, ok)
}

func TestLoadRestoresFromStore(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)

	ctx := context.Background()

	first := New(store)
	id := uuid.NewString()
	require.NoError(t, first.SaveMenu(ctx, id, MenuPayload{
		Action:  "friendcode-game",
		Options: []string{"Valorant", "Splatoon"},
	}))

	// a second registry over the same store sees the record
	second := New(store)
	require.NoError(t, second.Load(ctx))

	got, ok := second.Menu(id)
	require.True(t, ok)
	require.Equal(t, []string{"Valorant", "Splatoon"}, got.Options)
}

func TestCleanupDropsOldRecords(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	oldID := uuid.NewString()
	freshID := uuid.NewString()

	require.NoError(t, r.SaveButton(ctx, oldID, ButtonPayload{Action: "old"}))
	require.NoError(t, r.SaveButton(ctx, freshID, ButtonPayload{Action: "fresh"}))

	// age the first record past the retention window
	r.mx.Lock()
	e := r.buttons[oldID]
	e.updatedAt = time.Now().Add(-48 * time.Hour)
	r.buttons[oldID] = e
	r.mx.Unlock()

	removed, err := r.Cleanup(ctx, DefaultRetention)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, ok := r.Button(oldID)
	require.False(t, ok)
	_, ok = r.Button(freshID)
	require.True(t, ok)
}
