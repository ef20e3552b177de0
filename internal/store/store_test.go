package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
)

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Gorm)(nil)
)

func exerciseStore(t *testing.T, s Store, runID string) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Roster(ctx, runID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Map(ctx, runID)
	require.ErrorIs(t, err, ErrNotFound)

	picks := []engine.Pick{{Slot: 0, Choice: 3}, {Slot: 2, Choice: 1}}
	require.NoError(t, s.SaveRoster(ctx, runID, picks))
	require.NoError(t, s.SaveMap(ctx, runID, 4))

	got, err := s.Roster(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, picks, got)
	choice, err := s.Map(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 4, choice)

	// saving again replaces
	require.NoError(t, s.SaveRoster(ctx, runID, picks[:1]))
	require.NoError(t, s.SaveMap(ctx, runID, 2))
	got, err = s.Roster(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, picks[:1], got)
	choice, err = s.Map(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 2, choice)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(), "run-1")
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lobby.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s, "run-1")
}

// Runs against a real database when DATABASE_URL is set.
func TestGormPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer s.Close()

	// fresh run id so reruns against the same database start clean
	runID := uuid.NewString()
	exerciseStore(t, s, runID)

	require.NoError(t, s.SaveRoster(context.Background(), runID, nil))
	_, err = s.Roster(context.Background(), runID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ReopenKeepsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lobby.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveMap(context.Background(), "run-9", 7))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	choice, err := s.Map(context.Background(), "run-9")
	require.NoError(t, err)
	assert.Equal(t, 7, choice)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}

func TestRosterRows(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := rosterRows("r", []engine.Pick{{Slot: 1, Choice: 5}}, at)
	assert.Equal(t, []RosterPick{{RunID: "r", Slot: 1, Choice: 5, RecordedAt: at}}, rows)
}

func TestWriter_DrainsOnClose(t *testing.T) {
	mem := NewMemory()
	w := NewWriter(mem, nil, 8)

	picks := []engine.Pick{{Slot: 0, Choice: 1}}
	w.HandOffRoster("run-1", picks)
	picks[0].Choice = 99 // caller may reuse its slice
	w.HandOffMap("run-1", 3)
	w.Close()

	got, err := mem.Roster(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []engine.Pick{{Slot: 0, Choice: 1}}, got)
	choice, err := mem.Map(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, choice)

	w.HandOffMap("run-2", 1)
	assert.Equal(t, int64(1), w.Dropped())
	w.Close() // idempotent
}

// blockingResults holds every save until release is closed.
type blockingResults struct {
	release chan struct{}
	mu      sync.Mutex
	saved   int
}

func (b *blockingResults) SaveRoster(context.Context, string, []engine.Pick) error {
	<-b.release
	b.mu.Lock()
	b.saved++
	b.mu.Unlock()
	return nil
}

func (b *blockingResults) SaveMap(context.Context, string, int) error {
	<-b.release
	return errors.New("db down")
}

func TestWriter_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	b := &blockingResults{release: make(chan struct{})}
	w := NewWriter(b, nil, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.HandOffRoster("run", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("handoff blocked on a slow store")
	}
	assert.GreaterOrEqual(t, w.Dropped(), int64(8))

	w.HandOffMap("run", 1) // fails in the store; only logged
	close(b.release)
	w.Close()
}
