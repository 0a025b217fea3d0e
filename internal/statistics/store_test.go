package statistics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "stats.json"))

	var stats Statistics
	stats.Add(OutcomeWin)
	stats.Add(OutcomeBust)
	stats.Add(OutcomePush)
	require.NoError(t, store.Save(stats))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, stats, loaded)
}

func TestStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	stats, err := store.Load()
	require.NoError(t, err)
	assert.Zero(t, stats.GamesPlayed)
}

func TestStoreLoadRejectsInconsistentData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gamesPlayed":5,"wins":9}`), 0o644))

	_, err := NewStore(path).Load()
	require.Error(t, err)
}

func TestStoreLoadRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	_, err := NewStore(path).Load()
	require.Error(t, err)
}
