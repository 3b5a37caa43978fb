package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtak/playdeck/internal/domain/track"
)

// openFuncs enumerates the backends so the contract tests run against both.
var openFuncs = map[string]func(t *testing.T) Store{
	"sqlite": func(t *testing.T) Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
		require.NoError(t, err)
		return s
	},
	"yaml": func(t *testing.T) Store {
		s, err := OpenYAML(filepath.Join(t.TempDir(), "catalog.yaml"))
		require.NoError(t, err)
		return s
	},
}

func testTrack(id string) track.Track {
	return track.Track{
		ID:       id,
		Title:    "Title " + id,
		Artist:   "Artist " + id,
		URL:      "https://example.com/" + id + ".mp3",
		Duration: 180.5,
		CoverURL: "https://example.com/" + id + ".jpg",
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, open := range openFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			tk := testTrack("a")
			require.NoError(t, s.Put(ctx, tk, nil))

			records, err := s.GetAll(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tk, records[0].Track)

			require.NoError(t, s.Delete(ctx, "a"))
			records, err = s.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestStore_PutReplacesExistingID(t *testing.T) {
	for name, open := range openFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			require.NoError(t, s.Put(ctx, testTrack("a"), nil))

			updated := testTrack("a")
			updated.Title = "Replaced"
			require.NoError(t, s.Put(ctx, updated, nil))

			records, err := s.GetAll(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Replaced", records[0].Track.Title)
		})
	}
}

func TestStore_DeleteMissingIsNoOp(t *testing.T) {
	for name, open := range openFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			assert.NoError(t, s.Delete(ctx, "does-not-exist"))
		})
	}
}

func TestStore_Settings(t *testing.T) {
	for name, open := range openFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			_, ok, err := s.GetSetting(ctx, "player_state")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.PutSetting(ctx, "player_state", []byte("dark_mode: true")))
			v, ok, err := s.GetSetting(ctx, "player_state")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("dark_mode: true"), v)

			// Replace on existing key.
			require.NoError(t, s.PutSetting(ctx, "player_state", []byte("dark_mode: false")))
			v, _, err = s.GetSetting(ctx, "player_state")
			require.NoError(t, err)
			assert.Equal(t, []byte("dark_mode: false"), v)
		})
	}
}

func TestSQLiteStore_Blob(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer s.Close()

	blob := []byte{0x49, 0x44, 0x33, 0x04, 0x00}
	require.NoError(t, s.Put(ctx, testTrack("a"), blob))

	records, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, blob, records[0].Blob)
}

func TestYAMLStore_RejectsBlobs(t *testing.T) {
	ctx := context.Background()
	s, err := OpenYAML(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	defer s.Close()

	err = s.Put(ctx, testTrack("a"), []byte{0x01})
	assert.ErrorIs(t, err, ErrBlobsUnsupported)
}

func TestYAMLStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	s, err := OpenYAML(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, testTrack("a"), nil))
	require.NoError(t, s.PutSetting(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	reopened, err := OpenYAML(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Track.ID)

	v, ok, err := reopened.GetSetting(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestNew_BackendSelection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "sqlite backend",
			cfg: Config{
				Backend:  "sqlite",
				Settings: map[string]any{"path": filepath.Join(t.TempDir(), "c.db")},
			},
		},
		{
			name: "default backend is sqlite",
			cfg: Config{
				Settings: map[string]any{"path": filepath.Join(t.TempDir(), "c.db")},
			},
		},
		{
			name: "yaml backend",
			cfg: Config{
				Backend:  "yaml",
				Settings: map[string]any{"path": filepath.Join(t.TempDir(), "c.yaml")},
			},
		},
		{
			name:    "missing path",
			cfg:     Config{Backend: "sqlite"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			cfg:     Config{Backend: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}
