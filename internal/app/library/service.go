// Package library provides the track library service: importing audio files,
// manual track entry, removal, and the persisted preference snapshot.
package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mtak/playdeck/internal/app/player"
	"github.com/mtak/playdeck/internal/domain/track"
	"github.com/mtak/playdeck/internal/infra/metadata"
	"github.com/mtak/playdeck/internal/infra/store"
)

// snapshotKey is the settings key the preference snapshot is stored under.
const snapshotKey = "player_state"

// importableExts are the accepted audio file extensions. Anything else is
// silently filtered out of an import.
var importableExts = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
	".m4a": true,
}

// Extractor is the metadata extraction collaborator.
type Extractor interface {
	ExtractFile(path string) metadata.Meta
}

// Service coordinates the catalog store, the metadata extractor, and the
// player state machine. Every mutation persists to the store before touching
// in-memory state, so a failed store operation never leaves the two diverged.
type Service struct {
	store     store.Store
	extractor Extractor
	machine   *player.Machine
	keepBlobs bool

	validate *validator.Validate
}

// NewService creates a library service.
func NewService(st store.Store, ex Extractor, m *player.Machine, keepBlobs bool) *Service {
	return &Service{
		store:     st,
		extractor: ex,
		machine:   m,
		keepBlobs: keepBlobs,
		validate:  validator.New(),
	}
}

// ImportFiles imports the given audio files into the catalog and playlist.
// Non-audio files are silently skipped. Metadata extraction failures degrade
// to file-name defaults; store failures skip the file and are reported
// combined after the remaining files were attempted.
func (s *Service) ImportFiles(ctx context.Context, paths []string) ([]track.Track, error) {
	added := make([]track.Track, 0, len(paths))
	var importErr error

	for _, path := range paths {
		if !importableExts[strings.ToLower(filepath.Ext(path))] {
			zlog.Debug().Msgf("library: skipping non-audio file: %s", path)
			continue
		}

		meta := s.extractor.ExtractFile(path)
		t := track.Track{
			ID:       track.NewID(),
			Title:    meta.Title,
			Artist:   meta.Artist,
			URL:      path,
			Duration: meta.Duration,
			CoverURL: meta.CoverURL,
		}

		var blob []byte
		if s.keepBlobs {
			var err error
			blob, err = os.ReadFile(path)
			if err != nil {
				importErr = errors.CombineErrors(importErr, errors.Wrapf(err, "failed to read %s", path))
				continue
			}
		}

		if err := s.store.Put(ctx, t, blob); err != nil {
			importErr = errors.CombineErrors(importErr, errors.Wrapf(err, "failed to persist %s", path))
			continue
		}

		s.machine.AddTrack(t)
		added = append(added, t)
		zlog.Info().Msgf("library: imported track: id=%s title=%s artist=%s", t.ID, t.Title, t.Artist)
	}

	return added, importErr
}

// ManualAdd is the user-facing manual-add form input.
type ManualAdd struct {
	Title    string `validate:"required"`
	Artist   string `validate:"required"`
	URL      string `validate:"required,url"`
	CoverURL string `validate:"omitempty,url"`
}

// AddManual validates the form input and, when valid, persists and appends
// exactly one playlist entry. Invalid input never constructs a partial track.
func (s *Service) AddManual(ctx context.Context, in ManualAdd) (track.Track, error) {
	if err := s.validate.Struct(in); err != nil {
		return track.Track{}, errors.Wrap(err, "invalid track input")
	}

	t := track.Track{
		ID:       track.NewID(),
		Title:    in.Title,
		Artist:   in.Artist,
		URL:      in.URL,
		CoverURL: in.CoverURL,
	}

	if err := s.store.Put(ctx, t, nil); err != nil {
		return track.Track{}, errors.Wrap(err, "failed to persist track")
	}

	s.machine.AddTrack(t)
	return t, nil
}

// Remove deletes a track from the catalog and then from the playlist. When
// the store rejects the deletion the in-memory state is left untouched and
// the error is returned.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete track %s", id)
	}
	s.machine.RemoveTrack(id)
	return nil
}

// snapshot is the persisted preference snapshot: the playlist contents plus
// the dark-mode flag, rewritten whenever either changes.
type snapshot struct {
	Playlist []track.Track `yaml:"playlist"`
	DarkMode bool          `yaml:"dark_mode"`
}

// Hydrate fills the player state at startup: the preference snapshot when
// one was saved, otherwise the full catalog.
func (s *Service) Hydrate(ctx context.Context) error {
	raw, ok, err := s.store.GetSetting(ctx, snapshotKey)
	if err != nil {
		return errors.Wrap(err, "failed to read preference snapshot")
	}

	if ok {
		var snap snapshot
		if err := yaml.Unmarshal(raw, &snap); err != nil {
			return errors.Wrap(err, "failed to parse preference snapshot")
		}
		s.machine.SetPlaylist(snap.Playlist)
		if snap.DarkMode {
			s.machine.ToggleDarkMode()
		}
		zlog.Debug().Msgf("library: hydrated from snapshot: tracks=%d dark=%v", len(snap.Playlist), snap.DarkMode)
		return nil
	}

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}
	tracks := make([]track.Track, len(records))
	for i, r := range records {
		tracks[i] = r.Track
	}
	s.machine.SetPlaylist(tracks)
	zlog.Debug().Msgf("library: hydrated from catalog: tracks=%d", len(tracks))
	return nil
}

// SaveSnapshot rewrites the preference snapshot from the current state.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	st := s.machine.Snapshot()
	raw, err := yaml.Marshal(snapshot{
		Playlist: st.Playlist,
		DarkMode: st.DarkMode,
	})
	if err != nil {
		return errors.Wrap(err, "failed to serialize preference snapshot")
	}
	if err := s.store.PutSetting(ctx, snapshotKey, raw); err != nil {
		return errors.Wrap(err, "failed to write preference snapshot")
	}
	return nil
}
