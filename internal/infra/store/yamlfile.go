package store

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/mtak/playdeck/internal/domain/track"
)

// yamlFile is the on-disk shape of the YAML-backed catalog.
type yamlFile struct {
	Tracks   []track.Track     `yaml:"tracks"`
	Settings map[string]string `yaml:"settings,omitempty"`
}

// yamlStore implements Store on a single plain-text YAML file. It keeps the
// whole catalog in memory and rewrites the file on every mutation, which is
// fine for a personal library. Raw audio blobs are not supported.
type yamlStore struct {
	mu   sync.Mutex
	path string
	data yamlFile
}

// OpenYAML opens (creating if necessary) a YAML-file-backed store at path.
func OpenYAML(path string) (Store, error) {
	s := &yamlStore{
		path: path,
		data: yamlFile{Settings: make(map[string]string)},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}
	if len(raw) == 0 {
		return s, nil
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog file")
	}
	if s.data.Settings == nil {
		s.data.Settings = make(map[string]string)
	}
	return s, nil
}

func (s *yamlStore) GetAll(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, len(s.data.Tracks))
	for i, t := range s.data.Tracks {
		records[i] = Record{Track: t}
	}
	return records, nil
}

func (s *yamlStore) Put(_ context.Context, t track.Track, blob []byte) error {
	if blob != nil {
		return ErrBlobsUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.data.Tracks {
		if s.data.Tracks[i].ID == t.ID {
			s.data.Tracks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		s.data.Tracks = append(s.data.Tracks, t)
	}
	return s.persistLocked()
}

func (s *yamlStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.Tracks[:0]
	for _, t := range s.data.Tracks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(s.data.Tracks) {
		// Missing id, nothing to rewrite.
		return nil
	}
	s.data.Tracks = kept
	return s.persistLocked()
}

func (s *yamlStore) GetSetting(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data.Settings[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *yamlStore) PutSetting(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Settings[key] = string(value)
	return s.persistLocked()
}

func (s *yamlStore) Close() error {
	return nil
}

// persistLocked rewrites the catalog file. Must be called with the lock held.
func (s *yamlStore) persistLocked() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return errors.Wrap(err, "failed to serialize catalog")
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return errors.Wrap(err, "failed to write catalog file")
	}
	return nil
}
