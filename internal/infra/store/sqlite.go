package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	zlog "github.com/rs/zerolog/log"

	"github.com/mtak/playdeck/internal/domain/track"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracks (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	artist    TEXT NOT NULL,
	url       TEXT NOT NULL,
	duration  REAL NOT NULL DEFAULT 0,
	cover_url TEXT NOT NULL DEFAULT '',
	blob      BLOB
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// sqliteStore implements Store on a local SQLite database.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite-backed store at path.
func OpenSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	zlog.Debug().Msgf("store: sqlite catalog opened: path=%s", path)
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) GetAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, url, duration, cover_url, blob FROM tracks ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tracks")
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Track.ID, &r.Track.Title, &r.Track.Artist,
			&r.Track.URL, &r.Track.Duration, &r.Track.CoverURL, &r.Blob); err != nil {
			return nil, errors.Wrap(err, "failed to scan track row")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate track rows")
	}
	return records, nil
}

func (s *sqliteStore) Put(ctx context.Context, t track.Track, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tracks (id, title, artist, url, duration, cover_url, blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Artist, t.URL, t.Duration, t.CoverURL, blob)
	if err != nil {
		return errors.Wrapf(err, "failed to put track %s", t.ID)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	// DELETE on a missing id affects zero rows, which is the contract.
	_, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete track %s", id)
	}
	return nil
}

func (s *sqliteStore) GetSetting(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read setting %s", key)
	}
	return value, true, nil
}

func (s *sqliteStore) PutSetting(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return errors.Wrapf(err, "failed to write setting %s", key)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
