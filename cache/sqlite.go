/*
DESCRIPTION
  sqlite.go provides a Cache backed by an SQLite database.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cache

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS artifacts (
	key     TEXT PRIMARY KEY,
	data    BLOB NOT NULL,
	writer  TEXT NOT NULL,
	created INTEGER NOT NULL
)`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// SQLite is a Cache storing artifacts as rows of an SQLite database. Each
// row records the id of the SQLite instance that wrote it.
type SQLite struct {
	db     *sql.DB
	writer string
}

// OpenSQLite opens, creating if needed, the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("no cache database provided")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open cache database")
	}

	for _, p := range pragmas {
		_, err = db.Exec(p)
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "could not execute %q", p)
		}
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create artifacts table")
	}
	return &SQLite{db: db, writer: uuid.NewString()}, nil
}

// Writer returns the id recorded against artifacts written by s.
func (s *SQLite) Writer() string { return s.writer }

// Get implements Cache.
func (s *SQLite) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM artifacts WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not query artifact %s", key)
	}
	return data, nil
}

// WriterOf returns the writer id of the artifact stored under key.
func (s *SQLite) WriterOf(key string) (string, error) {
	var w string
	err := s.db.QueryRow(`SELECT writer FROM artifacts WHERE key = ?`, key).Scan(&w)
	if err == sql.ErrNoRows {
		return "", ErrMiss
	}
	if err != nil {
		return "", errors.Wrapf(err, "could not query artifact %s", key)
	}
	return w, nil
}

// Put implements Cache.
func (s *SQLite) Put(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO artifacts (key, data, writer, created) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, writer = excluded.writer, created = excluded.created`,
		key, data, s.writer, time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrapf(err, "could not store artifact %s", key)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
