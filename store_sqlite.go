package main

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// sqliteStore is the durable local backend: one JSON blob per session
// key, SQLite in WAL mode with a single writer connection.
type sqliteStore struct {
	db *sql.DB
}

func openSqliteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s: %v", ErrStoreUnavailable, path, err)
	}

	// SQLite allows one writer at a time; a second connection would
	// only produce SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Create(ctx context.Context, sess *Session) error {
	data, err := marshalSession(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (key, date, created_at, data) VALUES (?, ?, ?, ?)`,
		sess.Code, sess.Date, sess.CreatedAt.UnixMilli(), string(data))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, sess.Code)
		}
		return fmt.Errorf("%w: insert: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *sqliteStore) Read(ctx context.Context, key string) (*Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select: %v", ErrStoreUnavailable, err)
	}

	return unmarshalSession([]byte(data))
}

func (s *sqliteStore) Write(ctx context.Context, key string, sess *Session) error {
	data, err := marshalSession(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (key, date, created_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET date = excluded.date, data = excluded.data`,
		key, sess.Date, sess.CreatedAt.UnixMilli(), string(data))
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *sqliteStore) FindByDate(ctx context.Context, date string) (*Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE date = ? ORDER BY created_at DESC LIMIT 1`,
		date).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no session for date %s", ErrSessionNotFound, date)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select: %v", ErrStoreUnavailable, err)
	}

	return unmarshalSession([]byte(data))
}

func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	// Matching on the message keeps the driver import surface to the
	// blank registration import.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
