// Package postgres implements service.Store directly on a Postgres database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"listshare/internal/service"
)

const (
	postgresSpaceTableName   = "space"
	postgresListTableName    = "list"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// Store is a service.Store backed by two tables. They are created on first
// use if missing.
type Store struct {
	dsn        string
	spaceTable string
	listTable  string
	openDB     sqlOpenFunc
	newID      func() string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// New returns a Store for dsn. No connection is made until the first call.
func New(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: database url is required", service.ErrNotConfigured)
	}
	return &Store{
		dsn:        dsn,
		spaceTable: postgresSpaceTableName,
		listTable:  postgresListTableName,
		openDB:     sql.Open,
		newID:      uuid.NewString,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureReady() error {
	s.initOnce.Do(func() {
		db, err := s.openDB("postgres", s.dsn)
		if err != nil {
			s.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()

		spaces := postgresQuoteIdentifier(s.spaceTable)
		lists := postgresQuoteIdentifier(s.listTable)
		statements := []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					author TEXT NOT NULL,
					space_token TEXT NOT NULL UNIQUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`, spaces),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					slug TEXT NOT NULL,
					data TEXT NOT NULL DEFAULT '[]',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					space_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE
				)`, lists, spaces),
		}
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				_ = db.Close()
				s.initErr = wrapError(err)
				return
			}
		}
		s.db = db
	})
	return s.initErr
}

// SpaceByToken implements service.Store.
func (s *Store) SpaceByToken(ctx context.Context, token string) (*service.Space, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, author, space_token, created_at FROM %s WHERE space_token = $1 LIMIT 1`,
		postgresQuoteIdentifier(s.spaceTable))
	var sp service.Space
	err := s.db.QueryRowContext(ctx, query, token).Scan(&sp.ID, &sp.Author, &sp.SpaceToken, &sp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err)
	}
	return &sp, nil
}

// InsertSpace implements service.Store.
func (s *Store) InsertSpace(ctx context.Context, space service.NewSpace) (service.Space, error) {
	if err := s.ensureReady(); err != nil {
		return service.Space{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, author, space_token)
		VALUES ($1, $2, $3)
		RETURNING id, author, space_token, created_at`, postgresQuoteIdentifier(s.spaceTable))
	var sp service.Space
	err := s.db.QueryRowContext(ctx, query, s.newID(), space.Author, space.SpaceToken).
		Scan(&sp.ID, &sp.Author, &sp.SpaceToken, &sp.CreatedAt)
	if err != nil {
		return service.Space{}, wrapError(err)
	}
	return sp, nil
}

// ListsBySpace implements service.Store.
func (s *Store) ListsBySpace(ctx context.Context, spaceID string) ([]service.List, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, title, slug, data, created_at, space_id FROM %s WHERE space_id = $1`,
		postgresQuoteIdentifier(s.listTable))
	rows, err := s.db.QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, wrapError(err)
	}
	return scanLists(rows)
}

// InsertList implements service.Store.
func (s *Store) InsertList(ctx context.Context, list service.NewList) (service.List, error) {
	if err := s.ensureReady(); err != nil {
		return service.List{}, err
	}
	data, err := service.EncodeItems(list.Items)
	if err != nil {
		return service.List{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, slug, data, space_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, slug, data, created_at, space_id`, postgresQuoteIdentifier(s.listTable))
	rows, err := s.db.QueryContext(ctx, query, s.newID(), list.Title, list.Slug, data, list.SpaceID)
	if err != nil {
		return service.List{}, wrapError(err)
	}
	lists, err := scanLists(rows)
	if err != nil {
		return service.List{}, err
	}
	if len(lists) != 1 {
		return service.List{}, &service.RemoteError{Message: fmt.Sprintf("expected one inserted list, got %d", len(lists))}
	}
	return lists[0], nil
}

// UpdateList implements service.Store.
func (s *Store) UpdateList(ctx context.Context, id, spaceID string, patch service.ListPatch) ([]service.List, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	query, args, err := s.updateQuery(id, spaceID, patch)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	return scanLists(rows)
}

// updateQuery builds the UPDATE for the non-nil patch fields. An empty patch
// selects the matching rows unchanged.
func (s *Store) updateQuery(id, spaceID string, patch service.ListPatch) (string, []any, error) {
	table := postgresQuoteIdentifier(s.listTable)
	args := []any{id, spaceID}
	var sets []string
	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Items != nil {
		data, err := service.EncodeItems(patch.Items)
		if err != nil {
			return "", nil, err
		}
		args = append(args, data)
		sets = append(sets, fmt.Sprintf("data = $%d", len(args)))
	}
	if len(sets) == 0 {
		return fmt.Sprintf(`SELECT id, title, slug, data, created_at, space_id FROM %s WHERE id = $1 AND space_id = $2`, table), args, nil
	}
	return fmt.Sprintf(`
		UPDATE %s SET %s
		WHERE id = $1 AND space_id = $2
		RETURNING id, title, slug, data, created_at, space_id`, table, strings.Join(sets, ", ")), args, nil
}

// DeleteList implements service.Store.
func (s *Store) DeleteList(ctx context.Context, id, spaceID string) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND space_id = $2`, postgresQuoteIdentifier(s.listTable))
	if _, err := s.db.ExecContext(ctx, query, id, spaceID); err != nil {
		return wrapError(err)
	}
	return nil
}

func scanLists(rows *sql.Rows) ([]service.List, error) {
	defer rows.Close()
	var lists []service.List
	for rows.Next() {
		var l service.List
		var data string
		if err := rows.Scan(&l.ID, &l.Title, &l.Slug, &data, &l.CreatedAt, &l.SpaceID); err != nil {
			return nil, wrapError(err)
		}
		items, err := service.DecodeItems(data)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", l.ID, err)
		}
		l.Items = items
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return lists, nil
}

// wrapError turns driver errors into service.RemoteError.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &service.RemoteError{Message: "request timed out"}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		msg := pqErr.Message
		if pqErr.Detail != "" {
			msg += " (" + pqErr.Detail + ")"
		}
		return &service.RemoteError{Code: string(pqErr.Code), Message: msg}
	}
	return err
}

func postgresQuoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "\"\""
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
