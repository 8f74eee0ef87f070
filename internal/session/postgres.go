package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore persists sessions and query history in Postgres.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgresStore opens and pings a Postgres connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, label string) (*Session, error) {
	sess := &Session{ID: uuid.NewString(), Label: label, CreatedAt: time.Now().UTC()}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, label, created_at) VALUES ($1,$2,$3)`,
		sess.ID, sess.Label, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, label, created_at FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.Label, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, label, created_at FROM sessions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RecordQuery(ctx context.Context, rec QueryRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO queries (id, session_id, question, answer, regulation_filter, num_sources, has_context, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.SessionID, rec.Question, rec.Answer, rec.RegulationFilter, rec.NumSources, rec.HasContext, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("recording query: %w", err)
	}
	return rec.ID, nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, question, answer, regulation_filter, num_sources, has_context, created_at
		 FROM queries WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Question, &rec.Answer,
			&rec.RegulationFilter, &rec.NumSources, &rec.HasContext, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.DB.Close() }
