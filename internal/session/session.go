package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Session groups a user's queries.
type Session struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryRecord is one answered question within a session.
type QueryRecord struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	RegulationFilter string    `json:"regulation_filter,omitempty"`
	NumSources       int       `json:"num_sources"`
	HasContext       bool      `json:"has_context"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store persists sessions and their query history.
type Store interface {
	CreateSession(ctx context.Context, label string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	RecordQuery(ctx context.Context, rec QueryRecord) (string, error)
	History(ctx context.Context, sessionID string, limit int) ([]QueryRecord, error)
	Close() error
}
