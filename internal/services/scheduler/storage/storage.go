// Package storage defines the scheduler's local persistence ports.
package storage

import (
	"context"
	"time"
)

// AttemptRecord is one durable phase evaluation outcome.
type AttemptRecord struct {
	ID          int64
	ChallengeID string
	Outcome     string
	FromPhase   string
	ToPhase     string
	LastError   string
	CreatedAt   time.Time
}

// AttemptStore persists phase evaluation attempts.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt AttemptRecord) error
	ListAttempts(ctx context.Context, limit int) ([]AttemptRecord, error)
	ListChallengeAttempts(ctx context.Context, challengeID string, limit int) ([]AttemptRecord, error)
}
