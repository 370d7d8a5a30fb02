package services

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenServiceProvider tracks revoked JWT ids.
type TokenServiceProvider interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenService stores revoked token ids in the database.
type TokenService struct {
	db *sql.DB
}

// NewTokenService creates a new TokenService.
func NewTokenService(db *sql.DB) *TokenService {
	return &TokenService{db: db}
}

// RevokeToken marks a token id as revoked until expiresAt. Revoking twice is a no-op.
func (s *TokenService) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT(jti) DO NOTHING",
		jti, expiresAt.Unix())
	return err
}

// IsRevoked reports whether a token id was revoked.
func (s *TokenService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM revoked_tokens WHERE jti = ?", jti).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PruneExpired deletes revocations whose token has expired by now; those
// tokens fail validation on their own.
func (s *TokenService) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
