package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/food-delivery-platform/internal/utils"
)

// IssuedRefreshToken carries the raw token back to the caller exactly once.
// Only its SHA-256 hash is persisted.
type IssuedRefreshToken struct {
	Raw       string
	ExpiresAt time.Time
}

// TokenRepo persists and validates refresh tokens. Rows keep the issuing
// device metadata (user agent, IP) for audit, an absolute expiry and a
// revocation timestamp. Validity = not revoked AND now < expires_at.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// refreshTokenBytes is the entropy of a raw token; 40 bytes encode to 80
// hex characters.
const refreshTokenBytes = 40

// Generate creates a random refresh token for the user, stores its hash with
// the request metadata and returns the raw value.
func (r *TokenRepo) Generate(ctx context.Context, userID uint64, userAgent, ip string, ttl time.Duration) (IssuedRefreshToken, error) {
	raw, err := utils.RandomHex(refreshTokenBytes)
	if err != nil {
		return IssuedRefreshToken{}, err
	}
	exp := time.Now().UTC().Add(ttl)
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, user_agent, ip, expires_at) VALUES (?,?,?,?,?)",
		userID, utils.HashTokenRaw(raw), userAgent, ip, exp)
	if err != nil {
		return IssuedRefreshToken{}, err
	}
	return IssuedRefreshToken{Raw: raw, ExpiresAt: exp}, nil
}

// FindValid returns the owning user id when a non-revoked, non-expired row
// matches the raw token. Any other outcome is ErrTokenInvalid; callers must
// treat it as "re-authenticate".
func (r *TokenRepo) FindValid(ctx context.Context, raw string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		utils.HashTokenRaw(raw)).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// Consume atomically revokes the token and returns the owning user id. The
// single conditional UPDATE is the rotation arbiter: when two requests race
// on the same token, exactly one sees an affected row and the loser gets
// ErrTokenInvalid instead of a second session.
func (r *TokenRepo) Consume(ctx context.Context, raw string) (uint64, error) {
	hash := utils.HashTokenRaw(raw)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL AND expires_at > NOW()",
		hash)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrTokenInvalid
	}
	var userID uint64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? LIMIT 1", hash).Scan(&userID); err != nil {
		return 0, err
	}
	return userID, nil
}

// Revoke marks a single token as revoked. Revoking an already-revoked or
// unknown token is not an error.
func (r *TokenRepo) Revoke(ctx context.Context, raw string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		utils.HashTokenRaw(raw))
	return err
}

// RevokeAllForUser revokes every active token of a user and returns how many
// rows were affected. Used for "log out everywhere" and when an account is
// deactivated.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
