package persist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// AccountRow is the SRP credential record for one account. The server never
// stores a password, only the salt and verifier.
type AccountRow struct {
	AccountID uint64
	Email     string
	Salt      []byte
	Verifier  []byte
	Banned    bool
	CreatedAt time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// ByEmail loads the credential record for an email. Returns nil, nil when
// the account does not exist.
func (r *AccountRepo) ByEmail(ctx context.Context, email string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account_id, email, salt, verifier, banned, created_at
		 FROM accounts WHERE email = $1`, strings.ToLower(email),
	).Scan(&row.AccountID, &row.Email, &row.Salt, &row.Verifier, &row.Banned, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Create provisions a new account with a precomputed salt and verifier.
// Used by the operator tool; the game server never writes credentials.
func (r *AccountRepo) Create(ctx context.Context, email string, salt, verifier []byte) (uint64, error) {
	var id uint64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (email, salt, verifier)
		 VALUES ($1, $2, $3)
		 RETURNING account_id`,
		strings.ToLower(email), salt, verifier,
	).Scan(&id)
	return id, err
}

// UpdateVerifier rotates credentials (password change).
func (r *AccountRepo) UpdateVerifier(ctx context.Context, accountID uint64, salt, verifier []byte) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET salt = $2, verifier = $3 WHERE account_id = $1`,
		accountID, salt, verifier,
	)
	return err
}

// StoreSessionKey persists the auth session so a world hello on another
// connection (or after a restart of this one) can redeem it.
func (r *AccountRepo) StoreSessionKey(ctx context.Context, accountID uint64, key []byte, expiresAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO auth_sessions (account_id, session_key, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE
		   SET session_key = EXCLUDED.session_key, expires_at = EXCLUDED.expires_at`,
		accountID, key, expiresAt,
	)
	return err
}

// FetchSession loads the stored session key. Returns nil key when absent.
func (r *AccountRepo) FetchSession(ctx context.Context, accountID uint64) (key []byte, expiresAt time.Time, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT session_key, expires_at FROM auth_sessions WHERE account_id = $1`,
		accountID,
	).Scan(&key, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	return key, expiresAt, err
}

// DeleteSession consumes a stored session key after a successful world bind.
func (r *AccountRepo) DeleteSession(ctx context.Context, accountID uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM auth_sessions WHERE account_id = $1`, accountID,
	)
	return err
}
