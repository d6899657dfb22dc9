package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// CharacterRow is the durable character record. Everything the zone runtime
// tracks in memory flows back through Save.
type CharacterRow struct {
	CharacterID uint64
	AccountID   uint64
	Name        string
	FactionID   uint32
	Level       int32
	XP          int64
	Currency    int64
	WorldID     uint32
	PosX        float32
	PosY        float32
	PosZ        float32
	RotZ        float32
	MaxHealth   int32
	MaxResource int32
	Speed       float32
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// CharactersFor lists live characters on an account.
func (r *CharacterRepo) CharactersFor(ctx context.Context, accountID uint64) ([]*CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT character_id, account_id, name, faction_id, level, xp, currency,
		        world_id, pos_x, pos_y, pos_z, rot_z, max_health, max_resource, speed, created_at
		 FROM characters
		 WHERE account_id = $1 AND deleted_at IS NULL
		 ORDER BY character_id`, accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CharacterRow
	for rows.Next() {
		c := &CharacterRow{}
		if err := rows.Scan(
			&c.CharacterID, &c.AccountID, &c.Name, &c.FactionID, &c.Level, &c.XP, &c.Currency,
			&c.WorldID, &c.PosX, &c.PosY, &c.PosZ, &c.RotZ, &c.MaxHealth, &c.MaxResource, &c.Speed, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ByID loads one live character.
func (r *CharacterRepo) ByID(ctx context.Context, characterID uint64) (*CharacterRow, error) {
	c := &CharacterRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT character_id, account_id, name, faction_id, level, xp, currency,
		        world_id, pos_x, pos_y, pos_z, rot_z, max_health, max_resource, speed, created_at
		 FROM characters
		 WHERE character_id = $1 AND deleted_at IS NULL`, characterID,
	).Scan(
		&c.CharacterID, &c.AccountID, &c.Name, &c.FactionID, &c.Level, &c.XP, &c.Currency,
		&c.WorldID, &c.PosX, &c.PosY, &c.PosZ, &c.RotZ, &c.MaxHealth, &c.MaxResource, &c.Speed, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new character. Name collisions surface as a unique
// violation from the partial index on live rows.
func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) (uint64, error) {
	var id uint64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters
		   (account_id, name, faction_id, level, xp, currency,
		    world_id, pos_x, pos_y, pos_z, rot_z, max_health, max_resource, speed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING character_id`,
		c.AccountID, c.Name, c.FactionID, c.Level, c.XP, c.Currency,
		c.WorldID, c.PosX, c.PosY, c.PosZ, c.RotZ, c.MaxHealth, c.MaxResource, c.Speed,
	).Scan(&id)
	return id, err
}

// Save writes back the mutable play state: position, progression and
// currencies. Fire-and-forget from the game's point of view; callers retry
// through SaveQueue.
func (r *CharacterRepo) Save(ctx context.Context, c *CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters
		 SET level = $2, xp = $3, currency = $4,
		     world_id = $5, pos_x = $6, pos_y = $7, pos_z = $8, rot_z = $9
		 WHERE character_id = $1 AND deleted_at IS NULL`,
		c.CharacterID, c.Level, c.XP, c.Currency,
		c.WorldID, c.PosX, c.PosY, c.PosZ, c.RotZ,
	)
	return err
}

// SoftDelete marks a character deleted while preserving its original name
// for audit. The partial unique index on live rows frees the name for reuse.
func (r *CharacterRepo) SoftDelete(ctx context.Context, characterID uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET deleted_at = now()
		 WHERE character_id = $1 AND deleted_at IS NULL`, characterID,
	)
	return err
}
