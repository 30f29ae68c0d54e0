package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/features/giveaway/repository"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// Repository persists giveaways, prizes, entries and winner assignments.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository { return &Repository{db: db} }

// Migrate creates the schema when it does not exist yet. The
// giveaway_winner_sets table is the compare-and-swap marker: exactly one row
// per giveaway can ever be inserted, which is what makes PersistWinners
// first-wins under concurrent runs.
func (r *Repository) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS giveaways (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		ends_at       TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active',
		auto_announce BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS giveaway_prizes (
		id            TEXT PRIMARY KEY,
		giveaway_id   TEXT NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		name          TEXT NOT NULL,
		value         TEXT NOT NULL DEFAULT '',
		winners_count INTEGER NOT NULL DEFAULT 1,
		winner_id     BIGINT,
		UNIQUE (giveaway_id, position)
	);
	CREATE TABLE IF NOT EXISTS giveaway_entries (
		giveaway_id    TEXT NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
		participant_id BIGINT NOT NULL,
		username       TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'active',
		points         INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
		PRIMARY KEY (giveaway_id, participant_id)
	);
	CREATE TABLE IF NOT EXISTS giveaway_winner_sets (
		giveaway_id TEXT PRIMARY KEY REFERENCES giveaways(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS giveaway_winners (
		id             TEXT PRIMARY KEY,
		giveaway_id    TEXT NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
		prize_id       TEXT NOT NULL REFERENCES giveaway_prizes(id) ON DELETE CASCADE,
		position       INTEGER NOT NULL,
		participant_id BIGINT NOT NULL,
		username       TEXT NOT NULL,
		claimed        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (giveaway_id, participant_id)
	);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *Repository) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	const q = `
        SELECT id, title, ends_at, status, auto_announce, created_at, updated_at
        FROM giveaways WHERE id=$1`
	var g models.Giveaway
	row := r.db.QueryRowContext(ctx, q, id)
	if err := row.Scan(&g.ID, &g.Title, &g.EndsAt, &g.Status, &g.AutoAnnounce, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrGiveawayNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *Repository) GetPrizes(ctx context.Context, giveawayID string) ([]models.Prize, error) {
	const q = `
        SELECT id, giveaway_id, position, name, value, winners_count, winner_id
        FROM giveaway_prizes WHERE giveaway_id=$1 ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, q, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Prize
	for rows.Next() {
		var (
			p      models.Prize
			winner sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.GiveawayID, &p.Position, &p.Name, &p.Value, &p.WinnersCount, &winner); err != nil {
			return nil, err
		}
		if winner.Valid {
			v := winner.Int64
			p.WinnerID = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetActiveEntries(ctx context.Context, giveawayID string) ([]models.Entry, error) {
	const q = `
        SELECT giveaway_id, participant_id, username, status, points
        FROM giveaway_entries WHERE giveaway_id=$1 AND status='active'`
	rows, err := r.db.QueryContext(ctx, q, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.GiveawayID, &e.ParticipantID, &e.Username, &e.Status, &e.Points); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) HasWinners(ctx context.Context, prizeID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM giveaway_winners WHERE prize_id=$1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, prizeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// PersistWinners writes the whole winner set in one transaction. The insert
// into giveaway_winner_sets races concurrent runs on its primary key: the
// loser rolls back untouched and gets ErrWinnersConflict.
func (r *Repository) PersistWinners(ctx context.Context, giveawayID string, assignments []models.WinnerAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO giveaway_winner_sets (giveaway_id) VALUES ($1)`, giveawayID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			err = repository.ErrWinnersConflict
		}
		return err
	}

	const qWinner = `
        INSERT INTO giveaway_winners (id, giveaway_id, prize_id, position, participant_id, username, claimed, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,FALSE,$7)`
	const qPrize = `UPDATE giveaway_prizes SET winner_id=$2 WHERE id=$1 AND winner_id IS NULL`
	for _, a := range assignments {
		if _, err = tx.ExecContext(ctx, qWinner,
			a.ID, a.GiveawayID, a.PrizeID, a.Position, a.ParticipantID, a.Username, a.CreatedAt); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, qPrize, a.PrizeID, a.ParticipantID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) SetGiveawayStatus(ctx context.Context, id string, status models.GiveawayStatus) error {
	const q = `UPDATE giveaways SET status=$2, updated_at=now() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, status)
	return err
}

func (r *Repository) GetWinners(ctx context.Context, giveawayID string) ([]models.WinnerAssignment, error) {
	const q = `
        SELECT id, giveaway_id, prize_id, position, participant_id, username, claimed, created_at
        FROM giveaway_winners WHERE giveaway_id=$1 ORDER BY position ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.WinnerAssignment
	for rows.Next() {
		var w models.WinnerAssignment
		if err := rows.Scan(&w.ID, &w.GiveawayID, &w.PrizeID, &w.Position, &w.ParticipantID, &w.Username, &w.Claimed, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	const q = `
        SELECT g.id FROM giveaways g
        WHERE g.ends_at <= $1 AND g.status='active' AND g.auto_announce
          AND NOT EXISTS (SELECT 1 FROM giveaway_winner_sets s WHERE s.giveaway_id = g.id)
        ORDER BY g.ends_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
