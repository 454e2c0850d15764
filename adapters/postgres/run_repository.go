package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"goassay/domain/core"
	"goassay/models"
	"goassay/ports"
)

// RunRepository implements ports.RunArchivePort over PostgreSQL.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a PostgreSQL run archive.
func NewRunRepository(db *sqlx.DB) ports.RunArchivePort {
	return &RunRepository{db: db}
}

// Connect opens and pings a database handle.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connecting to run archive: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the archive table if missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_runs (
			id                   UUID PRIMARY KEY,
			session_id           TEXT NOT NULL,
			seed                 BIGINT NOT NULL,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			best_reward          DOUBLE PRECISION NOT NULL,
			schedule             JSONB NOT NULL,
			policy               JSONB NOT NULL,
			final_action         TEXT NOT NULL,
			reason               TEXT NOT NULL,
			mechanism            TEXT,
			top_probability      DOUBLE PRECISION NOT NULL,
			nuisance_probability DOUBLE PRECISION NOT NULL,
			posterior_gap        DOUBLE PRECISION NOT NULL,
			nuisance_gap         DOUBLE PRECISION NOT NULL,
			expanded             INTEGER NOT NULL,
			pruned_budget        INTEGER NOT NULL,
			pruned_viability     INTEGER NOT NULL,
			pruned_error         INTEGER NOT NULL,
			cache_hits           INTEGER NOT NULL
		)`)
	return err
}

// SaveRun persists one completed search.
func (r *RunRepository) SaveRun(ctx context.Context, rec *models.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_runs (
			id, session_id, seed, created_at, best_reward, schedule, policy,
			final_action, reason, mechanism,
			top_probability, nuisance_probability, posterior_gap, nuisance_gap,
			expanded, pruned_budget, pruned_viability, pruned_error, cache_hits
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			best_reward = EXCLUDED.best_reward,
			final_action = EXCLUDED.final_action,
			reason = EXCLUDED.reason,
			mechanism = EXCLUDED.mechanism`,
		rec.ID, rec.SessionID, rec.Seed, rec.CreatedAt, rec.BestReward,
		rec.ScheduleJSON, rec.PolicyJSON,
		rec.FinalAction, rec.Reason, rec.Mechanism,
		rec.TopProbability, rec.NuisanceProbability, rec.PosteriorGap, rec.NuisanceGap,
		rec.Expanded, rec.PrunedBudget, rec.PrunedViability, rec.PrunedError, rec.CacheHits)
	return err
}

// GetRun fetches one run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	var rec models.RunRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, session_id, seed, created_at, best_reward,
		       schedule, policy,
		       final_action, reason, COALESCE(mechanism, '') AS mechanism,
		       top_probability, nuisance_probability, posterior_gap, nuisance_gap,
		       expanded, pruned_budget, pruned_viability, pruned_error, cache_hits
		FROM search_runs WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("run", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRuns fetches recent runs for a session, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, sessionID string, limit int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []*models.RunRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, session_id, seed, created_at, best_reward,
		       schedule, policy,
		       final_action, reason, COALESCE(mechanism, '') AS mechanism,
		       top_probability, nuisance_probability, posterior_gap, nuisance_gap,
		       expanded, pruned_budget, pruned_viability, pruned_error, cache_hits
		FROM search_runs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return recs, nil
}
