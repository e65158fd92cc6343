package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"smartdoc-backend/internal/comparison"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, user_id, status, document_ids, document_names, results, created_at`

var typeMap = pgtype.NewMap()

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (ComparisonJob, error) {
	var job ComparisonJob
	var raw []byte
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Status,
		typeMap.SQLScanner(&job.DocumentIDs),
		typeMap.SQLScanner(&job.DocumentNames),
		&raw,
		&job.CreatedAt,
	); err != nil {
		return ComparisonJob{}, err
	}
	if job.DocumentIDs == nil {
		job.DocumentIDs = []string{}
	}
	if job.DocumentNames == nil {
		job.DocumentNames = []string{}
	}
	if len(raw) > 0 && job.Status == StatusCompleted {
		res, err := comparison.DecodeStoredResult(raw)
		if err != nil {
			return ComparisonJob{}, fmt.Errorf("decode results for %s: %w", job.ID, err)
		}
		job.Results = &res
	}
	return job, nil
}

func (r *PGRepo) Insert(ctx context.Context, job ComparisonJob) error {
	if err := job.validate(); err != nil {
		return err
	}
	var results any
	if job.Results != nil {
		b, err := json.Marshal(job.Results)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		results = b
	}
	const query = `
INSERT INTO comparison_jobs (id, user_id, status, document_ids, document_names, results, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.Status,
		job.DocumentIDs,
		job.DocumentNames,
		results,
		job.CreatedAt,
	)
	return err
}

func (r *PGRepo) List(ctx context.Context, userID string, completedOnly bool) ([]ComparisonJob, error) {
	query := `SELECT ` + jobColumns + `
FROM comparison_jobs
WHERE user_id = $1`
	args := []any{userID}
	if completedOnly {
		query += ` AND status = $2`
		args = append(args, StatusCompleted)
	}
	query += `
ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ComparisonJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (ComparisonJob, error) {
	query := `SELECT ` + jobColumns + `
FROM comparison_jobs
WHERE user_id = $1 AND id::text = $2`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ComparisonJob{}, ErrNotFound
		}
		return ComparisonJob{}, err
	}
	return job, nil
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comparison_jobs WHERE user_id = $1 AND id::text = $2`, userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
