package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darsni/backend/internal/domain"
)

// ProgressRepository records completed course units.
type ProgressRepository interface {
	// MarkUnitComplete stores the completion and reports whether it was new.
	MarkUnitComplete(ctx context.Context, progress *domain.UnitProgress) (bool, error)
	ListCompleted(ctx context.Context, userID, courseID string) ([]domain.UnitProgress, error)
	// MarkCourseComplete records that every unit is done and reports whether this
	// call was the first to do so.
	MarkCourseComplete(ctx context.Context, userID, courseID string) (bool, error)
}

type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository constructs repository.
func NewProgressRepository(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepository{pool: pool}
}

func (r *progressRepository) MarkUnitComplete(ctx context.Context, progress *domain.UnitProgress) (bool, error) {
	const query = `
        INSERT INTO course_progress (user_id, course_id, unit, quiz_score)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, course_id, unit) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query,
		progress.UserID,
		progress.CourseID,
		progress.Unit,
		progress.QuizScore,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *progressRepository) ListCompleted(ctx context.Context, userID, courseID string) ([]domain.UnitProgress, error) {
	const query = `
        SELECT user_id, course_id, unit, quiz_score, completed_at
        FROM course_progress
        WHERE user_id=$1 AND course_id=$2
        ORDER BY unit ASC`

	rows, err := r.pool.Query(ctx, query, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnitProgress
	for rows.Next() {
		var p domain.UnitProgress
		if err := rows.Scan(&p.UserID, &p.CourseID, &p.Unit, &p.QuizScore, &p.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *progressRepository) MarkCourseComplete(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `
        INSERT INTO course_completions (user_id, course_id)
        VALUES ($1,$2)
        ON CONFLICT (user_id, course_id) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query, userID, courseID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
