package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darsni/backend/internal/domain"
)

// CourseRepository handles persistence for courses.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	Update(ctx context.Context, course *domain.Course) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]domain.Course, error)
}

// CourseFilter defines query params for course listing. Drafts are returned when
// IncludeDrafts is set or when they belong to DraftOwnerID.
type CourseFilter struct {
	IncludeDrafts bool
	DraftOwnerID  *string
	TeacherID     *string
	Limit         int
	Offset        int
}

type courseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(pool *pgxpool.Pool) CourseRepository {
	return &courseRepository{pool: pool}
}

const courseColumns = `id, title, description, level, teacher_id, unit_count, published, created_at, updated_at`

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	const query = `
        INSERT INTO courses (id, title, description, level, teacher_id, unit_count, published)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		course.Level,
		course.TeacherID,
		course.UnitCount,
		course.Published,
	).Scan(&course.CreatedAt, &course.UpdatedAt)
}

func (r *courseRepository) Update(ctx context.Context, course *domain.Course) error {
	const query = `
        UPDATE courses SET title=$1, description=$2, level=$3, unit_count=$4, published=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		course.Title,
		course.Description,
		course.Level,
		course.UnitCount,
		course.Published,
		course.ID,
	).Scan(&course.UpdatedAt)
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id=$1`
	return scanCourse(r.pool.QueryRow(ctx, query, id))
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]domain.Course, error) {
	query := `SELECT ` + courseColumns + `
        FROM courses
        WHERE (published OR $1 OR teacher_id=$2::text)
          AND ($3::text IS NULL OR teacher_id=$3)
        ORDER BY created_at DESC
        LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query,
		filter.IncludeDrafts,
		filter.DraftOwnerID,
		filter.TeacherID,
		limitOrDefault(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var course domain.Course
	if err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Level,
		&course.TeacherID,
		&course.UnitCount,
		&course.Published,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &course, nil
}
