package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darsni/backend/internal/domain"
)

// UserRepository defines persistence access for user profiles.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	List(ctx context.Context, filter UserFilter) ([]domain.UserProfile, error)
}

// UserFilter defines query params for profile listing.
type UserFilter struct {
	Role   *domain.Role
	Limit  int
	Offset int
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.UserProfile) error {
	const query = `
        INSERT INTO user_profiles (id, email, display_name, photo_url, role, last_seen_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (id) DO UPDATE SET
            email=EXCLUDED.email,
            display_name=EXCLUDED.display_name,
            photo_url=EXCLUDED.photo_url,
            role=EXCLUDED.role,
            last_seen_at=NOW(),
            updated_at=NOW()
        RETURNING last_seen_at, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.Role,
	).Scan(&user.LastSeenAt, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	const query = `
        SELECT id, email, display_name, photo_url, role, last_seen_at, created_at, updated_at
        FROM user_profiles WHERE id=$1`

	var user domain.UserProfile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PhotoURL,
		&user.Role,
		&user.LastSeenAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.UserProfile, error) {
	const query = `
        SELECT id, email, display_name, photo_url, role, last_seen_at, created_at, updated_at
        FROM user_profiles
        WHERE ($1::text IS NULL OR role=$1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	var role *string
	if filter.Role != nil {
		v := string(*filter.Role)
		role = &v
	}

	rows, err := r.pool.Query(ctx, query, role, limitOrDefault(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserProfile
	for rows.Next() {
		var user domain.UserProfile
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.DisplayName,
			&user.PhotoURL,
			&user.Role,
			&user.LastSeenAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
