package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darsni/backend/internal/domain"
)

// QuoteRepository stores dashboard quotes.
type QuoteRepository interface {
	Random(ctx context.Context) (*domain.Quote, error)
	// Create inserts the quote unless the same text already exists.
	Create(ctx context.Context, quote *domain.Quote) error
}

type quoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository constructs repository.
func NewQuoteRepository(pool *pgxpool.Pool) QuoteRepository {
	return &quoteRepository{pool: pool}
}

func (r *quoteRepository) Random(ctx context.Context) (*domain.Quote, error) {
	const query = `SELECT id, text, author FROM quotes ORDER BY random() LIMIT 1`
	var q domain.Quote
	if err := r.pool.QueryRow(ctx, query).Scan(&q.ID, &q.Text, &q.Author); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	const query = `
        INSERT INTO quotes (id, text, author) VALUES ($1,$2,$3)
        ON CONFLICT (text) DO NOTHING`
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query, quote.ID, quote.Text, quote.Author)
	return err
}
