package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/repository"
)

var fallbackQuote = domain.Quote{
	Text:   "Education is the most powerful weapon which you can use to change the world.",
	Author: "Nelson Mandela",
}

// QuoteService serves dashboard quotes.
type QuoteService struct {
	quotes repository.QuoteRepository
}

// NewQuoteService builds the service.
func NewQuoteService(quotes repository.QuoteRepository) *QuoteService {
	return &QuoteService{quotes: quotes}
}

// Random returns a random stored quote, or a built-in one when none are stored.
func (s *QuoteService) Random(ctx context.Context) (*domain.Quote, error) {
	q, err := s.quotes.Random(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		fallback := fallbackQuote
		return &fallback, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}
