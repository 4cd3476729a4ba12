package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/darsni/backend/internal/config"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/observability"
	"github.com/darsni/backend/internal/persistence"
	"github.com/darsni/backend/internal/repository"
)

var sampleQuotes = []domain.Quote{
	{Text: "Education is the most powerful weapon which you can use to change the world.", Author: "Nelson Mandela"},
	{Text: "The beautiful thing about learning is that nobody can take it away from you.", Author: "B.B. King"},
	{Text: "Live as if you were to die tomorrow. Learn as if you were to live forever.", Author: "Mahatma Gandhi"},
	{Text: "An investment in knowledge pays the best interest.", Author: "Benjamin Franklin"},
	{Text: "Tell me and I forget. Teach me and I remember. Involve me and I learn.", Author: "Benjamin Franklin"},
}

var sampleStandings = map[string]int64{
	"demo-student-1": 1250,
	"demo-student-2": 980,
	"demo-student-3": 640,
}

func main() {
	withStandings := flag.Bool("leaderboard", false, "also seed sample leaderboard standings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name+"-seed", logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}
	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	quotes := repository.NewQuoteRepository(pg.PoolHandle())
	for i := range sampleQuotes {
		if err := quotes.Create(ctx, &sampleQuotes[i]); err != nil {
			logger.Fatal("failed to seed quote", zap.String("author", sampleQuotes[i].Author), zap.Error(err))
		}
	}
	logger.Info("quotes seeded", zap.Int("count", len(sampleQuotes)))

	if !*withStandings {
		return
	}
	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	board := repository.NewLeaderboardStore(redis.Client, cfg.Leaderboard.Key)
	for userID, xp := range sampleStandings {
		if _, err := board.AddXP(ctx, userID, xp); err != nil {
			logger.Fatal("failed to seed standing", zap.String("user_id", userID), zap.Error(err))
		}
	}
	logger.Info("leaderboard seeded", zap.Int("count", len(sampleStandings)))
}
