package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/repositories"
	"golang.org/x/sync/errgroup"
)

type PlayerService interface {
	// GetPlayerStats aggregates a player's record over confirmed matches in
	// the range, including per-ball pot averages.
	GetPlayerStats(ctx context.Context, name string, rng models.DateRange) (*models.PlayerStats, error)
	// ListPlayers returns stats for every player active in the range, most
	// active first.
	ListPlayers(ctx context.Context, rng models.DateRange) ([]models.PlayerStats, error)
}

type playerService struct {
	players repositories.PlayerRepository
	balls   repositories.BallRepository
	logger  *slog.Logger
}

func NewPlayerService(players repositories.PlayerRepository, balls repositories.BallRepository, logger *slog.Logger) PlayerService {
	return &playerService{players: players, balls: balls, logger: logger}
}

func (s *playerService) GetPlayerStats(ctx context.Context, name string, rng models.DateRange) (*models.PlayerStats, error) {
	stats, err := s.players.Stats(ctx, name, rng)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	stats.Balls, err = s.ballAverages(ctx, stats.PlayerID, stats.FramesPlayed, rng)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ballAverages reports how often the player pots each non-foul ball per frame
// played. Zero frames means no averages.
func (s *playerService) ballAverages(ctx context.Context, playerID, framesPlayed int, rng models.DateRange) ([]models.BallStat, error) {
	if framesPlayed == 0 {
		return nil, nil
	}

	balls, err := s.balls.ListNonFoul(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]models.BallStat, 0, len(balls))
	for _, ball := range balls {
		total, err := s.balls.CountPotsByPlayer(ctx, playerID, ball.ID, rng)
		if err != nil {
			return nil, err
		}
		avg := float64(total) / float64(framesPlayed)
		stats = append(stats, models.BallStat{
			Name:      ball.Name,
			Total:     total,
			Avg:       avg,
			AvgPoints: avg * float64(ball.Points),
		})
	}
	return stats, nil
}

func (s *playerService) ListPlayers(ctx context.Context, rng models.DateRange) ([]models.PlayerStats, error) {
	names, err := s.players.ListNamesByActivity(ctx, rng)
	if err != nil {
		return nil, err
	}

	// Per-player stats fan out concurrently; the slice keeps the activity
	// ordering regardless of completion order.
	stats := make([]models.PlayerStats, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			playerStats, err := s.GetPlayerStats(gctx, name, rng)
			if err != nil {
				return err
			}
			stats[i] = *playerStats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
