package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/repositories"
)

type StatsService interface {
	// BallStats averages pots of each non-foul ball per player-frame in the
	// range. Each frame has two sides, hence the doubled denominator.
	BallStats(ctx context.Context, rng models.DateRange) ([]models.BallStat, error)
}

type statsService struct {
	balls  repositories.BallRepository
	frames repositories.FrameRepository
	logger *slog.Logger
}

func NewStatsService(balls repositories.BallRepository, frames repositories.FrameRepository, logger *slog.Logger) StatsService {
	return &statsService{balls: balls, frames: frames, logger: logger}
}

func (s *statsService) BallStats(ctx context.Context, rng models.DateRange) ([]models.BallStat, error) {
	frameCount, err := s.frames.CountInRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	if frameCount == 0 {
		return []models.BallStat{}, nil
	}

	balls, err := s.balls.ListNonFoul(ctx)
	if err != nil {
		return nil, err
	}

	sides := float64(frameCount * 2)
	stats := make([]models.BallStat, 0, len(balls))
	for _, ball := range balls {
		total, err := s.balls.CountPots(ctx, ball.ID, rng)
		if err != nil {
			return nil, err
		}
		avg := float64(total) / sides
		stats = append(stats, models.BallStat{
			Name:      ball.Name,
			Total:     total,
			Avg:       avg,
			AvgPoints: avg * float64(ball.Points),
		})
	}
	return stats, nil
}
