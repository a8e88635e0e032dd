package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/repositories"
)

// MatchService serves the read side: listings and fully materialized match,
// frame and break views.
type MatchService interface {
	ListMatches(ctx context.Context) ([]models.MatchInfo, error)
	ListMatchesForPlayer(ctx context.Context, name string) ([]models.MatchInfo, error)
	GetMatch(ctx context.Context, matchID int) (*models.MatchDetail, error)
	GetFrame(ctx context.Context, frameID int) (*models.FrameDetail, error)
	GetBreak(ctx context.Context, breakID int) (*models.BreakDetail, error)
}

type matchService struct {
	matches repositories.MatchRepository
	frames  repositories.FrameRepository
	breaks  repositories.BreakRepository
	logger  *slog.Logger
}

func NewMatchService(
	matches repositories.MatchRepository,
	frames repositories.FrameRepository,
	breaks repositories.BreakRepository,
	logger *slog.Logger,
) MatchService {
	return &matchService{matches: matches, frames: frames, breaks: breaks, logger: logger}
}

func (s *matchService) ListMatches(ctx context.Context) ([]models.MatchInfo, error) {
	ids, err := s.matches.ListConfirmedIDs(ctx)
	if err != nil {
		return nil, err
	}
	return s.collectInfos(ctx, ids)
}

func (s *matchService) ListMatchesForPlayer(ctx context.Context, name string) ([]models.MatchInfo, error) {
	ids, err := s.matches.ListIDsForPlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.collectInfos(ctx, ids)
}

func (s *matchService) collectInfos(ctx context.Context, ids []int) ([]models.MatchInfo, error) {
	infos := make([]models.MatchInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.matches.GetInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.MatchDetail, error) {
	info, err := s.matches.GetInfo(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	frameIDs, err := s.frames.ListIDsByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	detail := &models.MatchDetail{MatchInfo: *info}
	detail.Frames = make([]models.FrameInfo, 0, len(frameIDs))
	for _, frameID := range frameIDs {
		frame, err := s.frames.GetInfo(ctx, frameID)
		if err != nil {
			return nil, err
		}
		detail.Frames = append(detail.Frames, *frame)
	}

	detail.Stats, err = s.recordStats(ctx, detail)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// recordStats produces the "record broken" lines for a match page by replaying
// its frames against the records standing before the match date. Records set
// earlier in the same match raise the bar for later frames.
func (s *matchService) recordStats(ctx context.Context, detail *models.MatchDetail) ([]string, error) {
	bestScore, err := s.frames.BestScoreBefore(ctx, detail.Date)
	if err != nil {
		return nil, err
	}
	mostFouls, err := s.frames.MostFoulPointsBefore(ctx, detail.Date)
	if err != nil {
		return nil, err
	}

	stats := make([]string, 0)
	for _, frame := range detail.Frames {
		for _, score := range frame.Scores {
			if score.Score > bestScore {
				stats = append(stats, fmt.Sprintf(
					"%s set a new frame score record: %d (previous %d)",
					score.PlayerName, score.Score, bestScore))
				bestScore = score.Score
			}
			if score.FoulPoints > mostFouls {
				stats = append(stats, fmt.Sprintf(
					"%s set a new foul points record: %d (previous %d)",
					score.PlayerName, score.FoulPoints, mostFouls))
				mostFouls = score.FoulPoints
			}
		}
	}
	return stats, nil
}

func (s *matchService) GetFrame(ctx context.Context, frameID int) (*models.FrameDetail, error) {
	info, err := s.frames.GetInfo(ctx, frameID)
	if err != nil {
		if errors.Is(err, repositories.ErrFrameNotFound) {
			return nil, ErrFrameNotFound
		}
		return nil, err
	}

	breaks, err := s.breaks.ListByFrame(ctx, frameID)
	if err != nil {
		return nil, err
	}
	return &models.FrameDetail{FrameInfo: *info, Breaks: breaks}, nil
}

func (s *matchService) GetBreak(ctx context.Context, breakID int) (*models.BreakDetail, error) {
	detail, err := s.breaks.Detail(ctx, breakID)
	if err != nil {
		if errors.Is(err, repositories.ErrBreakNotFound) {
			return nil, ErrBreakNotFound
		}
		return nil, err
	}
	return detail, nil
}
