package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/repositories"
)

// IngestService turns one CSV export into a confirmed match: parse, sequence
// shots into frames/breaks/pots, score, rate, all inside one unit of work.
type IngestService interface {
	// IngestCSV returns the new match id. A zero date means today. Any
	// failure after parsing rolls the whole match back and surfaces as
	// ErrIngestFailed; parse failures surface with their reason.
	IngestCSV(ctx context.Context, csvText string, date time.Time) (int, error)
}

type ingestService struct {
	uow     UnitOfWork
	players repositories.PlayerRepository
	balls   repositories.BallRepository
	matches repositories.MatchRepository
	frames  repositories.FrameRepository
	breaks  repositories.BreakRepository
	ratings RatingService
	logger  *slog.Logger
}

func NewIngestService(
	uow UnitOfWork,
	players repositories.PlayerRepository,
	balls repositories.BallRepository,
	matches repositories.MatchRepository,
	frames repositories.FrameRepository,
	breaks repositories.BreakRepository,
	ratings RatingService,
	logger *slog.Logger,
) IngestService {
	return &ingestService{
		uow:     uow,
		players: players,
		balls:   balls,
		matches: matches,
		frames:  frames,
		breaks:  breaks,
		ratings: ratings,
		logger:  logger,
	}
}

func (s *ingestService) IngestCSV(ctx context.Context, csvText string, date time.Time) (int, error) {
	// Player rows created while resolving names deliberately live outside
	// the match transaction: players are never deleted, and a failed upload
	// retried later reuses them.
	shots, playerIDs, err := newShotParser(s.players).Parse(ctx, csvText)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(playerIDs))
	for name := range playerIDs {
		names = append(names, name)
	}
	s.logger.Info("csv parsed", slog.Int("shots", len(shots)), slog.Any("players", names))

	if date.IsZero() {
		// Match dates are day-granular; record comparisons use strict "before
		// this date", so a time-of-day component would let same-day uploads
		// see each other as prior records.
		now := time.Now().UTC()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	var matchID int
	err = s.uow.Run(ctx, func(exec repositories.SQLExecutor) error {
		id, err := s.matches.Create(ctx, exec, date)
		if err != nil {
			return err
		}
		matchID = id

		run := &ingestRun{svc: s, exec: exec, matchID: matchID, keeper: &scoreKeeper{breaks: s.breaks}}
		seq := newShotSequencer(run)
		for _, shot := range shots {
			if err := seq.Feed(ctx, shot); err != nil {
				return err
			}
		}
		if err := seq.Finish(ctx); err != nil {
			return err
		}

		if err := s.closeMatch(ctx, exec, matchID); err != nil {
			return err
		}
		return s.matches.Confirm(ctx, exec, matchID)
	})
	if err != nil {
		s.logger.Error("match ingestion rolled back",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return 0, ErrIngestFailed
	}

	s.logger.Info("match ingested", slog.Int("match_id", matchID))
	return matchID, nil
}

// ingestRun binds the sequencer's transitions to the store within one
// transaction.
type ingestRun struct {
	svc     *ingestService
	exec    repositories.SQLExecutor
	matchID int
	keeper  *scoreKeeper
}

func (r *ingestRun) OpenFrame(ctx context.Context, frameNum int) (int, error) {
	return r.svc.frames.Create(ctx, r.exec, r.matchID, frameNum)
}

func (r *ingestRun) CloseFrame(ctx context.Context, frameID int) error {
	return r.svc.closeFrame(ctx, r.exec, r.keeper, frameID)
}

func (r *ingestRun) OpenBreak(ctx context.Context, frameID, breakNum, playerID int) (int, error) {
	return r.svc.breaks.Create(ctx, r.exec, frameID, breakNum, playerID)
}

func (r *ingestRun) CloseBreak(ctx context.Context, breakID int) error {
	return r.keeper.closeBreak(ctx, r.exec, breakID)
}

func (r *ingestRun) RegisterPot(ctx context.Context, breakID int, shot models.ShotRecord) error {
	ballID, err := r.svc.balls.GetOrCreate(ctx, r.exec, shot.Ball, shot.Points, shot.Type == models.ShotTypeFoul)
	if err != nil {
		return err
	}
	return r.svc.breaks.AddPot(ctx, r.exec, breakID, ballID)
}

// closeFrame settles a frame: final scores for both players, the frozen
// result probability, two FrameScore rows and the rating update. The first
// player keeps ties; rating history depends on this asymmetry, so it is
// preserved as-is.
func (s *ingestService) closeFrame(ctx context.Context, exec repositories.SQLExecutor, keeper *scoreKeeper, frameID int) error {
	playerIDs, err := s.frames.DistinctPlayers(ctx, exec, frameID)
	if err != nil {
		return err
	}
	if len(playerIDs) != 2 {
		return fmt.Errorf("%w: expected 2 players in frame %d, found %d", ErrLookupFailed, frameID, len(playerIDs))
	}

	scores := make([]int, 2)
	foulPoints := make([]int, 2)
	for i, playerID := range playerIDs {
		scores[i], foulPoints[i], err = keeper.currentFrameScore(ctx, exec, frameID, playerID, false)
		if err != nil {
			return err
		}
	}

	winner, loser := 0, 1
	if scores[1] > scores[0] {
		winner, loser = 1, 0
	}

	probability, err := s.ratings.ContestProbability(ctx, exec, playerIDs[winner], playerIDs[loser])
	if err != nil {
		return err
	}
	if err := s.frames.UpdateProbability(ctx, exec, frameID, probability); err != nil {
		return err
	}

	for i, playerID := range playerIDs {
		if err := s.frames.CreateScore(ctx, exec, &models.FrameScore{
			FrameID:    frameID,
			PlayerID:   playerID,
			Won:        i == winner,
			Score:      scores[i],
			FoulPoints: foulPoints[i],
		}); err != nil {
			return err
		}
	}

	return s.ratings.ApplyFrameResult(ctx, exec, playerIDs[winner], playerIDs[loser], frameID)
}

// closeMatch writes the two MatchScore rows. The winner has more frames; a
// frame tie falls back to aggregate points, and a full tie leaves the first
// player as the nominal winner.
func (s *ingestService) closeMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	playerIDs, err := s.frames.DistinctScorePlayers(ctx, exec, matchID)
	if err != nil {
		return err
	}
	if len(playerIDs) != 2 {
		return fmt.Errorf("%w: expected 2 players in match %d, found %d", ErrLookupFailed, matchID, len(playerIDs))
	}

	framesWon := make([]int, 2)
	totalPoints := make([]int, 2)
	for i, playerID := range playerIDs {
		framesWon[i], err = s.frames.CountFramesWon(ctx, exec, matchID, playerID)
		if err != nil {
			return err
		}
		totalPoints[i], err = s.frames.SumPoints(ctx, exec, matchID, playerID)
		if err != nil {
			return err
		}
	}

	firstWon := true
	if framesWon[1] > framesWon[0] {
		firstWon = false
	} else if framesWon[1] == framesWon[0] && totalPoints[1] > totalPoints[0] {
		firstWon = false
	}

	for i, playerID := range playerIDs {
		if err := s.matches.CreateScore(ctx, exec, &models.MatchScore{
			MatchID:     matchID,
			PlayerID:    playerID,
			Won:         (i == 0) == firstWon,
			FramesWon:   framesWon[i],
			TotalPoints: totalPoints[i],
		}); err != nil {
			return err
		}
	}
	return nil
}
