package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/repositories"
)

// Elo constants. The scale stays at the historical 1000 rather than the
// conventional 400: normalizing it would shift every stored probability and
// break continuity of the rating history.
const (
	eloScale = 1000.0
	eloK     = 32.0
)

type RatingService interface {
	// ApplyFrameResult moves both ratings by one delta computed from the
	// pre-update probability and journals both changes. Runs inside the
	// ingestion's unit of work; a failed player lookup aborts the ingestion.
	ApplyFrameResult(ctx context.Context, exec repositories.SQLExecutor, winnerID, loserID, frameID int) error
	// ContestProbability uses live ratings at call time. Pass a nil exec
	// outside a transaction.
	ContestProbability(ctx context.Context, exec repositories.SQLExecutor, playerID, opponentID int) (float64, error)
}

type ratingService struct {
	store  repositories.RatingStore
	logger *slog.Logger
}

func NewRatingService(store repositories.RatingStore, logger *slog.Logger) RatingService {
	return &ratingService{store: store, logger: logger}
}

// Probability is the chance of the first rating beating the second.
func Probability(rating, oppRating float64) float64 {
	return 1 / (1 + math.Pow(10, (oppRating-rating)/eloScale))
}

func (s *ratingService) ContestProbability(ctx context.Context, exec repositories.SQLExecutor, playerID, opponentID int) (float64, error) {
	rating, err := s.store.CurrentRating(ctx, exec, playerID)
	if err != nil {
		return 0, fmt.Errorf("%w: rating for player %d: %v", ErrLookupFailed, playerID, err)
	}
	oppRating, err := s.store.CurrentRating(ctx, exec, opponentID)
	if err != nil {
		return 0, fmt.Errorf("%w: rating for player %d: %v", ErrLookupFailed, opponentID, err)
	}
	return Probability(rating, oppRating), nil
}

func (s *ratingService) ApplyFrameResult(ctx context.Context, exec repositories.SQLExecutor, winnerID, loserID, frameID int) error {
	winnerRating, err := s.store.CurrentRating(ctx, exec, winnerID)
	if err != nil {
		return fmt.Errorf("%w: rating for winner %d: %v", ErrLookupFailed, winnerID, err)
	}
	loserRating, err := s.store.CurrentRating(ctx, exec, loserID)
	if err != nil {
		return fmt.Errorf("%w: rating for loser %d: %v", ErrLookupFailed, loserID, err)
	}

	// One probability computation feeds both deltas, so they are equal in
	// magnitude and opposite in sign by construction.
	change := eloK * (1 - Probability(winnerRating, loserRating))

	newWinnerRating, err := s.store.ApplyDelta(ctx, exec, winnerID, change)
	if err != nil {
		return err
	}
	if err := s.store.AppendJournal(ctx, exec, &models.RatingJournalEntry{
		PlayerID:  winnerID,
		FrameID:   frameID,
		Change:    change,
		OppRating: loserRating,
		NewRating: newWinnerRating,
	}); err != nil {
		return err
	}

	newLoserRating, err := s.store.ApplyDelta(ctx, exec, loserID, -change)
	if err != nil {
		return err
	}
	if err := s.store.AppendJournal(ctx, exec, &models.RatingJournalEntry{
		PlayerID:  loserID,
		FrameID:   frameID,
		Change:    -change,
		OppRating: winnerRating,
		NewRating: newLoserRating,
	}); err != nil {
		return err
	}

	s.logger.Info("ratings updated",
		slog.Int("frame_id", frameID),
		slog.Int("winner_id", winnerID),
		slog.Float64("winner_rating", newWinnerRating),
		slog.Int("loser_id", loserID),
		slog.Float64("loser_rating", newLoserRating),
		slog.Float64("change", change))
	return nil
}
