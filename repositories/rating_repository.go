package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/cuereview/models"
)

// RatingStore is the only path through which a player's rating changes. The
// rating engine stays free of ambient state by calling through it, and tests
// substitute an in-memory implementation.
type RatingStore interface {
	// CurrentRating reads the live rating. A nil exec reads outside any
	// transaction.
	CurrentRating(ctx context.Context, exec SQLExecutor, playerID int) (float64, error)
	// ApplyDelta adds delta to the player's rating and returns the new value.
	ApplyDelta(ctx context.Context, exec SQLExecutor, playerID int, delta float64) (float64, error)
	// AppendJournal records one immutable audit row per rating change.
	AppendJournal(ctx context.Context, exec SQLExecutor, entry *models.RatingJournalEntry) error
}

type postgresRatingStore struct {
	db *sql.DB
}

func NewPostgresRatingStore(db *sql.DB) RatingStore {
	return &postgresRatingStore{db: db}
}

func (r *postgresRatingStore) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRatingStore) CurrentRating(ctx context.Context, exec SQLExecutor, playerID int) (float64, error) {
	var rating float64
	err := r.exec(exec).QueryRowContext(ctx,
		`SELECT rating FROM players WHERE id = $1`, playerID).Scan(&rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("failed to read rating for player %d: %w", playerID, err)
	}
	return rating, nil
}

func (r *postgresRatingStore) ApplyDelta(ctx context.Context, exec SQLExecutor, playerID int, delta float64) (float64, error) {
	var rating float64
	err := r.exec(exec).QueryRowContext(ctx,
		`UPDATE players SET rating = rating + $1 WHERE id = $2 RETURNING rating`,
		delta, playerID).Scan(&rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("failed to apply rating delta for player %d: %w", playerID, err)
	}
	return rating, nil
}

func (r *postgresRatingStore) AppendJournal(ctx context.Context, exec SQLExecutor, entry *models.RatingJournalEntry) error {
	_, err := r.exec(exec).ExecContext(ctx, `
		INSERT INTO rating_journal (player_id, frame_id, change, opp_rating, new_rating)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.PlayerID, entry.FrameID, entry.Change, entry.OppRating, entry.NewRating)
	if err != nil {
		return fmt.Errorf("failed to append rating journal for player %d frame %d: %w",
			entry.PlayerID, entry.FrameID, err)
	}
	return nil
}
