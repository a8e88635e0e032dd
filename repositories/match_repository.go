package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/cuereview/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchScoreConflict = errors.New("match score already recorded")
)

type MatchRepository interface {
	// Create inserts an unconfirmed match shell at the start of an ingestion.
	Create(ctx context.Context, exec SQLExecutor, date time.Time) (int, error)
	// Confirm flips the confirmed flag once every frame and both match
	// scores are in place, inside the same unit of work.
	Confirm(ctx context.Context, exec SQLExecutor, matchID int) error
	CreateScore(ctx context.Context, exec SQLExecutor, score *models.MatchScore) error
	GetInfo(ctx context.Context, matchID int) (*models.MatchInfo, error)
	// ListConfirmedIDs returns confirmed matches ordered by date. Unconfirmed
	// matches never appear in listings.
	ListConfirmedIDs(ctx context.Context) ([]int, error)
	// ListIDsForPlayer matches the player name case-insensitively.
	ListIDsForPlayer(ctx context.Context, name string) ([]int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, date time.Time) (int, error) {
	var id int
	err := exec.QueryRowContext(ctx,
		`INSERT INTO matches (date) VALUES ($1) RETURNING id`, date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create match: %w", err)
	}
	return id, nil
}

func (r *postgresMatchRepository) Confirm(ctx context.Context, exec SQLExecutor, matchID int) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE matches SET confirmed = TRUE WHERE id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to confirm match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CreateScore(ctx context.Context, exec SQLExecutor, score *models.MatchScore) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO match_scores (match_id, player_id, won, frames_won, total_points)
		VALUES ($1, $2, $3, $4, $5)`,
		score.MatchID, score.PlayerID, score.Won, score.FramesWon, score.TotalPoints)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrMatchScoreConflict
		}
		return fmt.Errorf("failed to create match score for match %d player %d: %w",
			score.MatchID, score.PlayerID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetInfo(ctx context.Context, matchID int) (*models.MatchInfo, error) {
	info := &models.MatchInfo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, date, confirmed FROM matches WHERE id = $1`, matchID).
		Scan(&info.ID, &info.Date, &info.Confirmed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", matchID, err)
	}
	info.PrettyDate = info.Date.Format("02/01/2006")

	rows, err := r.db.QueryContext(ctx, `
		SELECT ms.match_id, ms.player_id, p.name, ms.won, ms.frames_won, ms.total_points
		FROM match_scores ms
		JOIN players p ON p.id = ms.player_id
		WHERE ms.match_id = $1
		ORDER BY ms.player_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match scores for match %d: %w", matchID, err)
	}
	defer rows.Close()

	info.Scores = make([]models.MatchScore, 0, 2)
	for rows.Next() {
		var score models.MatchScore
		if scanErr := rows.Scan(&score.MatchID, &score.PlayerID, &score.PlayerName,
			&score.Won, &score.FramesWon, &score.TotalPoints); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match score row: %w", scanErr)
		}
		info.Scores = append(info.Scores, score)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match score iteration: %w", err)
	}
	return info, nil
}

func (r *postgresMatchRepository) ListConfirmedIDs(ctx context.Context) ([]int, error) {
	return r.listIDs(ctx, `SELECT id FROM matches WHERE confirmed ORDER BY date, id`)
}

func (r *postgresMatchRepository) ListIDsForPlayer(ctx context.Context, name string) ([]int, error) {
	return r.listIDs(ctx, `
		SELECT m.id
		FROM matches m
		JOIN match_scores ms ON ms.match_id = m.id
		JOIN players p ON p.id = ms.player_id
		WHERE m.confirmed AND upper(p.name) = upper($1)
		GROUP BY m.id, m.date
		ORDER BY m.date, m.id`, name)
}

func (r *postgresMatchRepository) listIDs(ctx context.Context, query string, args ...interface{}) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query match ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match id iteration: %w", err)
	}
	return ids, nil
}
