package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/cuereview/models"
)

var ErrBallNotFound = errors.New("ball not found")

type BallRepository interface {
	// GetOrCreate resolves a ball id by its (name, foul) identity, creating
	// the row on first sight. Runs on the executor so new balls commit or
	// roll back with the ingestion that introduced them.
	GetOrCreate(ctx context.Context, exec SQLExecutor, name string, points int, foul bool) (int, error)
	// ListNonFoul returns the scoring balls ordered by point value.
	ListNonFoul(ctx context.Context) ([]models.Ball, error)
	// CountPotsByPlayer counts a player's pots of one ball over confirmed
	// matches in the range.
	CountPotsByPlayer(ctx context.Context, playerID, ballID int, rng models.DateRange) (int, error)
	// CountPots counts all pots of one ball in the range, confirmed or not.
	CountPots(ctx context.Context, ballID int, rng models.DateRange) (int, error)
}

type postgresBallRepository struct {
	db *sql.DB
}

func NewPostgresBallRepository(db *sql.DB) BallRepository {
	return &postgresBallRepository{db: db}
}

func (r *postgresBallRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, name string, points int, foul bool) (int, error) {
	var id int
	err := exec.QueryRowContext(ctx,
		`SELECT id FROM balls WHERE name = $1 AND foul = $2`, name, foul).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up ball %q (foul=%t): %w", name, foul, err)
	}

	err = exec.QueryRowContext(ctx,
		`INSERT INTO balls (name, points, foul) VALUES ($1, $2, $3) RETURNING id`,
		name, points, foul).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			if lookupErr := exec.QueryRowContext(ctx,
				`SELECT id FROM balls WHERE name = $1 AND foul = $2`, name, foul).Scan(&id); lookupErr == nil {
				return id, nil
			}
		}
		return 0, fmt.Errorf("failed to create ball %q (foul=%t): %w", name, foul, err)
	}
	return id, nil
}

func (r *postgresBallRepository) ListNonFoul(ctx context.Context) ([]models.Ball, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, points, foul FROM balls WHERE NOT foul ORDER BY points ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balls: %w", err)
	}
	defer rows.Close()

	balls := make([]models.Ball, 0)
	for rows.Next() {
		var ball models.Ball
		if scanErr := rows.Scan(&ball.ID, &ball.Name, &ball.Points, &ball.Foul); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ball row: %w", scanErr)
		}
		balls = append(balls, ball)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ball rows iteration: %w", err)
	}
	return balls, nil
}

func (r *postgresBallRepository) CountPotsByPlayer(ctx context.Context, playerID, ballID int, rng models.DateRange) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM break_pots bp
		JOIN breaks b ON b.id = bp.break_id
		JOIN frames f ON f.id = b.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE b.player_id = $1 AND bp.ball_id = $2
		  AND m.confirmed AND m.date BETWEEN $3 AND $4`,
		playerID, ballID, rng.From, rng.To).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pots of ball %d for player %d: %w", ballID, playerID, err)
	}
	return count, nil
}

func (r *postgresBallRepository) CountPots(ctx context.Context, ballID int, rng models.DateRange) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM break_pots bp
		JOIN breaks b ON b.id = bp.break_id
		JOIN frames f ON f.id = b.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE bp.ball_id = $1 AND m.date BETWEEN $2 AND $3`,
		ballID, rng.From, rng.To).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pots of ball %d: %w", ballID, err)
	}
	return count, nil
}
