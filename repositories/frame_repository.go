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
	ErrFrameNotFound      = errors.New("frame not found")
	ErrFrameScoreConflict = errors.New("frame score already recorded")
)

type FrameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, matchID, frameNum int) (int, error)
	// DistinctPlayers returns the ids of players owning breaks in the frame.
	DistinctPlayers(ctx context.Context, exec SQLExecutor, frameID int) ([]int, error)
	// DistinctScorePlayers returns the ids holding frame scores in the match.
	DistinctScorePlayers(ctx context.Context, exec SQLExecutor, matchID int) ([]int, error)
	UpdateProbability(ctx context.Context, exec SQLExecutor, frameID int, probability float64) error
	CreateScore(ctx context.Context, exec SQLExecutor, score *models.FrameScore) error
	CountFramesWon(ctx context.Context, exec SQLExecutor, matchID, playerID int) (int, error)
	SumPoints(ctx context.Context, exec SQLExecutor, matchID, playerID int) (int, error)
	GetInfo(ctx context.Context, frameID int) (*models.FrameInfo, error)
	ListIDsByMatch(ctx context.Context, matchID int) ([]int, error)
	CountInRange(ctx context.Context, rng models.DateRange) (int, error)
	// BestScoreBefore and MostFoulPointsBefore feed the record-breaking stat
	// lines on the match page: the records standing before a given date.
	BestScoreBefore(ctx context.Context, date time.Time) (int, error)
	MostFoulPointsBefore(ctx context.Context, date time.Time) (int, error)
}

type postgresFrameRepository struct {
	db *sql.DB
}

func NewPostgresFrameRepository(db *sql.DB) FrameRepository {
	return &postgresFrameRepository{db: db}
}

func (r *postgresFrameRepository) Create(ctx context.Context, exec SQLExecutor, matchID, frameNum int) (int, error) {
	var id int
	err := exec.QueryRowContext(ctx,
		`INSERT INTO frames (match_id, frame_num) VALUES ($1, $2) RETURNING id`,
		matchID, frameNum).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create frame %d for match %d: %w", frameNum, matchID, err)
	}
	return id, nil
}

func (r *postgresFrameRepository) DistinctPlayers(ctx context.Context, exec SQLExecutor, frameID int) ([]int, error) {
	return r.scanIDs(ctx, exec,
		`SELECT DISTINCT player_id FROM breaks WHERE frame_id = $1 ORDER BY player_id`, frameID)
}

func (r *postgresFrameRepository) DistinctScorePlayers(ctx context.Context, exec SQLExecutor, matchID int) ([]int, error) {
	return r.scanIDs(ctx, exec, `
		SELECT DISTINCT fs.player_id
		FROM frames f
		JOIN frame_scores fs ON fs.frame_id = f.id
		WHERE f.match_id = $1
		ORDER BY fs.player_id`, matchID)
}

func (r *postgresFrameRepository) scanIDs(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]int, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query player ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, 2)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player id iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresFrameRepository) UpdateProbability(ctx context.Context, exec SQLExecutor, frameID int, probability float64) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE frames SET result_probability = $1 WHERE id = $2`, probability, frameID)
	if err != nil {
		return fmt.Errorf("failed to update probability for frame %d: %w", frameID, err)
	}
	return checkAffectedRows(result, ErrFrameNotFound)
}

func (r *postgresFrameRepository) CreateScore(ctx context.Context, exec SQLExecutor, score *models.FrameScore) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO frame_scores (frame_id, player_id, won, score, foul_points)
		VALUES ($1, $2, $3, $4, $5)`,
		score.FrameID, score.PlayerID, score.Won, score.Score, score.FoulPoints)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFrameScoreConflict
		}
		return fmt.Errorf("failed to create frame score for frame %d player %d: %w",
			score.FrameID, score.PlayerID, err)
	}
	return nil
}

func (r *postgresFrameRepository) CountFramesWon(ctx context.Context, exec SQLExecutor, matchID, playerID int) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `
		SELECT count(*)
		FROM frames f
		JOIN frame_scores fs ON fs.frame_id = f.id
		WHERE f.match_id = $1 AND fs.player_id = $2 AND fs.won`,
		matchID, playerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count frames won in match %d for player %d: %w", matchID, playerID, err)
	}
	return count, nil
}

func (r *postgresFrameRepository) SumPoints(ctx context.Context, exec SQLExecutor, matchID, playerID int) (int, error) {
	var total int
	err := exec.QueryRowContext(ctx, `
		SELECT coalesce(sum(fs.score), 0)
		FROM frames f
		JOIN frame_scores fs ON fs.frame_id = f.id
		WHERE f.match_id = $1 AND fs.player_id = $2`,
		matchID, playerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum points in match %d for player %d: %w", matchID, playerID, err)
	}
	return total, nil
}

func (r *postgresFrameRepository) GetInfo(ctx context.Context, frameID int) (*models.FrameInfo, error) {
	info := &models.FrameInfo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, match_id, frame_num, result_probability FROM frames WHERE id = $1`, frameID).
		Scan(&info.ID, &info.MatchID, &info.FrameNum, &info.ResultProbability)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFrameNotFound
		}
		return nil, fmt.Errorf("failed to scan frame %d: %w", frameID, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT fs.frame_id, fs.player_id, p.name, fs.won, fs.score, fs.foul_points
		FROM frame_scores fs
		JOIN players p ON p.id = fs.player_id
		WHERE fs.frame_id = $1
		ORDER BY fs.player_id`, frameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame scores for frame %d: %w", frameID, err)
	}
	defer rows.Close()

	info.Scores = make([]models.FrameScore, 0, 2)
	for rows.Next() {
		var score models.FrameScore
		if scanErr := rows.Scan(&score.FrameID, &score.PlayerID, &score.PlayerName,
			&score.Won, &score.Score, &score.FoulPoints); scanErr != nil {
			return nil, fmt.Errorf("failed to scan frame score row: %w", scanErr)
		}
		info.Scores = append(info.Scores, score)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during frame score iteration: %w", err)
	}
	return info, nil
}

func (r *postgresFrameRepository) ListIDsByMatch(ctx context.Context, matchID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM frames WHERE match_id = $1 ORDER BY frame_num`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames for match %d: %w", matchID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan frame id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during frame id iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresFrameRepository) CountInRange(ctx context.Context, rng models.DateRange) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM frames f
		JOIN matches m ON m.id = f.match_id
		WHERE m.date BETWEEN $1 AND $2`,
		rng.From, rng.To).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count frames in range: %w", err)
	}
	return count, nil
}

func (r *postgresFrameRepository) BestScoreBefore(ctx context.Context, date time.Time) (int, error) {
	return r.maxBefore(ctx, `fs.score`, date)
}

func (r *postgresFrameRepository) MostFoulPointsBefore(ctx context.Context, date time.Time) (int, error) {
	return r.maxBefore(ctx, `fs.foul_points`, date)
}

func (r *postgresFrameRepository) maxBefore(ctx context.Context, column string, date time.Time) (int, error) {
	var value int
	query := fmt.Sprintf(`
		SELECT coalesce(max(%s), 0)
		FROM frame_scores fs
		JOIN frames f ON f.id = fs.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE m.date < $1`, column)
	if err := r.db.QueryRowContext(ctx, query, date).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to find record before %s: %w", date.Format("2006-01-02"), err)
	}
	return value, nil
}
