package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/cuereview/models"
)

var ErrBreakNotFound = errors.New("break not found")

type BreakRepository interface {
	// Create opens a mutable break shell. Score, length, foul_num and the two
	// frame-score snapshots stay zero/NULL until Close freezes them.
	Create(ctx context.Context, exec SQLExecutor, frameID, breakNum, playerID int) (int, error)
	// AddPot appends a pot with the next 1-based pot_num.
	AddPot(ctx context.Context, exec SQLExecutor, breakID, ballID int) error
	Get(ctx context.Context, exec SQLExecutor, breakID int) (*models.Break, error)
	CountFoulPots(ctx context.Context, exec SQLExecutor, breakID int) (int, error)
	SumPotPoints(ctx context.Context, exec SQLExecutor, breakID int) (int, error)
	CountPots(ctx context.Context, exec SQLExecutor, breakID int) (int, error)
	// NextFoulNum returns one more than the highest foul_num among breaks
	// sharing this break's (frame_id, break_num) slot, starting at 1.
	NextFoulNum(ctx context.Context, exec SQLExecutor, breakID int) (int, error)
	Close(ctx context.Context, exec SQLExecutor, breakID, score, length int, foulNum *int, frameScore, oppFrameScore int) error
	// SumScores totals non-foul break scores in a frame for one side, with
	// break_num at or below the cutoff. opponent selects the other player's
	// rows instead.
	SumScores(ctx context.Context, exec SQLExecutor, frameID, playerID, breakNum int, opponent bool) (int, error)
	// SumFoulScores totals foul-break scores for one side, ordered by the
	// composite key break_num*100+foul_num at or below the given cutoff pair.
	SumFoulScores(ctx context.Context, exec SQLExecutor, frameID, playerID, breakNum, foulNum int, opponent bool) (int, error)
	// ListByFrame returns closed breaks with owner names and ordered pots, in
	// break_num then foul_num order.
	ListByFrame(ctx context.Context, frameID int) ([]models.BreakDetail, error)
	Detail(ctx context.Context, breakID int) (*models.BreakDetail, error)
}

type postgresBreakRepository struct {
	db *sql.DB
}

func NewPostgresBreakRepository(db *sql.DB) BreakRepository {
	return &postgresBreakRepository{db: db}
}

func (r *postgresBreakRepository) Create(ctx context.Context, exec SQLExecutor, frameID, breakNum, playerID int) (int, error) {
	var id int
	err := exec.QueryRowContext(ctx,
		`INSERT INTO breaks (frame_id, break_num, player_id) VALUES ($1, $2, $3) RETURNING id`,
		frameID, breakNum, playerID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create break %d in frame %d: %w", breakNum, frameID, err)
	}
	return id, nil
}

func (r *postgresBreakRepository) AddPot(ctx context.Context, exec SQLExecutor, breakID, ballID int) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO break_pots (break_id, pot_num, ball_id)
		SELECT $1, coalesce(max(pot_num) + 1, 1), $2
		FROM break_pots
		WHERE break_id = $1`,
		breakID, ballID)
	if err != nil {
		return fmt.Errorf("failed to register pot on break %d: %w", breakID, err)
	}
	return nil
}

func (r *postgresBreakRepository) Get(ctx context.Context, exec SQLExecutor, breakID int) (*models.Break, error) {
	b := &models.Break{}
	err := exec.QueryRowContext(ctx, `
		SELECT id, frame_id, break_num, player_id,
		       coalesce(score, 0), coalesce(length, 0), foul_num,
		       coalesce(frame_score, 0), coalesce(opp_frame_score, 0)
		FROM breaks WHERE id = $1`, breakID).
		Scan(&b.ID, &b.FrameID, &b.BreakNum, &b.PlayerID,
			&b.Score, &b.Length, &b.FoulNum, &b.FrameScore, &b.OppFrameScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBreakNotFound
		}
		return nil, fmt.Errorf("failed to scan break %d: %w", breakID, err)
	}
	return b, nil
}

func (r *postgresBreakRepository) CountFoulPots(ctx context.Context, exec SQLExecutor, breakID int) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `
		SELECT count(*)
		FROM break_pots bp
		JOIN balls b ON b.id = bp.ball_id
		WHERE bp.break_id = $1 AND b.foul`, breakID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count foul pots on break %d: %w", breakID, err)
	}
	return count, nil
}

func (r *postgresBreakRepository) SumPotPoints(ctx context.Context, exec SQLExecutor, breakID int) (int, error) {
	var sum int
	err := exec.QueryRowContext(ctx, `
		SELECT coalesce(sum(b.points), 0)
		FROM break_pots bp
		JOIN balls b ON b.id = bp.ball_id
		WHERE bp.break_id = $1`, breakID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pot points on break %d: %w", breakID, err)
	}
	return sum, nil
}

func (r *postgresBreakRepository) CountPots(ctx context.Context, exec SQLExecutor, breakID int) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx,
		`SELECT count(*) FROM break_pots WHERE break_id = $1`, breakID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pots on break %d: %w", breakID, err)
	}
	return count, nil
}

func (r *postgresBreakRepository) NextFoulNum(ctx context.Context, exec SQLExecutor, breakID int) (int, error) {
	var foulNum int
	err := exec.QueryRowContext(ctx, `
		SELECT coalesce(max(b2.foul_num) + 1, 1)
		FROM breaks b1
		JOIN breaks b2 ON b2.frame_id = b1.frame_id AND b2.break_num = b1.break_num
		WHERE b1.id = $1`, breakID).Scan(&foulNum)
	if err != nil {
		return 0, fmt.Errorf("failed to find next foul_num for break %d: %w", breakID, err)
	}
	return foulNum, nil
}

func (r *postgresBreakRepository) Close(ctx context.Context, exec SQLExecutor, breakID, score, length int, foulNum *int, frameScore, oppFrameScore int) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE breaks
		SET score = $1, length = $2, foul_num = $3, frame_score = $4, opp_frame_score = $5
		WHERE id = $6`,
		score, length, foulNum, frameScore, oppFrameScore, breakID)
	if err != nil {
		return fmt.Errorf("failed to close break %d: %w", breakID, err)
	}
	return checkAffectedRows(result, ErrBreakNotFound)
}

func (r *postgresBreakRepository) SumScores(ctx context.Context, exec SQLExecutor, frameID, playerID, breakNum int, opponent bool) (int, error) {
	playerClause := "player_id = $2"
	if opponent {
		playerClause = "player_id <> $2"
	}
	var sum int
	err := exec.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT coalesce(sum(score), 0)
		FROM breaks
		WHERE frame_id = $1 AND %s
		  AND foul_num IS NULL
		  AND break_num <= $3`, playerClause),
		frameID, playerID, breakNum).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum break scores in frame %d: %w", frameID, err)
	}
	return sum, nil
}

func (r *postgresBreakRepository) SumFoulScores(ctx context.Context, exec SQLExecutor, frameID, playerID, breakNum, foulNum int, opponent bool) (int, error) {
	playerClause := "player_id = $2"
	if opponent {
		playerClause = "player_id <> $2"
	}
	// break_num*100 + foul_num keys foul breaks sharing a slot so the cutoff
	// can exclude fouls later in the same nominal break.
	var sum int
	err := exec.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT coalesce(sum(score), 0)
		FROM breaks
		WHERE frame_id = $1 AND %s
		  AND foul_num IS NOT NULL
		  AND break_num * 100 + foul_num <= $3 * 100 + $4`, playerClause),
		frameID, playerID, breakNum, foulNum).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum foul scores in frame %d: %w", frameID, err)
	}
	return sum, nil
}

func (r *postgresBreakRepository) ListByFrame(ctx context.Context, frameID int) ([]models.BreakDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.frame_id, b.break_num, b.player_id,
		       coalesce(b.score, 0), coalesce(b.length, 0), b.foul_num,
		       coalesce(b.frame_score, 0), coalesce(b.opp_frame_score, 0), p.name
		FROM breaks b
		JOIN players p ON p.id = b.player_id
		WHERE b.frame_id = $1
		ORDER BY b.break_num, b.foul_num NULLS FIRST, b.id`, frameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query breaks for frame %d: %w", frameID, err)
	}
	defer rows.Close()

	breaks := make([]models.BreakDetail, 0)
	for rows.Next() {
		var detail models.BreakDetail
		if scanErr := rows.Scan(&detail.ID, &detail.FrameID, &detail.BreakNum, &detail.PlayerID,
			&detail.Score, &detail.Length, &detail.FoulNum,
			&detail.FrameScore, &detail.OppFrameScore, &detail.PlayerName); scanErr != nil {
			return nil, fmt.Errorf("failed to scan break row: %w", scanErr)
		}
		breaks = append(breaks, detail)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during break iteration: %w", err)
	}

	for i := range breaks {
		breaks[i].Pots, err = r.listPots(ctx, breaks[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return breaks, nil
}

func (r *postgresBreakRepository) Detail(ctx context.Context, breakID int) (*models.BreakDetail, error) {
	detail := &models.BreakDetail{}
	err := r.db.QueryRowContext(ctx, `
		SELECT b.id, b.frame_id, b.break_num, b.player_id,
		       coalesce(b.score, 0), coalesce(b.length, 0), b.foul_num,
		       coalesce(b.frame_score, 0), coalesce(b.opp_frame_score, 0), p.name
		FROM breaks b
		JOIN players p ON p.id = b.player_id
		WHERE b.id = $1`, breakID).
		Scan(&detail.ID, &detail.FrameID, &detail.BreakNum, &detail.PlayerID,
			&detail.Score, &detail.Length, &detail.FoulNum,
			&detail.FrameScore, &detail.OppFrameScore, &detail.PlayerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBreakNotFound
		}
		return nil, fmt.Errorf("failed to scan break %d: %w", breakID, err)
	}

	detail.Pots, err = r.listPots(ctx, breakID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *postgresBreakRepository) listPots(ctx context.Context, breakID int) ([]models.Pot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bp.break_id, bp.pot_num, b.id, b.name, b.points, b.foul
		FROM break_pots bp
		JOIN balls b ON b.id = bp.ball_id
		WHERE bp.break_id = $1
		ORDER BY bp.pot_num`, breakID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pots for break %d: %w", breakID, err)
	}
	defer rows.Close()

	pots := make([]models.Pot, 0)
	for rows.Next() {
		var pot models.Pot
		if scanErr := rows.Scan(&pot.BreakID, &pot.PotNum, &pot.BallID,
			&pot.Name, &pot.Points, &pot.Foul); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pot row: %w", scanErr)
		}
		pots = append(pots, pot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pot iteration: %w", err)
	}
	return pots, nil
}
