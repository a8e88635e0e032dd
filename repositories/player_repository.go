package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/cuereview/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	// GetOrCreateByName resolves a player id, creating the row on first
	// sight. Creation is case-sensitive; stats lookups are not.
	GetOrCreateByName(ctx context.Context, name string) (int, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	// Stats aggregates a player's record over confirmed matches in the range.
	// Returns ErrPlayerNotFound when the player has no confirmed matches there.
	Stats(ctx context.Context, name string, rng models.DateRange) (*models.PlayerStats, error)
	// ListNamesByActivity returns player names ordered by match count in the
	// range, most active first.
	ListNamesByActivity(ctx context.Context, rng models.DateRange) ([]string, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) GetOrCreateByName(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `SELECT id FROM players WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up player %q: %w", name, err)
	}

	err = r.db.QueryRowContext(ctx, `INSERT INTO players (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a create race, the row exists now.
			if lookupErr := r.db.QueryRowContext(ctx, `SELECT id FROM players WHERE name = $1`, name).Scan(&id); lookupErr == nil {
				return id, nil
			}
		}
		return 0, fmt.Errorf("failed to create player %q: %w", name, err)
	}
	return id, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	player := &models.Player{}
	err := r.exec(exec).QueryRowContext(ctx,
		`SELECT id, name, rating, created_at FROM players WHERE id = $1`, id).
		Scan(&player.ID, &player.Name, &player.Rating, &player.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) Stats(ctx context.Context, name string, rng models.DateRange) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.rating, count(*)
		FROM match_scores ms
		JOIN matches m ON m.id = ms.match_id
		JOIN players p ON p.id = ms.player_id
		WHERE m.confirmed
		  AND m.date BETWEEN $2 AND $3
		  AND upper(p.name) = upper($1)
		GROUP BY p.id, p.name, p.rating`,
		name, rng.From, rng.To).
		Scan(&stats.PlayerID, &stats.Name, &stats.Rating, &stats.MatchesPlayed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan stats for player %q: %w", name, err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM match_scores ms
		JOIN matches m ON m.id = ms.match_id
		WHERE ms.player_id = $1 AND m.confirmed
		  AND m.date BETWEEN $2 AND $3 AND ms.won`,
		stats.PlayerID, rng.From, rng.To).Scan(&stats.Wins)
	if err != nil {
		return nil, fmt.Errorf("failed to count wins for player %d: %w", stats.PlayerID, err)
	}
	stats.Losses = stats.MatchesPlayed - stats.Wins
	stats.Percentage = int(float64(stats.Wins) / float64(stats.MatchesPlayed) * 100)

	err = r.db.QueryRowContext(ctx, `
		SELECT count(*), count(*) FILTER (WHERE fs.won)
		FROM frame_scores fs
		JOIN frames f ON f.id = fs.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE fs.player_id = $1 AND m.confirmed
		  AND m.date BETWEEN $2 AND $3`,
		stats.PlayerID, rng.From, rng.To).Scan(&stats.FramesPlayed, &stats.FrameWins)
	if err != nil {
		return nil, fmt.Errorf("failed to count frames for player %d: %w", stats.PlayerID, err)
	}
	stats.FrameLosses = stats.FramesPlayed - stats.FrameWins
	if stats.FramesPlayed > 0 {
		stats.FramePercentage = int(float64(stats.FrameWins) / float64(stats.FramesPlayed) * 100)
	}

	stats.HighestBreak, err = r.breakHighlight(ctx, stats.PlayerID, rng, `b.score`, `ORDER BY b.score DESC, b.length DESC`)
	if err != nil {
		return nil, err
	}
	stats.LongestBreak, err = r.breakHighlight(ctx, stats.PlayerID, rng, `b.length`, `ORDER BY b.length DESC`)
	if err != nil {
		return nil, err
	}
	stats.BestScore, err = r.frameHighlight(ctx, stats.PlayerID, rng, `fs.score`)
	if err != nil {
		return nil, err
	}
	stats.MostFouls, err = r.frameHighlight(ctx, stats.PlayerID, rng, `fs.foul_points`)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT coalesce(avg(fs.score), 0), coalesce(avg(fs.foul_points), 0)
		FROM frame_scores fs
		JOIN frames f ON f.id = fs.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE fs.player_id = $1 AND m.confirmed
		  AND m.date BETWEEN $2 AND $3`,
		stats.PlayerID, rng.From, rng.To).Scan(&stats.PointsPerFrame, &stats.FoulsPerFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to average frame scores for player %d: %w", stats.PlayerID, err)
	}

	return stats, nil
}

// breakHighlight finds the break where a player's record value was set.
func (r *postgresPlayerRepository) breakHighlight(ctx context.Context, playerID int, rng models.DateRange, valueCol, orderBy string) (*models.Highlight, error) {
	h := &models.Highlight{}
	query := fmt.Sprintf(`
		SELECT b.id, %s, m.date, m.id
		FROM breaks b
		JOIN frames f ON f.id = b.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE b.player_id = $1 AND m.confirmed
		  AND m.date BETWEEN $2 AND $3
		  AND b.foul_num IS NULL
		%s
		LIMIT 1`, valueCol, orderBy)
	err := r.db.QueryRowContext(ctx, query, playerID, rng.From, rng.To).
		Scan(&h.BreakID, &h.Value, &h.Date, &h.MatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan break highlight for player %d: %w", playerID, err)
	}
	return h, nil
}

func (r *postgresPlayerRepository) frameHighlight(ctx context.Context, playerID int, rng models.DateRange, valueCol string) (*models.Highlight, error) {
	h := &models.Highlight{}
	query := fmt.Sprintf(`
		SELECT fs.frame_id, %s, m.date, m.id
		FROM frame_scores fs
		JOIN frames f ON f.id = fs.frame_id
		JOIN matches m ON m.id = f.match_id
		WHERE fs.player_id = $1 AND m.confirmed
		  AND m.date BETWEEN $2 AND $3
		ORDER BY %s DESC
		LIMIT 1`, valueCol, valueCol)
	err := r.db.QueryRowContext(ctx, query, playerID, rng.From, rng.To).
		Scan(&h.FrameID, &h.Value, &h.Date, &h.MatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan frame highlight for player %d: %w", playerID, err)
	}
	return h, nil
}

func (r *postgresPlayerRepository) ListNamesByActivity(ctx context.Context, rng models.DateRange) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.name
		FROM players p
		JOIN match_scores ms ON ms.player_id = p.id
		JOIN matches m ON m.id = ms.match_id
		WHERE m.date BETWEEN $1 AND $2
		GROUP BY p.name
		ORDER BY count(*) DESC`,
		rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query active players: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if scanErr := rows.Scan(&name); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player name: %w", scanErr)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player name iteration: %w", err)
	}
	return names, nil
}
