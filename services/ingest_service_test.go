package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDB backs the in-memory repository fakes. It mirrors the store closely
// enough to exercise the whole ingestion path without a database: open breaks
// carry zero score and a nil foul_num exactly like freshly inserted rows.
type memDB struct {
	players []models.Player
	balls   []models.Ball
	matches []models.Match
	frames  []models.Frame
	breaks  []models.Break
	pots    map[int][]int // break id -> ball ids in pot order

	frameScores []models.FrameScore
	matchScores []models.MatchScore
	journal     []models.RatingJournalEntry
}

func newMemDB() *memDB {
	return &memDB{pots: make(map[int][]int)}
}

func (d *memDB) ballByID(id int) *models.Ball {
	for i := range d.balls {
		if d.balls[i].ID == id {
			return &d.balls[i]
		}
	}
	return nil
}

func (d *memDB) breakByID(id int) *models.Break {
	for i := range d.breaks {
		if d.breaks[i].ID == id {
			return &d.breaks[i]
		}
	}
	return nil
}

type memPlayers struct{ db *memDB }

func (r *memPlayers) GetOrCreateByName(_ context.Context, name string) (int, error) {
	for _, p := range r.db.players {
		if p.Name == name {
			return p.ID, nil
		}
	}
	player := models.Player{ID: len(r.db.players) + 1, Name: name, Rating: 1000}
	r.db.players = append(r.db.players, player)
	return player.ID, nil
}

func (r *memPlayers) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Player, error) {
	for i := range r.db.players {
		if r.db.players[i].ID == id {
			player := r.db.players[i]
			return &player, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *memPlayers) Stats(_ context.Context, _ string, _ models.DateRange) (*models.PlayerStats, error) {
	return nil, repositories.ErrPlayerNotFound
}

func (r *memPlayers) ListNamesByActivity(_ context.Context, _ models.DateRange) ([]string, error) {
	return nil, nil
}

type memBalls struct{ db *memDB }

func (r *memBalls) GetOrCreate(_ context.Context, _ repositories.SQLExecutor, name string, points int, foul bool) (int, error) {
	for _, b := range r.db.balls {
		if b.Name == name && b.Foul == foul {
			return b.ID, nil
		}
	}
	ball := models.Ball{ID: len(r.db.balls) + 1, Name: name, Points: points, Foul: foul}
	r.db.balls = append(r.db.balls, ball)
	return ball.ID, nil
}

func (r *memBalls) ListNonFoul(_ context.Context) ([]models.Ball, error) {
	balls := make([]models.Ball, 0)
	for _, b := range r.db.balls {
		if !b.Foul {
			balls = append(balls, b)
		}
	}
	return balls, nil
}

func (r *memBalls) CountPotsByPlayer(_ context.Context, _, _ int, _ models.DateRange) (int, error) {
	return 0, nil
}

func (r *memBalls) CountPots(_ context.Context, _ int, _ models.DateRange) (int, error) {
	return 0, nil
}

type memMatches struct{ db *memDB }

func (r *memMatches) Create(_ context.Context, _ repositories.SQLExecutor, date time.Time) (int, error) {
	match := models.Match{ID: len(r.db.matches) + 1, Date: date}
	r.db.matches = append(r.db.matches, match)
	return match.ID, nil
}

func (r *memMatches) Confirm(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	for i := range r.db.matches {
		if r.db.matches[i].ID == matchID {
			r.db.matches[i].Confirmed = true
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *memMatches) CreateScore(_ context.Context, _ repositories.SQLExecutor, score *models.MatchScore) error {
	r.db.matchScores = append(r.db.matchScores, *score)
	return nil
}

func (r *memMatches) GetInfo(_ context.Context, matchID int) (*models.MatchInfo, error) {
	for _, m := range r.db.matches {
		if m.ID == matchID {
			return &models.MatchInfo{Match: m}, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *memMatches) ListConfirmedIDs(_ context.Context) ([]int, error) { return nil, nil }

func (r *memMatches) ListIDsForPlayer(_ context.Context, _ string) ([]int, error) { return nil, nil }

type memFrames struct{ db *memDB }

func (r *memFrames) Create(_ context.Context, _ repositories.SQLExecutor, matchID, frameNum int) (int, error) {
	frame := models.Frame{ID: len(r.db.frames) + 1, MatchID: matchID, FrameNum: frameNum}
	r.db.frames = append(r.db.frames, frame)
	return frame.ID, nil
}

func (r *memFrames) DistinctPlayers(_ context.Context, _ repositories.SQLExecutor, frameID int) ([]int, error) {
	seen := make(map[int]bool)
	for _, b := range r.db.breaks {
		if b.FrameID == frameID {
			seen[b.PlayerID] = true
		}
	}
	return sortedKeys(seen), nil
}

func (r *memFrames) DistinctScorePlayers(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]int, error) {
	frameIDs := make(map[int]bool)
	for _, f := range r.db.frames {
		if f.MatchID == matchID {
			frameIDs[f.ID] = true
		}
	}
	seen := make(map[int]bool)
	for _, fs := range r.db.frameScores {
		if frameIDs[fs.FrameID] {
			seen[fs.PlayerID] = true
		}
	}
	return sortedKeys(seen), nil
}

func (r *memFrames) UpdateProbability(_ context.Context, _ repositories.SQLExecutor, frameID int, probability float64) error {
	for i := range r.db.frames {
		if r.db.frames[i].ID == frameID {
			p := probability
			r.db.frames[i].ResultProbability = &p
			return nil
		}
	}
	return repositories.ErrFrameNotFound
}

func (r *memFrames) CreateScore(_ context.Context, _ repositories.SQLExecutor, score *models.FrameScore) error {
	r.db.frameScores = append(r.db.frameScores, *score)
	return nil
}

func (r *memFrames) CountFramesWon(_ context.Context, _ repositories.SQLExecutor, matchID, playerID int) (int, error) {
	count := 0
	for _, fs := range r.db.frameScores {
		if fs.PlayerID == playerID && fs.Won && r.frameMatch(fs.FrameID) == matchID {
			count++
		}
	}
	return count, nil
}

func (r *memFrames) SumPoints(_ context.Context, _ repositories.SQLExecutor, matchID, playerID int) (int, error) {
	total := 0
	for _, fs := range r.db.frameScores {
		if fs.PlayerID == playerID && r.frameMatch(fs.FrameID) == matchID {
			total += fs.Score
		}
	}
	return total, nil
}

func (r *memFrames) frameMatch(frameID int) int {
	for _, f := range r.db.frames {
		if f.ID == frameID {
			return f.MatchID
		}
	}
	return 0
}

func (r *memFrames) GetInfo(_ context.Context, _ int) (*models.FrameInfo, error) {
	return nil, repositories.ErrFrameNotFound
}

func (r *memFrames) ListIDsByMatch(_ context.Context, _ int) ([]int, error) { return nil, nil }

func (r *memFrames) CountInRange(_ context.Context, _ models.DateRange) (int, error) { return 0, nil }

func (r *memFrames) BestScoreBefore(_ context.Context, _ time.Time) (int, error) { return 0, nil }

func (r *memFrames) MostFoulPointsBefore(_ context.Context, _ time.Time) (int, error) { return 0, nil }

type memBreaks struct{ db *memDB }

func (r *memBreaks) Create(_ context.Context, _ repositories.SQLExecutor, frameID, breakNum, playerID int) (int, error) {
	b := models.Break{ID: len(r.db.breaks) + 1, FrameID: frameID, BreakNum: breakNum, PlayerID: playerID}
	r.db.breaks = append(r.db.breaks, b)
	return b.ID, nil
}

func (r *memBreaks) AddPot(_ context.Context, _ repositories.SQLExecutor, breakID, ballID int) error {
	r.db.pots[breakID] = append(r.db.pots[breakID], ballID)
	return nil
}

func (r *memBreaks) Get(_ context.Context, _ repositories.SQLExecutor, breakID int) (*models.Break, error) {
	if b := r.db.breakByID(breakID); b != nil {
		copied := *b
		return &copied, nil
	}
	return nil, repositories.ErrBreakNotFound
}

func (r *memBreaks) CountFoulPots(_ context.Context, _ repositories.SQLExecutor, breakID int) (int, error) {
	count := 0
	for _, ballID := range r.db.pots[breakID] {
		if r.db.ballByID(ballID).Foul {
			count++
		}
	}
	return count, nil
}

func (r *memBreaks) SumPotPoints(_ context.Context, _ repositories.SQLExecutor, breakID int) (int, error) {
	sum := 0
	for _, ballID := range r.db.pots[breakID] {
		sum += r.db.ballByID(ballID).Points
	}
	return sum, nil
}

func (r *memBreaks) CountPots(_ context.Context, _ repositories.SQLExecutor, breakID int) (int, error) {
	return len(r.db.pots[breakID]), nil
}

func (r *memBreaks) NextFoulNum(_ context.Context, _ repositories.SQLExecutor, breakID int) (int, error) {
	ref := r.db.breakByID(breakID)
	max := 0
	for _, b := range r.db.breaks {
		if b.FrameID == ref.FrameID && b.BreakNum == ref.BreakNum && b.FoulNum != nil && *b.FoulNum > max {
			max = *b.FoulNum
		}
	}
	return max + 1, nil
}

func (r *memBreaks) Close(_ context.Context, _ repositories.SQLExecutor, breakID, score, length int, foulNum *int, frameScore, oppFrameScore int) error {
	b := r.db.breakByID(breakID)
	if b == nil {
		return repositories.ErrBreakNotFound
	}
	b.Score = score
	b.Length = length
	b.FoulNum = foulNum
	b.FrameScore = frameScore
	b.OppFrameScore = oppFrameScore
	return nil
}

func (r *memBreaks) SumScores(_ context.Context, _ repositories.SQLExecutor, frameID, playerID, breakNum int, opponent bool) (int, error) {
	sum := 0
	for _, b := range r.db.breaks {
		if b.FrameID != frameID || b.FoulNum != nil || b.BreakNum > breakNum {
			continue
		}
		if (b.PlayerID == playerID) != opponent {
			sum += b.Score
		}
	}
	return sum, nil
}

func (r *memBreaks) SumFoulScores(_ context.Context, _ repositories.SQLExecutor, frameID, playerID, breakNum, foulNum int, opponent bool) (int, error) {
	sum := 0
	cutoff := breakNum*100 + foulNum
	for _, b := range r.db.breaks {
		if b.FrameID != frameID || b.FoulNum == nil || b.BreakNum*100+*b.FoulNum > cutoff {
			continue
		}
		if (b.PlayerID == playerID) != opponent {
			sum += b.Score
		}
	}
	return sum, nil
}

func (r *memBreaks) ListByFrame(_ context.Context, _ int) ([]models.BreakDetail, error) {
	return nil, nil
}

func (r *memBreaks) Detail(_ context.Context, _ int) (*models.BreakDetail, error) {
	return nil, repositories.ErrBreakNotFound
}

type memRatings struct{ db *memDB }

func (r *memRatings) CurrentRating(_ context.Context, _ repositories.SQLExecutor, playerID int) (float64, error) {
	for _, p := range r.db.players {
		if p.ID == playerID {
			return p.Rating, nil
		}
	}
	return 0, repositories.ErrPlayerNotFound
}

func (r *memRatings) ApplyDelta(_ context.Context, _ repositories.SQLExecutor, playerID int, delta float64) (float64, error) {
	for i := range r.db.players {
		if r.db.players[i].ID == playerID {
			r.db.players[i].Rating += delta
			return r.db.players[i].Rating, nil
		}
	}
	return 0, repositories.ErrPlayerNotFound
}

func (r *memRatings) AppendJournal(_ context.Context, _ repositories.SQLExecutor, entry *models.RatingJournalEntry) error {
	r.db.journal = append(r.db.journal, *entry)
	return nil
}

// fakeUnitOfWork runs the function directly and records whether the run would
// have rolled back.
type fakeUnitOfWork struct {
	runs       int
	rolledBack int
}

func (u *fakeUnitOfWork) Run(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	u.runs++
	if err := fn(nil); err != nil {
		u.rolledBack++
		return err
	}
	return nil
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type ingestFixture struct {
	db     *memDB
	uow    *fakeUnitOfWork
	ingest IngestService
}

func newIngestFixture() *ingestFixture {
	db := newMemDB()
	uow := &fakeUnitOfWork{}
	logger := discardLogger()
	ratings := NewRatingService(&memRatings{db: db}, logger)
	ingest := NewIngestService(
		uow,
		&memPlayers{db: db},
		&memBalls{db: db},
		&memMatches{db: db},
		&memFrames{db: db},
		&memBreaks{db: db},
		ratings,
		logger,
	)
	return &ingestFixture{db: db, uow: uow, ingest: ingest}
}

// Two frames split one each: Alice takes frame 1 on Bob's foul points, Bob
// takes frame 2 on the table, Alice wins the match on aggregate points.
const twoFrameCSV = `Player,Game,Break,Type,Ball,Points,IsLong
Alice,1,1,Pot,Red,1,false
Alice,1,1,Pot,Black,7,true
Bob,1,2,Foul,Foul,4,false
Bob,1,3,Pot,Red,1,false
Bob,2,1,Pot,Red,1,false
Bob,2,1,Pot,Black,7,false
Alice,2,2,Pot,Red,1,false
`

func TestIngestCSVFullMatch(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	date := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)

	matchID, err := f.ingest.IngestCSV(ctx, twoFrameCSV, date)
	require.NoError(t, err)
	assert.Equal(t, 1, matchID)

	require.Len(t, f.db.matches, 1)
	assert.True(t, f.db.matches[0].Confirmed)
	assert.Equal(t, date, f.db.matches[0].Date)
	require.Len(t, f.db.frames, 2)

	// Repeated balls resolve to the same rows: Red, Black, and the foul entry.
	assert.Len(t, f.db.balls, 3)

	// Frame 1: Alice 8 potted + 4 credited from Bob's foul, Bob 1.
	frame1 := frameScoresFor(f.db, 1)
	require.Len(t, frame1, 2)
	assert.Equal(t, 12, frame1[1].Score)
	assert.Equal(t, 0, frame1[1].FoulPoints)
	assert.True(t, frame1[1].Won)
	assert.Equal(t, 1, frame1[2].Score)
	assert.Equal(t, 4, frame1[2].FoulPoints)
	assert.False(t, frame1[2].Won)

	// Frame 2: Bob 8, Alice 1.
	frame2 := frameScoresFor(f.db, 2)
	assert.Equal(t, 1, frame2[1].Score)
	assert.False(t, frame2[1].Won)
	assert.Equal(t, 8, frame2[2].Score)
	assert.True(t, frame2[2].Won)

	// Frames split 1-1, so the match goes to Alice on total points 13-9.
	require.Len(t, f.db.matchScores, 2)
	byPlayer := map[int]models.MatchScore{}
	for _, ms := range f.db.matchScores {
		byPlayer[ms.PlayerID] = ms
	}
	assert.True(t, byPlayer[1].Won)
	assert.Equal(t, 1, byPlayer[1].FramesWon)
	assert.Equal(t, 13, byPlayer[1].TotalPoints)
	assert.False(t, byPlayer[2].Won)
	assert.Equal(t, 1, byPlayer[2].FramesWon)
	assert.Equal(t, 9, byPlayer[2].TotalPoints)
}

func TestIngestCSVDefaultDateIsMidnightUTC(t *testing.T) {
	f := newIngestFixture()
	_, err := f.ingest.IngestCSV(context.Background(), twoFrameCSV, time.Time{})
	require.NoError(t, err)

	// A defaulted date carries no time of day, so record lookups comparing
	// strictly before the match date cannot see a same-day match.
	require.Len(t, f.db.matches, 1)
	stored := f.db.matches[0].Date
	assert.Equal(t, time.UTC, stored.Location())
	assert.Equal(t, stored, stored.Truncate(24*time.Hour))
}

func TestIngestCSVFoulBreakBookkeeping(t *testing.T) {
	f := newIngestFixture()
	_, err := f.ingest.IngestCSV(context.Background(), twoFrameCSV, time.Time{})
	require.NoError(t, err)

	// Bob's foul break: own score snapshot excludes the foul points, the
	// opponent side already includes Alice's 8-point break.
	foul := f.db.breakByID(2)
	require.NotNil(t, foul.FoulNum)
	assert.Equal(t, 1, *foul.FoulNum)
	assert.Equal(t, 4, foul.Score)
	assert.Equal(t, 0, foul.FrameScore)
	assert.Equal(t, 8, foul.OppFrameScore)

	// Alice's opening break folds its own score into the snapshot.
	opening := f.db.breakByID(1)
	assert.Nil(t, opening.FoulNum)
	assert.Equal(t, 8, opening.Score)
	assert.Equal(t, 2, opening.Length)
	assert.Equal(t, 8, opening.FrameScore)
	assert.Equal(t, 0, opening.OppFrameScore)
}

func TestIngestCSVRatingsMove(t *testing.T) {
	f := newIngestFixture()
	_, err := f.ingest.IngestCSV(context.Background(), twoFrameCSV, time.Time{})
	require.NoError(t, err)

	// Two frames, two journal entries each.
	require.Len(t, f.db.journal, 4)

	// Frame 1 starts even: winner probability 0.5 frozen on the frame.
	require.NotNil(t, f.db.frames[0].ResultProbability)
	assert.InDelta(t, 0.5, *f.db.frames[0].ResultProbability, 1e-9)

	// Frame 2: Bob wins as a slight underdog, so he ends ahead overall.
	alice, bob := f.db.players[0].Rating, f.db.players[1].Rating
	assert.InDelta(t, 2000, alice+bob, 1e-9)
	assert.Greater(t, bob, alice)
	require.NotNil(t, f.db.frames[1].ResultProbability)
	assert.Less(t, *f.db.frames[1].ResultProbability, 0.5)
}

func TestIngestCSVParseFailureCreatesNoMatch(t *testing.T) {
	f := newIngestFixture()
	_, err := f.ingest.IngestCSV(context.Background(), "Player,Game,Break,Type,Ball,Points,IsLong\n", time.Time{})
	require.ErrorIs(t, err, ErrInvalidPlayerCount)
	assert.Empty(t, f.db.matches)
	assert.Zero(t, f.uow.runs)
}

func TestIngestCSVPlayersSurviveParseFailure(t *testing.T) {
	f := newIngestFixture()
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n" +
		"Alice,1,1,Pot,Red,1,false\n"
	_, err := f.ingest.IngestCSV(context.Background(), csvText, time.Time{})
	require.ErrorIs(t, err, ErrInvalidPlayerCount)

	// Player rows are created while resolving names, outside the match
	// transaction, and stay behind.
	require.Len(t, f.db.players, 1)
	assert.Equal(t, "Alice", f.db.players[0].Name)
	assert.Empty(t, f.db.matches)
}

func TestIngestCSVSinglePlayerFrameRollsBack(t *testing.T) {
	f := newIngestFixture()
	// Frame 2 only ever sees Bob, so closing it cannot find two players.
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n" +
		"Alice,1,1,Pot,Red,1,false\n" +
		"Bob,1,2,Pot,Red,1,false\n" +
		"Bob,2,1,Pot,Red,1,false\n"

	_, err := f.ingest.IngestCSV(context.Background(), csvText, time.Time{})
	require.ErrorIs(t, err, ErrIngestFailed)
	assert.Equal(t, 1, f.uow.rolledBack)

	// The match shell was created inside the failed unit of work and never
	// confirmed.
	for _, m := range f.db.matches {
		assert.False(t, m.Confirmed)
	}
}

func frameScoresFor(db *memDB, frameID int) map[int]models.FrameScore {
	scores := make(map[int]models.FrameScore)
	for _, fs := range db.frameScores {
		if fs.FrameID == frameID {
			scores[fs.PlayerID] = fs
		}
	}
	return scores
}
