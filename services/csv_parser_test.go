package services

import (
	"context"
	"testing"

	"github.com/Dosada05/cuereview/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	ids map[string]int
}

func (r *fakeResolver) GetOrCreateByName(_ context.Context, name string) (int, error) {
	if r.ids == nil {
		r.ids = make(map[string]int)
	}
	if id, ok := r.ids[name]; ok {
		return id, nil
	}
	id := len(r.ids) + 1
	r.ids[name] = id
	return id, nil
}

const validCSV = `Player,Game,Break,Type,Ball,Points,IsLong
Alice,1,1,Pot,Red,1,false
Alice,1,1,Pot,Black,7,true
Bob,1,2,Foul,Foul,4,false
Bob,1,,Pot,Red,1,1
`

func TestParseValidCSV(t *testing.T) {
	parser := newShotParser(&fakeResolver{})
	shots, players, err := parser.Parse(context.Background(), validCSV)
	require.NoError(t, err)

	require.Len(t, shots, 4)
	assert.Equal(t, map[string]int{"Alice": 1, "Bob": 2}, players)

	assert.Equal(t, models.ShotRecord{
		PlayerName: "Alice", PlayerID: 1, FrameNum: 1, BreakNum: "1",
		Ball: "Red", Points: 1, Type: models.ShotTypePot, IsLong: false,
	}, shots[0])
	assert.True(t, shots[1].IsLong)
	assert.Equal(t, models.ShotTypeFoul, shots[2].Type)

	// Empty break number survives as-is, and "1" counts as long.
	assert.Equal(t, "", shots[3].BreakNum)
	assert.True(t, shots[3].IsLong)
}

func TestParseHeaderOrderIsFree(t *testing.T) {
	csvText := "IsLong,Points,Ball,Type,Break,Game,Player\n" +
		"false,1,Red,Pot,1,1,Alice\n" +
		"false,1,Red,Pot,2,1,Bob\n"
	parser := newShotParser(&fakeResolver{})
	shots, _, err := parser.Parse(context.Background(), csvText)
	require.NoError(t, err)
	require.Len(t, shots, 2)
	assert.Equal(t, "Alice", shots[0].PlayerName)
	assert.Equal(t, 1, shots[0].Points)
}

func TestParsePlayerNamesLoseInternalWhitespace(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n" +
		"Ronnie O Sullivan,1,1,Pot,Red,1,false\n" +
		"Bob,1,2,Pot,Red,1,false\n"
	parser := newShotParser(&fakeResolver{})
	_, players, err := parser.Parse(context.Background(), csvText)
	require.NoError(t, err)
	assert.Contains(t, players, "RonnieOSullivan")
}

func TestParseRejectsUnknownHeader(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,Bogus\nAlice,1,1,Pot,Red,1,false\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "invalid csv header: Bogus")
}

func TestParseHeaderFailureHasNoSideEffects(t *testing.T) {
	// "Players" is not "Player"; header validation happens before any row is
	// decoded, so no player is ever resolved.
	csvText := "Players,Game,Break,Type,Ball,Points,IsLong\nAlice,1,1,Pot,Red,1,false\n"
	resolver := &fakeResolver{}
	parser := newShotParser(resolver)
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Empty(t, resolver.ids)
}

func TestParseRejectsDuplicateHeader(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,Points\nAlice,1,1,Pot,Red,1,1\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "duplicate csv header")
}

func TestParseRejectsShortHeader(t *testing.T) {
	csvText := "Player,Game,Break\nAlice,1,1\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "row 0")
}

func TestParseRejectsShortRow(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\nAlice,1,1,Pot\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "row 1")
}

func TestParseRejectsBadNumbers(t *testing.T) {
	for name, row := range map[string]string{
		"frame":  "Alice,one,1,Pot,Red,1,false",
		"break":  "Alice,1,x,Pot,Red,1,false",
		"points": "Alice,1,1,Pot,Red,many,false",
		"type":   "Alice,1,1,Safety,Red,1,false",
	} {
		t.Run(name, func(t *testing.T) {
			csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n" + row + "\n"
			parser := newShotParser(&fakeResolver{})
			_, _, err := parser.Parse(context.Background(), csvText)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestParseRejectsThirdPlayer(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n" +
		"Alice,1,1,Pot,Red,1,false\n" +
		"Bob,1,2,Pot,Red,1,false\n" +
		"Carol,1,3,Pot,Red,1,false\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrTooManyPlayers)
}

func TestParseRejectsSinglePlayer(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n" +
		"Alice,1,1,Pot,Red,1,false\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrInvalidPlayerCount)
}

func TestParseRejectsHeaderOnlyFile(t *testing.T) {
	csvText := "Player,Game,Break,Type,Ball,Points,IsLong\n"
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), csvText)
	require.ErrorIs(t, err, ErrInvalidPlayerCount)
}

func TestParseRejectsEmptyFile(t *testing.T) {
	parser := newShotParser(&fakeResolver{})
	_, _, err := parser.Parse(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidPlayerCount)
}
