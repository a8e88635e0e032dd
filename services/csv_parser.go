package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/cuereview/models"
)

// matchColumns maps internal field codes to the column display names produced
// by the scoring app's CSV export. The header row may order them freely but
// must contain exactly this set.
var matchColumns = map[string]string{
	"PLAYER": "Player",
	"FRAME":  "Game",
	"BREAK":  "Break",
	"TYPE":   "Type",
	"BALL":   "Ball",
	"POINTS": "Points",
	"ISLONG": "IsLong",
}

// playerResolver resolves a player name to an id, creating the player on
// first sight.
type playerResolver interface {
	GetOrCreateByName(ctx context.Context, name string) (int, error)
}

type shotParser struct {
	players playerResolver
}

func newShotParser(players playerResolver) *shotParser {
	return &shotParser{players: players}
}

// Parse validates the header row, decodes every data row into a ShotRecord in
// original order and resolves player names (internal whitespace stripped) to
// ids. Exactly two distinct players must appear across the whole file.
func (p *shotParser) Parse(ctx context.Context, csvText string) ([]models.ShotRecord, map[string]int, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1 // column count checked per row for a better error

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: 0", ErrInvalidPlayerCount)
	}

	columns, err := p.parseHeader(records[0])
	if err != nil {
		return nil, nil, err
	}

	playerIDs := make(map[string]int)
	shots := make([]models.ShotRecord, 0, len(records)-1)

	for rowNo, row := range records[1:] {
		if len(row) != len(matchColumns) {
			return nil, nil, fmt.Errorf("%w: bad number of csv columns on row %d", ErrMalformedInput, rowNo+1)
		}

		var shot models.ShotRecord
		for colNo, value := range row {
			if err := p.decodeField(ctx, &shot, columns[colNo], value, rowNo+1, playerIDs); err != nil {
				return nil, nil, err
			}
		}
		shots = append(shots, shot)
	}

	// Known issue carried over from the export format: a player who never
	// takes a shot never appears, so the file cannot be attributed.
	if len(playerIDs) != 2 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidPlayerCount, len(playerIDs))
	}
	return shots, playerIDs, nil
}

// parseHeader maps each header cell back onto its field code. The mapping
// must be a bijection onto the required set.
func (p *shotParser) parseHeader(header []string) ([]string, error) {
	if len(header) != len(matchColumns) {
		return nil, fmt.Errorf("%w: bad number of csv columns on row 0", ErrMalformedInput)
	}

	columns := make([]string, 0, len(header))
	seen := make(map[string]bool, len(header))
	for _, value := range header {
		code := ""
		for fieldCode, displayName := range matchColumns {
			if displayName == value {
				code = fieldCode
				break
			}
		}
		if code == "" {
			return nil, fmt.Errorf("%w: invalid csv header: %s", ErrMalformedInput, value)
		}
		if seen[code] {
			return nil, fmt.Errorf("%w: duplicate csv header: %s", ErrMalformedInput, value)
		}
		seen[code] = true
		columns = append(columns, code)
	}
	return columns, nil
}

func (p *shotParser) decodeField(ctx context.Context, shot *models.ShotRecord, code, value string, rowNo int, playerIDs map[string]int) error {
	switch code {
	case "PLAYER":
		name := strings.ReplaceAll(value, " ", "")
		id, known := playerIDs[name]
		if !known {
			if len(playerIDs) >= 2 {
				return ErrTooManyPlayers
			}
			var err error
			id, err = p.players.GetOrCreateByName(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to resolve player %q: %w", name, err)
			}
			playerIDs[name] = id
		}
		shot.PlayerName = name
		shot.PlayerID = id
	case "FRAME":
		num, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: bad frame number %q on row %d", ErrMalformedInput, value, rowNo)
		}
		shot.FrameNum = num
	case "BREAK":
		// Empty is a valid boundary marker; anything else must be numeric.
		if value != "" {
			if _, err := strconv.Atoi(value); err != nil {
				return fmt.Errorf("%w: bad break number %q on row %d", ErrMalformedInput, value, rowNo)
			}
		}
		shot.BreakNum = value
	case "TYPE":
		switch models.ShotType(value) {
		case models.ShotTypePot, models.ShotTypeFoul:
			shot.Type = models.ShotType(value)
		default:
			return fmt.Errorf("%w: bad shot type %q on row %d", ErrMalformedInput, value, rowNo)
		}
	case "BALL":
		shot.Ball = value
	case "POINTS":
		points, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: bad points value %q on row %d", ErrMalformedInput, value, rowNo)
		}
		shot.Points = points
	case "ISLONG":
		shot.IsLong = strings.EqualFold(value, "true") || value == "1"
	}
	return nil
}
