package models

type ShotType string

const (
	ShotTypePot  ShotType = "Pot"
	ShotTypeFoul ShotType = "Foul"
)

// ShotRecord is one normalized CSV row, immutable and kept in original row
// order. BreakNum stays a raw string because an empty value is a boundary
// marker rather than a number.
type ShotRecord struct {
	PlayerName string   `json:"player_name"`
	PlayerID   int      `json:"player_id"`
	FrameNum   int      `json:"frame_num"`
	BreakNum   string   `json:"break_num"`
	Ball       string   `json:"ball"`
	Points     int      `json:"points"`
	Type       ShotType `json:"type"`
	IsLong     bool     `json:"is_long"`
}
