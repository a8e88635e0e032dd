package models

// Ball identity is the (name, foul) pair: "Red" as a pot and "Red" as a foul
// are distinct rows with their own point values.
type Ball struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Foul   bool   `json:"foul"`
}

// BallStat is a per-ball aggregate over a date range.
type BallStat struct {
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Avg       float64 `json:"avg"`
	AvgPoints float64 `json:"avg_points"`
}
