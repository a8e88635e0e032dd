package models

import "time"

// DateRange bounds a stats or listing query. Zero bounds mean all time.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Highlight points at the frame or break where a player's record stat was set.
type Highlight struct {
	MatchID int       `json:"match_id"`
	FrameID int       `json:"frame_id,omitempty"`
	BreakID int       `json:"break_id,omitempty"`
	Value   int       `json:"value"`
	Date    time.Time `json:"date"`
}

// PlayerStats aggregates a player's record over confirmed matches in a range.
type PlayerStats struct {
	PlayerID int     `json:"player_id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`

	MatchesPlayed int `json:"matches_played"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Percentage    int `json:"percentage"`

	FramesPlayed    int `json:"frames_played"`
	FrameWins       int `json:"frame_wins"`
	FrameLosses     int `json:"frame_losses"`
	FramePercentage int `json:"frame_percentage"`

	HighestBreak *Highlight `json:"highest_break,omitempty"`
	LongestBreak *Highlight `json:"longest_break,omitempty"`
	BestScore    *Highlight `json:"best_score,omitempty"`
	MostFouls    *Highlight `json:"most_fouls,omitempty"`

	PointsPerFrame float64 `json:"ppf"`
	FoulsPerFrame  float64 `json:"fpf"`

	Balls []BallStat `json:"balls,omitempty"`
}
