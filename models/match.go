package models

import "time"

// Match is created empty at the start of an ingestion and only confirmed once
// every frame and both match scores have been written in the same transaction.
// Unconfirmed matches are filtered out of listings at the query boundary.
type Match struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`
	Confirmed bool      `json:"confirmed"`
}

// MatchScore is one of exactly two per-player rows created at match close.
type MatchScore struct {
	MatchID     int    `json:"match_id"`
	PlayerID    int    `json:"player_id"`
	PlayerName  string `json:"player_name,omitempty"`
	Won         bool   `json:"won"`
	FramesWon   int    `json:"frames_won"`
	TotalPoints int    `json:"total_points"`
}

// MatchInfo is the listing view of a match.
type MatchInfo struct {
	Match
	PrettyDate string       `json:"pretty_date"`
	Scores     []MatchScore `json:"match_scores"`
}

// MatchDetail is the fully materialized match: frames with scores plus stat
// lines for records broken against all history before the match date.
type MatchDetail struct {
	MatchInfo
	Frames []FrameInfo `json:"frames"`
	Stats  []string    `json:"stats"`
}
