package models

// Frame is one game within a match. ResultProbability is the winner's contest
// probability frozen at frame close and never recomputed.
type Frame struct {
	ID                int      `json:"id"`
	MatchID           int      `json:"match_id"`
	FrameNum          int      `json:"frame_num"`
	ResultProbability *float64 `json:"result_probability,omitempty"`
}

// FrameScore is one of exactly two per-player rows created at frame close.
// Score already includes points credited from the opponent's fouls.
type FrameScore struct {
	FrameID    int    `json:"frame_id"`
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Won        bool   `json:"won"`
	Score      int    `json:"score"`
	FoulPoints int    `json:"foul_points"`
}

// FrameInfo is a frame with its two scores.
type FrameInfo struct {
	Frame
	Scores []FrameScore `json:"frame_scores"`
}

// FrameDetail adds the ordered break sequence (break_num, foul_num order).
type FrameDetail struct {
	FrameInfo
	Breaks []BreakDetail `json:"breaks"`
}
