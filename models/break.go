package models

// Break is a single player's uninterrupted run of pots within a frame, or a
// foul entry attached to the same nominal break slot. A break is mutable until
// closed; closing freezes score, length and the two frame-score snapshots.
// FoulNum is nil for scoring breaks; foul breaks order within a slot by
// break_num*100 + foul_num.
type Break struct {
	ID            int  `json:"id"`
	FrameID       int  `json:"frame_id"`
	BreakNum      int  `json:"break_num"`
	PlayerID      int  `json:"player_id"`
	Score         int  `json:"score"`
	Length        int  `json:"length"`
	FoulNum       *int `json:"foul_num,omitempty"`
	FrameScore    int  `json:"frame_score"`
	OppFrameScore int  `json:"opp_frame_score"`
}

// Pot is one recorded strike within a break, joined with its ball.
type Pot struct {
	BreakID int    `json:"break_id"`
	PotNum  int    `json:"pot_num"`
	BallID  int    `json:"ball_id"`
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Foul    bool   `json:"foul"`
}

// BreakDetail is a break with its owner's name and ordered pots.
type BreakDetail struct {
	Break
	PlayerName string `json:"player_name"`
	Pots       []Pot  `json:"pots"`
}
