package models

// RatingJournalEntry is an append-only audit record: one per player per closed
// frame, capturing the opponent's rating at the time of the change and the
// rating that resulted.
type RatingJournalEntry struct {
	ID        int     `json:"id"`
	PlayerID  int     `json:"player_id"`
	FrameID   int     `json:"frame_id"`
	Change    float64 `json:"change"`
	OppRating float64 `json:"opp_rating"`
	NewRating float64 `json:"new_rating"`
}
