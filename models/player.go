package models

import "time"

// Player is created on first appearance in a CSV upload and never deleted.
// Rating is only ever changed through the rating service.
type Player struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}
