package model

import "time"

// Wallet is the server-side balance of a listener. It is only maintained when
// server-attested rewards are enabled.
type Wallet struct {
	UserID        string    `json:"userId" db:"user_id"`
	Balance       int64     `json:"balance" db:"balance"`
	TotalEarnings int64     `json:"totalEarnings" db:"total_earnings"`
	SongsPlayed   int64     `json:"songsPlayed" db:"songs_played"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
