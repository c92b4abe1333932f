package models

import (
	"time"
)

// PlayerStats holds cumulative per-player counters, updated only as a side
// effect of match resolution. All counters are monotonically non-decreasing
// and never reset.
type PlayerStats struct {
	Address      string    `gorm:"primaryKey;type:varchar(128)" json:"address"`
	GamesPlayed  int64     `gorm:"not null;default:0" json:"games_played"`
	Wins         int64     `gorm:"not null;default:0" json:"wins"`
	Losses       int64     `gorm:"not null;default:0" json:"losses"`
	TotalWagered int64     `gorm:"not null;default:0" json:"total_wagered"`
	TotalWon     int64     `gorm:"not null;default:0" json:"total_won"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
