package models

import (
	"time"
)

// Tournament lifecycle states.
const (
	TournamentStateRegistration = "registration"
	TournamentStateActive       = "active"
	TournamentStateCompleted    = "completed"
	TournamentStateCancelled    = "cancelled"
)

// Tournament is a single-elimination bracket over a fixed, power-of-two
// number of players. Capacity and entry fee are fixed at creation; the prize
// pool accumulates exact entry fees and is paid out (minus the platform fee)
// to the last player standing.
type Tournament struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	GameType     string `gorm:"type:varchar(32);not null;index" json:"game_type"`
	EntryFee     int64  `gorm:"not null" json:"entry_fee"`
	MaxPlayers   int    `gorm:"not null" json:"max_players"`
	State        string `gorm:"type:varchar(16);not null;default:'registration';index" json:"state"`
	Winner       string `gorm:"type:varchar(128)" json:"winner,omitempty"`
	PrizePool    int64  `gorm:"not null;default:0" json:"prize_pool"`
	CurrentRound int    `gorm:"not null;default:0" json:"current_round"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Registrations []TournamentRegistration `json:"registrations,omitempty" gorm:"foreignKey:TournamentID"`
	Matches       []BracketMatch           `json:"matches,omitempty" gorm:"foreignKey:TournamentID"`
}

// HeldAmount is the escrow the tournament currently holds: the whole prize
// pool until it completes or every registrant is refunded.
func (t *Tournament) HeldAmount() int64 {
	switch t.State {
	case TournamentStateRegistration, TournamentStateActive:
		return t.PrizePool
	default:
		return 0
	}
}

// TournamentRegistration tracks one paid seat. Slot preserves registration
// order, which fixes the round-1 pairing order.
type TournamentRegistration struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	TournamentID  uint64    `gorm:"not null;uniqueIndex:idx_tournament_player" json:"tournament_id"`
	PlayerAddress string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_tournament_player" json:"player_address"`
	Slot          int       `gorm:"not null" json:"slot"`
	PaidAmount    int64     `gorm:"not null" json:"paid_amount"`
	JoinedAt      time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// BracketMatch is one pairing in a tournament round. MatchIndex is the
// per-tournament creation order, which is how resolvers address it.
// EscrowMatchID optionally links the underlying escrowed match when the
// contest was played through the match engine rather than resolved directly.
type BracketMatch struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TournamentID  uint64  `gorm:"not null;index;uniqueIndex:idx_bracket_index" json:"tournament_id"`
	Round         int     `gorm:"not null;index" json:"round"`
	MatchIndex    int     `gorm:"not null;uniqueIndex:idx_bracket_index" json:"match_index"`
	PlayerA       string  `gorm:"type:varchar(128);not null" json:"player_a"`
	PlayerB       string  `gorm:"type:varchar(128);not null" json:"player_b"`
	Winner        string  `gorm:"type:varchar(128)" json:"winner,omitempty"`
	EscrowMatchID *uint64 `json:"escrow_match_id,omitempty"`
	Completed     bool    `gorm:"not null;default:false" json:"completed"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsContestant reports whether addr plays in this bracket match.
func (bm *BracketMatch) IsContestant(addr string) bool {
	return addr == bm.PlayerA || addr == bm.PlayerB
}
