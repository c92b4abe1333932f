package models

import (
	"time"
)

// Match lifecycle states. A match is terminal once resolved or cancelled;
// the record is kept for audit, the escrowed funds are not.
const (
	MatchStateCreated   = "created" // creator's wager escrowed, waiting for an opponent
	MatchStateCommit    = "commit"  // both wagers escrowed, collecting commitments
	MatchStateReveal    = "reveal"  // both commitments in, collecting reveals
	MatchStateResolved  = "resolved"
	MatchStateCancelled = "cancelled"
)

// Supported game-type tags. The escrow core never inspects game semantics;
// the tag only scopes which comparator applies on a double reveal.
const (
	GameTypePoker     = "poker"
	GameTypeAuction   = "auction"
	GameTypeRPGBattle = "rpg_battle"
)

// Match records a single two-party wagered match with commit-reveal support.
// Wager is fixed at creation and expressed in the smallest currency unit.
type Match struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	GameType string `gorm:"type:varchar(32);not null;index" json:"game_type"`
	PlayerA  string `gorm:"type:varchar(128);not null;index" json:"player_a"`
	PlayerB  string `gorm:"type:varchar(128);index" json:"player_b,omitempty"`
	Wager    int64  `gorm:"not null" json:"wager"`
	State    string `gorm:"type:varchar(16);not null;default:'created';index" json:"state"`
	Winner   string `gorm:"type:varchar(128)" json:"winner,omitempty"`

	// Commit-reveal material. Commitments are 32-byte keccak digests;
	// reveals are the opaque move payloads bound to them.
	CommitA []byte `json:"commit_a,omitempty"`
	CommitB []byte `json:"commit_b,omitempty"`
	RevealA []byte `json:"reveal_a,omitempty"`
	RevealB []byte `json:"reveal_b,omitempty"`

	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	JoinedAt        *time.Time `json:"joined_at,omitempty"`
	RevealStartedAt *time.Time `json:"reveal_started_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// IsPlayer reports whether addr is one of the two match participants.
func (m *Match) IsPlayer(addr string) bool {
	return addr == m.PlayerA || (m.PlayerB != "" && addr == m.PlayerB)
}

// Opponent returns the other participant, or "" if addr is not a player.
func (m *Match) Opponent(addr string) string {
	switch addr {
	case m.PlayerA:
		return m.PlayerB
	case m.PlayerB:
		return m.PlayerA
	}
	return ""
}

// EscrowedAmount is the balance the match currently holds: one wager before
// join, the full pot while joined, nothing once terminal.
func (m *Match) EscrowedAmount() int64 {
	switch m.State {
	case MatchStateCreated:
		return m.Wager
	case MatchStateCommit, MatchStateReveal:
		return 2 * m.Wager
	default:
		return 0
	}
}

// Terminal reports whether the match reached a final state.
func (m *Match) Terminal() bool {
	return m.State == MatchStateResolved || m.State == MatchStateCancelled
}
