// models/wallet.go
package models

import (
	"time"
)

// Wallet is a player's settlement balance in the smallest currency unit.
// Escrowed funds are not part of any wallet balance; they live with the
// match or tournament that holds them until release.
type Wallet struct {
	Address   string    `gorm:"primaryKey;type:varchar(128)" json:"address"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Ledger entry kinds. Every wallet mutation writes exactly one entry, so the
// entries are a complete signed history of wallet deltas.
const (
	EntryEscrowDeposit = "escrow_deposit" // wallet → escrow (negative amount)
	EntryPayout        = "payout"         // escrow → winner
	EntryRefund        = "refund"         // escrow → participant
	EntryPlatformFee   = "platform_fee"   // escrow → treasury
	EntryTopup         = "topup"          // external funding, not escrow-related
)

// LedgerEntry is an append-only audit row for one wallet delta. Amount is
// signed: debits are negative, credits positive.
type LedgerEntry struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Address      string    `gorm:"type:varchar(128);not null;index" json:"address"`
	Amount       int64     `gorm:"not null" json:"amount"`
	Kind         string    `gorm:"type:varchar(32);not null;index" json:"kind"`
	MatchID      *uint64   `gorm:"index" json:"match_id,omitempty"`
	TournamentID *uint64   `gorm:"index" json:"tournament_id,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
