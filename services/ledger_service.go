// services/ledger_service.go
package services

import (
	"errors"
	"sync"

	"game-arena-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService owns wallet balances and the append-only ledger entries.
// Debit and Credit run inside the caller's transaction so a failed transfer
// aborts the whole enclosing operation: there is no partial state commit.
//
// mu serialises every balance-changing operation on this ledger instance.
// Both engines and Topup take it around their transactions, so two
// operations can never read the same committed balance concurrently, no
// matter which engine they come through.
type LedgerService struct {
	mu sync.Mutex
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Debit withdraws amount from a wallet and records the entry. Fails with
// ErrInsufficientFunds when the wallet is missing or cannot cover it. The
// sufficiency check is part of the UPDATE itself, so a balance can never go
// negative even if two transactions race past the serialisation above.
func (s *LedgerService) Debit(tx *gorm.DB, address string, amount int64, kind string, matchID, tournamentID *uint64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	res := tx.Model(&models.Wallet{}).
		Where("address = ? AND balance >= ?", address, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}

	entry := models.LedgerEntry{
		ID:           uuid.NewString(),
		Address:      address,
		Amount:       -amount,
		Kind:         kind,
		MatchID:      matchID,
		TournamentID: tournamentID,
	}
	return tx.Create(&entry).Error
}

// Credit deposits amount into a wallet, creating the wallet row on first
// touch, and records the entry.
func (s *LedgerService) Credit(tx *gorm.DB, address string, amount int64, kind string, matchID, tournamentID *uint64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var wallet models.Wallet
	if err := tx.Where(models.Wallet{Address: address}).
		FirstOrCreate(&wallet).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Wallet{}).
		Where("address = ?", address).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return err
	}

	entry := models.LedgerEntry{
		ID:           uuid.NewString(),
		Address:      address,
		Amount:       amount,
		Kind:         kind,
		MatchID:      matchID,
		TournamentID: tournamentID,
	}
	return tx.Create(&entry).Error
}

// Topup funds a wallet from outside the escrow system (operator action).
func (s *LedgerService) Topup(address string, amount int64) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Credit(tx, address, amount, models.EntryTopup, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.GetWallet(address)
}

// GetWallet returns the wallet for address; a never-funded address reads as
// a zero balance rather than an error.
func (s *LedgerService) GetWallet(address string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.DB.First(&wallet, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Wallet{Address: address}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// ListEntries returns the signed ledger history for one address, newest
// first.
func (s *LedgerService) ListEntries(address string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.LedgerEntry
	err := s.DB.Where("address = ?", address).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
